package keeper

import (
	"context"

	"cosmossdk.io/math"
	"github.com/openalpha/hifi/x/treasury/types"
)

var _ types.MsgServer = (*MsgServer)(nil)

// MsgServer defines the treasury MsgServer
type MsgServer struct {
	keeper *Keeper
}

// NewMsgServerImpl creates a new MsgServer instance
func NewMsgServerImpl(keeper *Keeper) *MsgServer {
	return &MsgServer{keeper: keeper}
}

// FundTreasury handles MsgFundTreasury
func (m *MsgServer) FundTreasury(ctx context.Context, msg *types.MsgFundTreasury) (*types.MsgFundTreasuryResponse, error) {
	amount, ok := math.NewIntFromString(msg.Amount)
	if !ok {
		return nil, types.ErrZeroAmount.Wrapf("amount %q", msg.Amount)
	}
	fund, err := m.keeper.Deposit(ctx, msg.Depositor, amount)
	if err != nil {
		return nil, err
	}
	return &types.MsgFundTreasuryResponse{Balance: fund.Balance.String()}, nil
}
