package keeper

import (
	"context"

	"cosmossdk.io/math"
	"github.com/openalpha/hifi/x/yieldpool/types"
)

var _ types.MsgServer = (*MsgServer)(nil)

// MsgServer defines the yieldpool MsgServer
type MsgServer struct {
	keeper *Keeper
}

// NewMsgServerImpl creates a new MsgServer instance
func NewMsgServerImpl(keeper *Keeper) *MsgServer {
	return &MsgServer{keeper: keeper}
}

func parseAmount(field, s string) (math.Int, error) {
	v, ok := math.NewIntFromString(s)
	if !ok {
		return math.Int{}, types.ErrInvalidParams.Wrapf("invalid %s %q", field, s)
	}
	return v, nil
}

// CreatePool handles MsgCreatePool
func (m *MsgServer) CreatePool(ctx context.Context, msg *types.MsgCreatePool) (*types.MsgCreatePoolResponse, error) {
	capAmount, err := parseAmount("cap", msg.Cap)
	if err != nil {
		return nil, err
	}
	params, err := types.ParamsForTier(msg.Tier)
	if err != nil {
		return nil, err
	}
	pool, err := m.keeper.CreatePool(ctx, msg.Authority, types.PoolConfig{
		PoolID:   msg.PoolID,
		Name:     msg.Name,
		Owner:    msg.Owner,
		Denom:    msg.Denom,
		Tier:     msg.Tier,
		Strategy: msg.Strategy,
		Wrapped:  msg.Wrapped,
		Cap:      capAmount,
		Params:   params,
	})
	if err != nil {
		return nil, err
	}
	return &types.MsgCreatePoolResponse{PoolID: pool.PoolID}, nil
}

// Deposit handles MsgDeposit
func (m *MsgServer) Deposit(ctx context.Context, msg *types.MsgDeposit) (*types.MsgDepositResponse, error) {
	amount, err := parseAmount("amount", msg.Amount)
	if err != nil {
		return nil, err
	}
	res, err := m.keeper.Deposit(ctx, msg.Depositor, msg.PoolID, amount)
	if err != nil {
		return nil, err
	}
	return &types.MsgDepositResponse{
		SharesMinted: res.Shares.String(),
		Deployed:     res.Deployed,
	}, nil
}

// DeployToStrategy handles MsgDeployToStrategy
func (m *MsgServer) DeployToStrategy(ctx context.Context, msg *types.MsgDeployToStrategy) (*types.MsgDeployToStrategyResponse, error) {
	pool, err := m.keeper.DeployToStrategy(ctx, msg.Caller, msg.PoolID)
	if err != nil {
		return nil, err
	}
	return &types.MsgDeployToStrategyResponse{
		Principal:  pool.DeployedPrincipal.String(),
		DeployedAt: pool.DeployedAtTime,
	}, nil
}

// Withdraw handles MsgWithdraw
func (m *MsgServer) Withdraw(ctx context.Context, msg *types.MsgWithdraw) (*types.MsgWithdrawResponse, error) {
	shares, err := parseAmount("shares", msg.Shares)
	if err != nil {
		return nil, err
	}
	res, err := m.keeper.Withdraw(ctx, msg.Owner, msg.PoolID, shares)
	if err != nil {
		return nil, err
	}
	return withdrawResponse(res), nil
}

// WithdrawAll handles MsgWithdrawAll
func (m *MsgServer) WithdrawAll(ctx context.Context, msg *types.MsgWithdrawAll) (*types.MsgWithdrawResponse, error) {
	res, err := m.keeper.WithdrawAll(ctx, msg.Owner, msg.PoolID)
	if err != nil {
		return nil, err
	}
	return withdrawResponse(res), nil
}

func withdrawResponse(res *types.WithdrawResult) *types.MsgWithdrawResponse {
	return &types.MsgWithdrawResponse{
		SharesBurnt: res.SharesBurnt.String(),
		Payout:      res.Payout.String(),
		PoolReset:   res.PoolReset,
	}
}

// SetCap handles MsgSetCap
func (m *MsgServer) SetCap(ctx context.Context, msg *types.MsgSetCap) (*types.MsgSetCapResponse, error) {
	capAmount, err := parseAmount("cap", msg.Cap)
	if err != nil {
		return nil, err
	}
	deployed, err := m.keeper.SetCap(ctx, msg.Owner, msg.PoolID, capAmount)
	if err != nil {
		return nil, err
	}
	return &types.MsgSetCapResponse{Deployed: deployed}, nil
}

// TransferOwnership handles MsgTransferOwnership
func (m *MsgServer) TransferOwnership(ctx context.Context, msg *types.MsgTransferOwnership) (*types.MsgTransferOwnershipResponse, error) {
	if err := m.keeper.TransferOwnership(ctx, msg.Owner, msg.PoolID, msg.NewOwner); err != nil {
		return nil, err
	}
	return &types.MsgTransferOwnershipResponse{}, nil
}

// ResetPool handles MsgResetPool
func (m *MsgServer) ResetPool(ctx context.Context, msg *types.MsgResetPool) (*types.MsgResetPoolResponse, error) {
	refunded, holders, err := m.keeper.ResetPool(ctx, msg.Owner, msg.PoolID)
	if err != nil {
		return nil, err
	}
	return &types.MsgResetPoolResponse{
		Refunded:    refunded.String(),
		HoldersPaid: holders,
	}, nil
}
