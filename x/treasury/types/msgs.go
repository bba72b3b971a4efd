package types

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// MsgServer is the treasury message service
type MsgServer interface {
	FundTreasury(context.Context, *MsgFundTreasury) (*MsgFundTreasuryResponse, error)
}

// MsgFundTreasury moves coins from the depositor into the treasury
type MsgFundTreasury struct {
	Depositor string `json:"depositor"`
	Amount    string `json:"amount"`
}

// ValidateBasic performs stateless checks
func (msg MsgFundTreasury) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Depositor); err != nil {
		return errorsmod.Wrapf(ErrInvalidAddress, "depositor: %s", err)
	}
	amount, ok := math.NewIntFromString(msg.Amount)
	if !ok || !amount.IsPositive() {
		return ErrZeroAmount.Wrapf("amount %q", msg.Amount)
	}
	return nil
}

// MsgFundTreasuryResponse is the FundTreasury response
type MsgFundTreasuryResponse struct {
	Balance string `json:"balance"`
}
