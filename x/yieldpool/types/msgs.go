package types

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// MsgServer is the yieldpool message service
type MsgServer interface {
	CreatePool(context.Context, *MsgCreatePool) (*MsgCreatePoolResponse, error)
	Deposit(context.Context, *MsgDeposit) (*MsgDepositResponse, error)
	DeployToStrategy(context.Context, *MsgDeployToStrategy) (*MsgDeployToStrategyResponse, error)
	Withdraw(context.Context, *MsgWithdraw) (*MsgWithdrawResponse, error)
	WithdrawAll(context.Context, *MsgWithdrawAll) (*MsgWithdrawResponse, error)
	SetCap(context.Context, *MsgSetCap) (*MsgSetCapResponse, error)
	TransferOwnership(context.Context, *MsgTransferOwnership) (*MsgTransferOwnershipResponse, error)
	ResetPool(context.Context, *MsgResetPool) (*MsgResetPoolResponse, error)
}

func validateAddress(field, addr string) error {
	if _, err := sdk.AccAddressFromBech32(addr); err != nil {
		return errorsmod.Wrapf(ErrInvalidAddress, "%s: %s", field, err)
	}
	return nil
}

// MsgCreatePool creates a pool. Only the module authority may send it.
type MsgCreatePool struct {
	Authority string `json:"authority"`
	PoolID    string `json:"pool_id"`
	Name      string `json:"name"`
	Owner     string `json:"owner"`
	Denom     string `json:"denom"`
	Tier      string `json:"tier"`
	Strategy  string `json:"strategy,omitempty"`
	Wrapped   bool   `json:"wrapped,omitempty"`
	Cap       string `json:"cap"`
}

// ValidateBasic performs stateless checks
func (msg MsgCreatePool) ValidateBasic() error {
	if err := validateAddress("authority", msg.Authority); err != nil {
		return err
	}
	if err := validateAddress("owner", msg.Owner); err != nil {
		return err
	}
	if msg.PoolID == "" {
		return errorsmod.Wrap(ErrInvalidParams, "empty pool id")
	}
	if _, err := ParamsForTier(msg.Tier); err != nil {
		return err
	}
	return nil
}

// MsgCreatePoolResponse is the CreatePool response
type MsgCreatePoolResponse struct {
	PoolID string `json:"pool_id"`
}

// MsgDeposit deposits into a collecting pool
type MsgDeposit struct {
	Depositor string `json:"depositor"`
	PoolID    string `json:"pool_id"`
	Amount    string `json:"amount"`
}

// ValidateBasic performs stateless checks
func (msg MsgDeposit) ValidateBasic() error {
	if err := validateAddress("depositor", msg.Depositor); err != nil {
		return err
	}
	if msg.PoolID == "" {
		return ErrPoolNotFound
	}
	return nil
}

// MsgDepositResponse is the Deposit response
type MsgDepositResponse struct {
	SharesMinted string `json:"shares_minted"`
	Deployed     bool   `json:"deployed"`
}

// MsgDeployToStrategy deploys a pool whose cap has been reached. Anyone may
// send it.
type MsgDeployToStrategy struct {
	Caller string `json:"caller"`
	PoolID string `json:"pool_id"`
}

// ValidateBasic performs stateless checks
func (msg MsgDeployToStrategy) ValidateBasic() error {
	if err := validateAddress("caller", msg.Caller); err != nil {
		return err
	}
	if msg.PoolID == "" {
		return ErrPoolNotFound
	}
	return nil
}

// MsgDeployToStrategyResponse is the DeployToStrategy response
type MsgDeployToStrategyResponse struct {
	Principal  string `json:"principal"`
	DeployedAt int64  `json:"deployed_at"`
}

// MsgWithdraw burns shares for their current value
type MsgWithdraw struct {
	Owner  string `json:"owner"`
	PoolID string `json:"pool_id"`
	Shares string `json:"shares"`
}

// ValidateBasic performs stateless checks
func (msg MsgWithdraw) ValidateBasic() error {
	if err := validateAddress("owner", msg.Owner); err != nil {
		return err
	}
	if msg.PoolID == "" {
		return ErrPoolNotFound
	}
	return nil
}

// MsgWithdrawAll withdraws the sender's whole position
type MsgWithdrawAll struct {
	Owner  string `json:"owner"`
	PoolID string `json:"pool_id"`
}

// ValidateBasic performs stateless checks
func (msg MsgWithdrawAll) ValidateBasic() error {
	if err := validateAddress("owner", msg.Owner); err != nil {
		return err
	}
	if msg.PoolID == "" {
		return ErrPoolNotFound
	}
	return nil
}

// MsgWithdrawResponse is the Withdraw and WithdrawAll response
type MsgWithdrawResponse struct {
	SharesBurnt string `json:"shares_burnt"`
	Payout      string `json:"payout"`
	PoolReset   bool   `json:"pool_reset"`
}

// MsgSetCap changes the deposit cap of a collecting pool
type MsgSetCap struct {
	Owner  string `json:"owner"`
	PoolID string `json:"pool_id"`
	Cap    string `json:"cap"`
}

// ValidateBasic performs stateless checks
func (msg MsgSetCap) ValidateBasic() error {
	if err := validateAddress("owner", msg.Owner); err != nil {
		return err
	}
	if msg.PoolID == "" {
		return ErrPoolNotFound
	}
	return nil
}

// MsgSetCapResponse is the SetCap response
type MsgSetCapResponse struct {
	Deployed bool `json:"deployed"`
}

// MsgTransferOwnership hands pool administration to a new owner
type MsgTransferOwnership struct {
	Owner    string `json:"owner"`
	PoolID   string `json:"pool_id"`
	NewOwner string `json:"new_owner"`
}

// ValidateBasic performs stateless checks
func (msg MsgTransferOwnership) ValidateBasic() error {
	if err := validateAddress("owner", msg.Owner); err != nil {
		return err
	}
	return validateAddress("new_owner", msg.NewOwner)
}

// MsgTransferOwnershipResponse is the TransferOwnership response
type MsgTransferOwnershipResponse struct{}

// MsgResetPool cancels a collecting round, refunding every holder
type MsgResetPool struct {
	Owner  string `json:"owner"`
	PoolID string `json:"pool_id"`
}

// ValidateBasic performs stateless checks
func (msg MsgResetPool) ValidateBasic() error {
	if err := validateAddress("owner", msg.Owner); err != nil {
		return err
	}
	if msg.PoolID == "" {
		return ErrPoolNotFound
	}
	return nil
}

// MsgResetPoolResponse is the ResetPool response
type MsgResetPoolResponse struct {
	Refunded    string `json:"refunded"`
	HoldersPaid int    `json:"holders_paid"`
}
