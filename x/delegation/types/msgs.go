package types

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// MsgServer is the delegation message service
type MsgServer interface {
	GrantPermission(context.Context, *MsgGrantPermission) (*MsgGrantPermissionResponse, error)
	RevokePermission(context.Context, *MsgRevokePermission) (*MsgRevokePermissionResponse, error)
	RevokeAllPermissions(context.Context, *MsgRevokeAllPermissions) (*MsgRevokeAllPermissionsResponse, error)
	ExtendPermission(context.Context, *MsgExtendPermission) (*MsgExtendPermissionResponse, error)
	ExecuteWithdrawal(context.Context, *MsgExecuteWithdrawal) (*MsgExecuteResponse, error)
	ExecuteStopLoss(context.Context, *MsgExecuteStopLoss) (*MsgExecuteResponse, error)
	AddOperator(context.Context, *MsgAddOperator) (*MsgOperatorResponse, error)
	RemoveOperator(context.Context, *MsgRemoveOperator) (*MsgOperatorResponse, error)
	SetPaused(context.Context, *MsgSetPaused) (*MsgParamsResponse, error)
	SetMaxPermissionDuration(context.Context, *MsgSetMaxPermissionDuration) (*MsgParamsResponse, error)
	TransferRegistryOwnership(context.Context, *MsgTransferRegistryOwnership) (*MsgParamsResponse, error)
}

func validateAddress(field, addr string) error {
	if _, err := sdk.AccAddressFromBech32(addr); err != nil {
		return errorsmod.Wrapf(ErrInvalidAddress, "%s: %s", field, err)
	}
	return nil
}

// MsgGrantPermission creates or overwrites a grant
type MsgGrantPermission struct {
	Grantor         string `json:"grantor"`
	PoolID          string `json:"pool_id"`
	Capability      string `json:"capability"`
	DurationSeconds int64  `json:"duration_seconds"` // 0 = registry maximum
	MaxAmount       string `json:"max_amount"`       // shares, empty or 0 = unlimited
	ThresholdBps    uint64 `json:"threshold_bps"`
	MaxUses         uint64 `json:"max_uses"` // 0 = unlimited
}

// ValidateBasic performs stateless checks
func (msg MsgGrantPermission) ValidateBasic() error {
	if err := validateAddress("grantor", msg.Grantor); err != nil {
		return err
	}
	if msg.PoolID == "" {
		return ErrPoolNotFound
	}
	if _, err := ParseCapability(msg.Capability); err != nil {
		return err
	}
	if msg.DurationSeconds < 0 {
		return errorsmod.Wrap(ErrInvalidParams, "negative duration")
	}
	return nil
}

// MsgGrantPermissionResponse is the GrantPermission response
type MsgGrantPermissionResponse struct {
	ExpiresAt int64 `json:"expires_at"`
}

// MsgRevokePermission disables one grant
type MsgRevokePermission struct {
	Grantor    string `json:"grantor"`
	PoolID     string `json:"pool_id"`
	Capability string `json:"capability"`
}

// ValidateBasic performs stateless checks
func (msg MsgRevokePermission) ValidateBasic() error {
	if err := validateAddress("grantor", msg.Grantor); err != nil {
		return err
	}
	_, err := ParseCapability(msg.Capability)
	return err
}

// MsgRevokePermissionResponse is the RevokePermission response
type MsgRevokePermissionResponse struct{}

// MsgRevokeAllPermissions disables every grant the grantor ever made
type MsgRevokeAllPermissions struct {
	Grantor string `json:"grantor"`
}

// ValidateBasic performs stateless checks
func (msg MsgRevokeAllPermissions) ValidateBasic() error {
	return validateAddress("grantor", msg.Grantor)
}

// MsgRevokeAllPermissionsResponse is the RevokeAllPermissions response
type MsgRevokeAllPermissionsResponse struct {
	Revoked int `json:"revoked"`
}

// MsgExtendPermission pushes back the expiry of a live grant
type MsgExtendPermission struct {
	Grantor      string `json:"grantor"`
	PoolID       string `json:"pool_id"`
	Capability   string `json:"capability"`
	ExtraSeconds int64  `json:"extra_seconds"`
}

// ValidateBasic performs stateless checks
func (msg MsgExtendPermission) ValidateBasic() error {
	if err := validateAddress("grantor", msg.Grantor); err != nil {
		return err
	}
	if _, err := ParseCapability(msg.Capability); err != nil {
		return err
	}
	if msg.ExtraSeconds <= 0 {
		return errorsmod.Wrap(ErrInvalidParams, "extension must be positive")
	}
	return nil
}

// MsgExtendPermissionResponse is the ExtendPermission response
type MsgExtendPermissionResponse struct {
	ExpiresAt int64 `json:"expires_at"`
}

// MsgExecuteWithdrawal withdraws shares for a grantor under a WITHDRAW grant
type MsgExecuteWithdrawal struct {
	Operator string `json:"operator"`
	Grantor  string `json:"grantor"`
	PoolID   string `json:"pool_id"`
	Shares   string `json:"shares"`
}

// ValidateBasic performs stateless checks
func (msg MsgExecuteWithdrawal) ValidateBasic() error {
	if err := validateAddress("operator", msg.Operator); err != nil {
		return err
	}
	if err := validateAddress("grantor", msg.Grantor); err != nil {
		return err
	}
	if msg.Shares == "" {
		return ErrZeroAmount
	}
	return nil
}

// MsgExecuteStopLoss withdraws a grantor's whole position under a STOP_LOSS grant
type MsgExecuteStopLoss struct {
	Operator string `json:"operator"`
	Grantor  string `json:"grantor"`
	PoolID   string `json:"pool_id"`
}

// ValidateBasic performs stateless checks
func (msg MsgExecuteStopLoss) ValidateBasic() error {
	if err := validateAddress("operator", msg.Operator); err != nil {
		return err
	}
	return validateAddress("grantor", msg.Grantor)
}

// MsgExecuteResponse is the response to both delegated executions
type MsgExecuteResponse struct {
	RecordID  string `json:"record_id"`
	Succeeded bool   `json:"succeeded"`
	Shares    string `json:"shares"`
	Payout    string `json:"payout"`
	Reason    string `json:"reason,omitempty"`
}

// MsgAddOperator registers an operator (registry owner only)
type MsgAddOperator struct {
	Owner    string `json:"owner"`
	Operator string `json:"operator"`
}

// ValidateBasic performs stateless checks
func (msg MsgAddOperator) ValidateBasic() error {
	if err := validateAddress("owner", msg.Owner); err != nil {
		return err
	}
	return validateAddress("operator", msg.Operator)
}

// MsgRemoveOperator deregisters an operator (registry owner only)
type MsgRemoveOperator struct {
	Owner    string `json:"owner"`
	Operator string `json:"operator"`
}

// ValidateBasic performs stateless checks
func (msg MsgRemoveOperator) ValidateBasic() error {
	if err := validateAddress("owner", msg.Owner); err != nil {
		return err
	}
	return validateAddress("operator", msg.Operator)
}

// MsgOperatorResponse is the response to operator registry changes
type MsgOperatorResponse struct{}

// MsgSetPaused pauses or resumes grants and executions (registry owner only)
type MsgSetPaused struct {
	Owner  string `json:"owner"`
	Paused bool   `json:"paused"`
}

// ValidateBasic performs stateless checks
func (msg MsgSetPaused) ValidateBasic() error {
	return validateAddress("owner", msg.Owner)
}

// MsgSetMaxPermissionDuration changes the grant duration ceiling (registry owner only)
type MsgSetMaxPermissionDuration struct {
	Owner   string `json:"owner"`
	Seconds int64  `json:"seconds"`
}

// ValidateBasic performs stateless checks
func (msg MsgSetMaxPermissionDuration) ValidateBasic() error {
	if err := validateAddress("owner", msg.Owner); err != nil {
		return err
	}
	if msg.Seconds <= 0 {
		return errorsmod.Wrap(ErrInvalidParams, "duration must be positive")
	}
	return nil
}

// MsgTransferRegistryOwnership hands the registry to a new owner
type MsgTransferRegistryOwnership struct {
	Owner    string `json:"owner"`
	NewOwner string `json:"new_owner"`
}

// ValidateBasic performs stateless checks
func (msg MsgTransferRegistryOwnership) ValidateBasic() error {
	if err := validateAddress("owner", msg.Owner); err != nil {
		return err
	}
	return validateAddress("new_owner", msg.NewOwner)
}

// MsgParamsResponse returns the registry params after an owner change
type MsgParamsResponse struct {
	Params Params `json:"params"`
}
