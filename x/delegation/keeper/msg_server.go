package keeper

import (
	"context"

	"cosmossdk.io/math"
	"github.com/openalpha/hifi/x/delegation/types"
)

var _ types.MsgServer = (*MsgServer)(nil)

// MsgServer defines the delegation MsgServer
type MsgServer struct {
	keeper *Keeper
}

// NewMsgServerImpl creates a new MsgServer instance
func NewMsgServerImpl(keeper *Keeper) *MsgServer {
	return &MsgServer{keeper: keeper}
}

func parseShares(field, s string) (math.Int, error) {
	if s == "" {
		return math.ZeroInt(), nil
	}
	v, ok := math.NewIntFromString(s)
	if !ok {
		return math.Int{}, types.ErrInvalidParams.Wrapf("invalid %s %q", field, s)
	}
	return v, nil
}

func executeResponse(res *types.ExecutionResult) *types.MsgExecuteResponse {
	return &types.MsgExecuteResponse{
		RecordID:  res.RecordID,
		Succeeded: res.Succeeded,
		Shares:    res.SharesBurnt.String(),
		Payout:    res.Payout.String(),
		Reason:    res.Reason,
	}
}

// GrantPermission handles MsgGrantPermission
func (m *MsgServer) GrantPermission(ctx context.Context, msg *types.MsgGrantPermission) (*types.MsgGrantPermissionResponse, error) {
	capability, err := types.ParseCapability(msg.Capability)
	if err != nil {
		return nil, err
	}
	maxAmount, err := parseShares("max_amount", msg.MaxAmount)
	if err != nil {
		return nil, err
	}
	grant, err := m.keeper.GrantPermission(ctx, GrantRequest{
		Grantor:         msg.Grantor,
		PoolID:          msg.PoolID,
		Capability:      capability,
		DurationSeconds: msg.DurationSeconds,
		MaxAmount:       maxAmount,
		ThresholdBps:    msg.ThresholdBps,
		MaxUses:         msg.MaxUses,
	})
	if err != nil {
		return nil, err
	}
	return &types.MsgGrantPermissionResponse{ExpiresAt: grant.ExpiresAt}, nil
}

// RevokePermission handles MsgRevokePermission
func (m *MsgServer) RevokePermission(ctx context.Context, msg *types.MsgRevokePermission) (*types.MsgRevokePermissionResponse, error) {
	capability, err := types.ParseCapability(msg.Capability)
	if err != nil {
		return nil, err
	}
	if err := m.keeper.RevokePermission(ctx, msg.Grantor, msg.PoolID, capability); err != nil {
		return nil, err
	}
	return &types.MsgRevokePermissionResponse{}, nil
}

// RevokeAllPermissions handles MsgRevokeAllPermissions
func (m *MsgServer) RevokeAllPermissions(ctx context.Context, msg *types.MsgRevokeAllPermissions) (*types.MsgRevokeAllPermissionsResponse, error) {
	return &types.MsgRevokeAllPermissionsResponse{
		Revoked: m.keeper.RevokeAllPermissions(ctx, msg.Grantor),
	}, nil
}

// ExtendPermission handles MsgExtendPermission
func (m *MsgServer) ExtendPermission(ctx context.Context, msg *types.MsgExtendPermission) (*types.MsgExtendPermissionResponse, error) {
	capability, err := types.ParseCapability(msg.Capability)
	if err != nil {
		return nil, err
	}
	grant, err := m.keeper.ExtendPermission(ctx, msg.Grantor, msg.PoolID, capability, msg.ExtraSeconds)
	if err != nil {
		return nil, err
	}
	return &types.MsgExtendPermissionResponse{ExpiresAt: grant.ExpiresAt}, nil
}

// ExecuteWithdrawal handles MsgExecuteWithdrawal
func (m *MsgServer) ExecuteWithdrawal(ctx context.Context, msg *types.MsgExecuteWithdrawal) (*types.MsgExecuteResponse, error) {
	shares, err := parseShares("shares", msg.Shares)
	if err != nil {
		return nil, err
	}
	res, err := m.keeper.ExecuteWithdrawal(ctx, msg.Operator, msg.Grantor, msg.PoolID, shares)
	if err != nil {
		return nil, err
	}
	return executeResponse(res), nil
}

// ExecuteStopLoss handles MsgExecuteStopLoss
func (m *MsgServer) ExecuteStopLoss(ctx context.Context, msg *types.MsgExecuteStopLoss) (*types.MsgExecuteResponse, error) {
	res, err := m.keeper.ExecuteStopLoss(ctx, msg.Operator, msg.Grantor, msg.PoolID)
	if err != nil {
		return nil, err
	}
	return executeResponse(res), nil
}

// AddOperator handles MsgAddOperator
func (m *MsgServer) AddOperator(ctx context.Context, msg *types.MsgAddOperator) (*types.MsgOperatorResponse, error) {
	if err := m.keeper.AddAgentOperator(ctx, msg.Owner, msg.Operator); err != nil {
		return nil, err
	}
	return &types.MsgOperatorResponse{}, nil
}

// RemoveOperator handles MsgRemoveOperator
func (m *MsgServer) RemoveOperator(ctx context.Context, msg *types.MsgRemoveOperator) (*types.MsgOperatorResponse, error) {
	if err := m.keeper.RemoveAgentOperator(ctx, msg.Owner, msg.Operator); err != nil {
		return nil, err
	}
	return &types.MsgOperatorResponse{}, nil
}

// SetPaused handles MsgSetPaused
func (m *MsgServer) SetPaused(ctx context.Context, msg *types.MsgSetPaused) (*types.MsgParamsResponse, error) {
	params, err := m.keeper.SetPaused(ctx, msg.Owner, msg.Paused)
	if err != nil {
		return nil, err
	}
	return &types.MsgParamsResponse{Params: params}, nil
}

// SetMaxPermissionDuration handles MsgSetMaxPermissionDuration
func (m *MsgServer) SetMaxPermissionDuration(ctx context.Context, msg *types.MsgSetMaxPermissionDuration) (*types.MsgParamsResponse, error) {
	params, err := m.keeper.SetMaxPermissionDuration(ctx, msg.Owner, msg.Seconds)
	if err != nil {
		return nil, err
	}
	return &types.MsgParamsResponse{Params: params}, nil
}

// TransferRegistryOwnership handles MsgTransferRegistryOwnership
func (m *MsgServer) TransferRegistryOwnership(ctx context.Context, msg *types.MsgTransferRegistryOwnership) (*types.MsgParamsResponse, error) {
	params, err := m.keeper.TransferRegistryOwnership(ctx, msg.Owner, msg.NewOwner)
	if err != nil {
		return nil, err
	}
	return &types.MsgParamsResponse{Params: params}, nil
}
