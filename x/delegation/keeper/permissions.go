package keeper

import (
	"context"
	"strconv"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/hifi/x/delegation/types"
)

// GrantRequest carries the terms of a new grant
type GrantRequest struct {
	Grantor         string
	PoolID          string
	Capability      types.Capability
	DurationSeconds int64 // 0 = registry maximum
	MaxAmount       math.Int
	ThresholdBps    uint64
	MaxUses         uint64
}

// GrantPermission creates or overwrites the grant for (grantor, pool,
// capability). An overwrite starts a fresh usage count.
func (k *Keeper) GrantPermission(ctx context.Context, req GrantRequest) (*types.Grant, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	params := k.GetParams(sdkCtx)
	if params.Paused {
		return nil, types.ErrPaused
	}
	if _, err := types.ParseCapability(string(req.Capability)); err != nil {
		return nil, err
	}
	if req.DurationSeconds < 0 {
		return nil, types.ErrInvalidParams.Wrap("negative duration")
	}
	duration := req.DurationSeconds
	if duration == 0 {
		duration = params.MaxPermissionDuration
	}
	if duration > params.MaxPermissionDuration {
		return nil, types.ErrDurationTooLong.Wrapf("%ds > %ds", duration, params.MaxPermissionDuration)
	}
	if k.poolKeeper != nil && !k.poolKeeper.HasPool(sdkCtx, req.PoolID) {
		return nil, types.ErrPoolNotFound.Wrap(req.PoolID)
	}

	maxAmount := req.MaxAmount
	if maxAmount.IsNil() {
		maxAmount = math.ZeroInt()
	}
	if maxAmount.IsNegative() {
		return nil, types.ErrInvalidParams.Wrap("negative max amount")
	}

	now := sdkCtx.BlockTime().Unix()
	grant := &types.Grant{
		Grantor:      req.Grantor,
		PoolID:       req.PoolID,
		Capability:   req.Capability,
		Enabled:      true,
		GrantedAt:    now,
		ExpiresAt:    now + duration,
		MaxAmount:    maxAmount,
		MaxUses:      req.MaxUses,
		ThresholdBps: req.ThresholdBps,
	}
	k.SetGrant(sdkCtx, grant)

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeGrant,
			sdk.NewAttribute(types.AttributeKeyGrantor, grant.Grantor),
			sdk.NewAttribute(types.AttributeKeyPoolID, grant.PoolID),
			sdk.NewAttribute(types.AttributeKeyCapability, string(grant.Capability)),
			sdk.NewAttribute(types.AttributeKeyExpiresAt, strconv.FormatInt(grant.ExpiresAt, 10)),
			sdk.NewAttribute(types.AttributeKeyMaxUses, strconv.FormatUint(grant.MaxUses, 10)),
		),
	)

	k.logger.Info("permission granted",
		"grantor", grant.Grantor,
		"pool_id", grant.PoolID,
		"capability", grant.Capability,
		"expires_at", grant.ExpiresAt,
	)
	return grant, nil
}

// RevokePermission disables one grant. Revocation is allowed while paused.
func (k *Keeper) RevokePermission(ctx context.Context, grantor, poolID string, capability types.Capability) error {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	grant := k.GetPermission(sdkCtx, grantor, poolID, capability)
	if grant == nil {
		return types.ErrNotGranted.Wrapf("%s/%s/%s", grantor, poolID, capability)
	}
	k.disable(sdkCtx, grant)
	return nil
}

// RevokeAllPermissions disables every enabled grant the grantor holds and
// returns how many were disabled
func (k *Keeper) RevokeAllPermissions(ctx context.Context, grantor string) int {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	revoked := 0
	for _, poolID := range k.GetUserPools(sdkCtx, grantor) {
		for _, capability := range types.AllCapabilities() {
			grant := k.GetPermission(sdkCtx, grantor, poolID, capability)
			if grant == nil || !grant.Enabled {
				continue
			}
			k.disable(sdkCtx, grant)
			revoked++
		}
	}
	return revoked
}

func (k *Keeper) disable(ctx sdk.Context, grant *types.Grant) {
	grant.Enabled = false
	k.SetGrant(ctx, grant)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeRevoke,
			sdk.NewAttribute(types.AttributeKeyGrantor, grant.Grantor),
			sdk.NewAttribute(types.AttributeKeyPoolID, grant.PoolID),
			sdk.NewAttribute(types.AttributeKeyCapability, string(grant.Capability)),
		),
	)
}

// ExtendPermission pushes an enabled, unexpired grant's expiry out by extra
// seconds. The new expiry may not pass granted_at plus the registry maximum.
// Grants that never expire are left as they are.
func (k *Keeper) ExtendPermission(ctx context.Context, grantor, poolID string, capability types.Capability, extra int64) (*types.Grant, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if extra <= 0 {
		return nil, types.ErrInvalidParams.Wrap("extension must be positive")
	}
	grant := k.GetPermission(sdkCtx, grantor, poolID, capability)
	if grant == nil {
		return nil, types.ErrNotGranted.Wrapf("%s/%s/%s", grantor, poolID, capability)
	}
	now := sdkCtx.BlockTime().Unix()
	if !grant.Enabled || grant.IsExpired(now) {
		return nil, types.ErrPermissionInvalid.Wrapf("%s/%s/%s", grantor, poolID, capability)
	}
	if grant.ExpiresAt == 0 {
		return grant, nil
	}

	params := k.GetParams(sdkCtx)
	newExpiry := grant.ExpiresAt + extra
	if limit := grant.GrantedAt + params.MaxPermissionDuration; newExpiry > limit {
		return nil, types.ErrDurationTooLong.Wrapf("expiry %d past limit %d", newExpiry, limit)
	}
	grant.ExpiresAt = newExpiry
	k.SetGrant(sdkCtx, grant)

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeExtend,
			sdk.NewAttribute(types.AttributeKeyGrantor, grant.Grantor),
			sdk.NewAttribute(types.AttributeKeyPoolID, grant.PoolID),
			sdk.NewAttribute(types.AttributeKeyCapability, string(grant.Capability)),
			sdk.NewAttribute(types.AttributeKeyExpiresAt, strconv.FormatInt(grant.ExpiresAt, 10)),
		),
	)
	return grant, nil
}

// HasValidPermission reports whether the grant exists and can be exercised now
func (k *Keeper) HasValidPermission(ctx sdk.Context, grantor, poolID string, capability types.Capability) bool {
	grant := k.GetPermission(ctx, grantor, poolID, capability)
	return grant != nil && grant.IsValid(ctx.BlockTime().Unix())
}
