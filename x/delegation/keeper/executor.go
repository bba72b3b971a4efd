package keeper

import (
	"context"
	"strconv"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/hifi/x/delegation/types"
)

// ExecuteWithdrawal withdraws shares from grantor's position on the
// operator's request, under the grantor's WITHDRAW grant.
//
// Checks failing before the attempt return an error and change nothing. Once
// the checks pass, the grant's use and the operator's action are counted
// whatever the outcome, the withdrawal runs in a cache context, and an
// action record is appended. A failed withdrawal is reported through the
// result, not the error.
func (k *Keeper) ExecuteWithdrawal(ctx context.Context, operator, grantor, poolID string, shares math.Int) (*types.ExecutionResult, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if err := k.checkExecutor(sdkCtx, operator); err != nil {
		return nil, err
	}
	if shares.IsNil() || !shares.IsPositive() {
		return nil, types.ErrZeroAmount
	}

	grant, err := k.usableGrant(sdkCtx, grantor, poolID, types.CapabilityWithdraw)
	if err != nil {
		return nil, err
	}
	if err := k.checkPosition(sdkCtx, grantor, poolID, shares); err != nil {
		return nil, err
	}
	if grant.ExceedsAmount(shares) {
		return nil, types.ErrAmountExceeded.Wrapf("%s > %s", shares, grant.MaxAmount)
	}
	return k.execute(sdkCtx, operator, grant, shares)
}

// ExecuteStopLoss withdraws grantor's whole position under their STOP_LOSS
// grant. The per-execution amount cap does not apply.
func (k *Keeper) ExecuteStopLoss(ctx context.Context, operator, grantor, poolID string) (*types.ExecutionResult, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if err := k.checkExecutor(sdkCtx, operator); err != nil {
		return nil, err
	}

	grant, err := k.usableGrant(sdkCtx, grantor, poolID, types.CapabilityStopLoss)
	if err != nil {
		return nil, err
	}
	shares := k.poolKeeper.GetShares(sdkCtx, poolID, grantor)
	if err := k.checkPosition(sdkCtx, grantor, poolID, shares); err != nil {
		return nil, err
	}
	return k.execute(sdkCtx, operator, grant, shares)
}

func (k *Keeper) checkExecutor(ctx sdk.Context, operator string) error {
	if !k.IsOperator(ctx, operator) {
		return types.ErrNotOperator.Wrap(operator)
	}
	if k.GetParams(ctx).Paused {
		return types.ErrPaused
	}
	if k.poolKeeper == nil {
		return types.ErrPoolNotFound.Wrap("no pool keeper")
	}
	return nil
}

// usableGrant returns the grant if it can be exercised now. A grant that is
// live but used up reports exhaustion rather than invalidity.
func (k *Keeper) usableGrant(ctx sdk.Context, grantor, poolID string, capability types.Capability) (*types.Grant, error) {
	grant := k.GetPermission(ctx, grantor, poolID, capability)
	if grant == nil {
		return nil, types.ErrPermissionInvalid.Wrapf("no %s grant for %s on %s", capability, grantor, poolID)
	}
	now := ctx.BlockTime().Unix()
	if !grant.Enabled || grant.IsExpired(now) {
		return nil, types.ErrPermissionInvalid.Wrapf("%s grant for %s on %s", capability, grantor, poolID)
	}
	if grant.IsExhausted() {
		return nil, types.ErrPermissionExhausted.Wrapf("%d of %d uses spent", grant.UsedCount, grant.MaxUses)
	}
	return grant, nil
}

func (k *Keeper) checkPosition(ctx sdk.Context, grantor, poolID string, shares math.Int) error {
	if !k.poolKeeper.HasPool(ctx, poolID) {
		return types.ErrPoolNotFound.Wrap(poolID)
	}
	open, err := k.poolKeeper.IsWithdrawOpen(ctx, poolID)
	if err != nil {
		return err
	}
	if !open {
		return types.ErrWindowClosed.Wrap(poolID)
	}
	held := k.poolKeeper.GetShares(ctx, poolID, grantor)
	if shares.IsZero() || held.LT(shares) {
		return types.ErrInsufficientShares.Wrapf("have %s, need %s", held, shares)
	}
	return nil
}

// execute spends one use of the grant, attempts the withdrawal and records it
func (k *Keeper) execute(ctx sdk.Context, operator string, grant *types.Grant, shares math.Int) (*types.ExecutionResult, error) {
	grant.UsedCount++
	k.SetGrant(ctx, grant)

	op := k.GetOperator(ctx, operator)
	op.ActionCount++
	k.SetOperator(ctx, op)

	record := &types.ActionRecord{
		Grantor:     grant.Grantor,
		PoolID:      grant.PoolID,
		Capability:  grant.Capability,
		Executor:    operator,
		Amount:      shares,
		Payout:      math.ZeroInt(),
		Timestamp:   ctx.BlockTime().Unix(),
		BlockHeight: ctx.BlockHeight(),
	}

	cacheCtx, write := ctx.CacheContext()
	payout, err := k.poolKeeper.WithdrawFor(cacheCtx, grant.Grantor, grant.PoolID, shares)
	if err != nil {
		record.FailureReason = err.Error()
		k.logger.Error("delegated execution failed",
			"grantor", grant.Grantor,
			"pool_id", grant.PoolID,
			"capability", grant.Capability,
			"operator", operator,
			"error", err,
		)
	} else {
		write()
		record.Succeeded = true
		record.Payout = payout
	}
	k.appendRecord(ctx, record)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeExecution,
			sdk.NewAttribute(types.AttributeKeyRecordID, record.ID),
			sdk.NewAttribute(types.AttributeKeyGrantor, record.Grantor),
			sdk.NewAttribute(types.AttributeKeyPoolID, record.PoolID),
			sdk.NewAttribute(types.AttributeKeyCapability, string(record.Capability)),
			sdk.NewAttribute(types.AttributeKeyOperator, operator),
			sdk.NewAttribute(types.AttributeKeyShares, shares.String()),
			sdk.NewAttribute(types.AttributeKeyPayout, record.Payout.String()),
			sdk.NewAttribute(types.AttributeKeySucceeded, strconv.FormatBool(record.Succeeded)),
			sdk.NewAttribute(types.AttributeKeyReason, record.FailureReason),
		),
	)

	result := &types.ExecutionResult{
		RecordID:    record.ID,
		Succeeded:   record.Succeeded,
		SharesBurnt: math.ZeroInt(),
		Payout:      record.Payout,
		Reason:      record.FailureReason,
	}
	if record.Succeeded {
		result.SharesBurnt = shares
	}
	return result, nil
}
