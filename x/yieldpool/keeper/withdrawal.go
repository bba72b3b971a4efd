package keeper

import (
	"context"
	"strconv"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/hifi/x/yieldpool/types"
)

// Withdraw burns shares owned by owner and pays out their current value
func (k *Keeper) Withdraw(ctx context.Context, owner, poolID string, shares math.Int) (*types.WithdrawResult, error) {
	return k.withdraw(sdk.UnwrapSDKContext(ctx), owner, poolID, shares)
}

// WithdrawAll withdraws owner's entire position
func (k *Keeper) WithdrawAll(ctx context.Context, owner, poolID string) (*types.WithdrawResult, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if k.GetPool(sdkCtx, poolID) == nil {
		return nil, types.ErrPoolNotFound.Wrap(poolID)
	}
	return k.withdraw(sdkCtx, owner, poolID, k.GetShares(sdkCtx, poolID, owner))
}

// WithdrawFor withdraws on behalf of grantor; the payout goes to grantor.
// Authorization is the caller's responsibility.
func (k *Keeper) WithdrawFor(ctx sdk.Context, grantor, poolID string, shares math.Int) (*types.WithdrawResult, error) {
	return k.withdraw(ctx, grantor, poolID, shares)
}

func (k *Keeper) withdraw(ctx sdk.Context, owner, poolID string, shares math.Int) (*types.WithdrawResult, error) {
	if shares.IsNil() || !shares.IsPositive() {
		return nil, types.ErrZeroShares
	}

	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return nil, types.ErrPoolNotFound.Wrap(poolID)
	}
	if pool.Phase == types.PhaseCollecting {
		return nil, types.ErrInvalidState.Wrapf("pool %s is collecting", poolID)
	}

	k.refresh(ctx, pool)

	now := ctx.BlockTime().Unix()
	if !types.IsWithdrawOpen(pool.Phase, pool.DeployedAtTime, now, pool.Params) {
		return nil, types.ErrWindowClosed.Wrapf("next window opens at %d",
			types.NextWindowOpen(pool.Phase, pool.DeployedAtTime, now, pool.Params))
	}
	if balance := k.GetShares(ctx, poolID, owner); balance.LT(shares) {
		return nil, types.ErrInsufficientShares.Wrapf("have %s, need %s", balance, shares)
	}

	// Split the payout so the value of the remaining shares is unchanged
	payout := pool.ValueForShares(shares)
	principalReduction := pool.DeployedPrincipal.Mul(shares).Quo(pool.TotalShares)
	pnlReduction := payout.Sub(principalReduction)

	funded, err := k.coverPayout(ctx, pool, payout)
	if err != nil {
		return nil, err
	}
	if err := k.burnShares(ctx, pool, owner, shares); err != nil {
		return nil, err
	}
	if err := k.pay(ctx, pool, owner, payout); err != nil {
		return nil, err
	}

	pool.DeployedPrincipal = pool.DeployedPrincipal.Sub(principalReduction)
	pool.AccumulatedPnL = pool.AccumulatedPnL.Sub(pnlReduction)
	pool.Reserves = pool.Reserves.Sub(payout)
	pool.UpdatedAt = now

	result := &types.WithdrawResult{
		PoolID:      poolID,
		Owner:       owner,
		SharesBurnt: shares,
		Payout:      payout,
		Funded:      funded,
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeWithdraw,
			sdk.NewAttribute(types.AttributeKeyPoolID, poolID),
			sdk.NewAttribute(types.AttributeKeyOwner, owner),
			sdk.NewAttribute(types.AttributeKeyShares, shares.String()),
			sdk.NewAttribute(types.AttributeKeyPayout, payout.String()),
		),
	)

	if pool.TotalShares.IsZero() {
		if err := k.resetPool(ctx, pool); err != nil {
			return nil, err
		}
		result.PoolReset = true
	}

	k.SetPool(ctx, pool)
	k.recordNAV(ctx, pool)

	k.logger.Info("Withdrawal processed",
		"pool_id", poolID,
		"owner", owner,
		"shares", shares.String(),
		"payout", payout.String(),
		"funded", funded.String(),
		"pool_reset", result.PoolReset,
	)

	return result, nil
}

// resetPool returns a fully withdrawn pool to collecting with its seed state
// cleared
func (k *Keeper) resetPool(ctx sdk.Context, pool *types.Pool) error {
	if err := k.sweepReserves(ctx, pool); err != nil {
		return err
	}

	pool.Phase = types.PhaseCollecting
	pool.TotalDeposits = math.ZeroInt()
	pool.DeployedPrincipal = math.ZeroInt()
	pool.AccumulatedPnL = math.ZeroInt()
	pool.VolatilityAmplifierBps = 0
	pool.VolatilitySeed = types.InitialSeed(pool.PoolID)
	pool.Sentiment = types.SentimentNeutral
	pool.DeployedAtTime = 0
	pool.LastUpdateTime = ctx.BlockTime().Unix()
	pool.LiquidatedAt = 0
	pool.Cycle++

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeReset,
			sdk.NewAttribute(types.AttributeKeyPoolID, pool.PoolID),
			sdk.NewAttribute(types.AttributeKeyCycle, strconv.FormatUint(pool.Cycle, 10)),
		),
	)

	k.logger.Info("Pool reset to collecting", "pool_id", pool.PoolID, "cycle", pool.Cycle)
	return nil
}
