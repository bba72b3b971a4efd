package keeper

import (
	"strconv"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/hifi/x/yieldpool/types"
)

// advance runs the risk engine on pool up to the block time and updates the
// window phase. It mutates pool in memory only.
func (k *Keeper) advance(ctx sdk.Context, pool *types.Pool) types.RiskOutcome {
	now := ctx.BlockTime().Unix()

	var out types.RiskOutcome
	if pool.Strategy == types.StrategyVenue {
		out = k.advanceVenue(ctx, pool, now)
	} else {
		var next types.Pool
		next, out = types.AdvanceRisk(*pool, now, k.entropyFor(ctx))
		*pool = next
	}
	pool.Phase = types.WindowPhase(pool, now)
	return out
}

// advanceVenue marks a venue pool to the venue's reported balance
func (k *Keeper) advanceVenue(ctx sdk.Context, pool *types.Pool, now int64) types.RiskOutcome {
	out := types.RiskOutcome{Delta: math.ZeroInt(), CrashLoss: math.ZeroInt()}
	if k.venueKeeper == nil || !pool.Phase.IsLive() || pool.Phase == types.PhaseLiquidated {
		return out
	}
	held := k.venueKeeper.BalanceOf(ctx, pool.PoolID).Add(pool.Reserves)
	pnl := held.Sub(pool.DeployedPrincipal)
	out.Delta = pnl.Sub(pool.AccumulatedPnL)
	pool.AccumulatedPnL = pnl
	pool.LastUpdateTime = now
	return out
}

// refresh advances pool, emits events for anything notable and logs it.
// The caller persists the pool.
func (k *Keeper) refresh(ctx sdk.Context, pool *types.Pool) types.RiskOutcome {
	phaseBefore := pool.Phase
	out := k.advance(ctx, pool)

	if out.Crashed {
		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeCrash,
				sdk.NewAttribute(types.AttributeKeyPoolID, pool.PoolID),
				sdk.NewAttribute(types.AttributeKeyAmount, out.CrashLoss.String()),
			),
		)
		k.logger.Info("Crash event applied", "pool_id", pool.PoolID, "loss", out.CrashLoss.String())
	}

	if out.Liquidated {
		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeLiquidated,
				sdk.NewAttribute(types.AttributeKeyPoolID, pool.PoolID),
				sdk.NewAttribute(types.AttributeKeyPnL, pool.AccumulatedPnL.String()),
				sdk.NewAttribute(types.AttributeKeyPrincipal, pool.DeployedPrincipal.String()),
			),
		)
		k.logger.Warn("Pool liquidated at loss floor",
			"pool_id", pool.PoolID,
			"principal", pool.DeployedPrincipal.String(),
			"pnl", pool.AccumulatedPnL.String(),
		)
	} else if pool.Phase != phaseBefore {
		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeWindowChange,
				sdk.NewAttribute(types.AttributeKeyPoolID, pool.PoolID),
				sdk.NewAttribute(types.AttributeKeyPhase, string(pool.Phase)),
			),
		)
	}

	if out.Periods > 0 {
		pool.UpdatedAt = ctx.BlockTime().Unix()
		k.logger.Debug("Pool PnL refreshed",
			"pool_id", pool.PoolID,
			"periods", strconv.FormatInt(out.Periods, 10),
			"rate_ppm", out.RatePPM,
			"delta", out.Delta.String(),
			"pnl", pool.AccumulatedPnL.String(),
		)
	}
	return out
}

// RefreshPool brings a pool's PnL up to the block time and persists it
func (k *Keeper) RefreshPool(ctx sdk.Context, poolID string) (*types.Pool, types.RiskOutcome, error) {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return nil, types.RiskOutcome{}, types.ErrPoolNotFound.Wrap(poolID)
	}
	out := k.refresh(ctx, pool)
	k.SetPool(ctx, pool)
	if out.Changed() {
		k.recordNAV(ctx, pool)
	}
	return pool, out, nil
}

// previewPool returns a copy of the pool advanced to the block time without
// touching state.
func (k *Keeper) previewPool(ctx sdk.Context, poolID string) (*types.Pool, error) {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return nil, types.ErrPoolNotFound.Wrap(poolID)
	}
	k.advance(ctx, pool)
	return pool, nil
}
