package keeper

import (
	"context"
	"strconv"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/hifi/x/yieldpool/types"
)

// DeployToStrategy deploys a collecting pool whose cap has been reached.
// Anyone may call it; it exists as a fallback for the automatic deployment
// that normally happens on the cap-filling deposit.
func (k *Keeper) DeployToStrategy(ctx context.Context, caller, poolID string) (*types.Pool, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	pool := k.GetPool(sdkCtx, poolID)
	if pool == nil {
		return nil, types.ErrPoolNotFound.Wrap(poolID)
	}
	if pool.Phase != types.PhaseCollecting {
		return nil, types.ErrInvalidState.Wrapf("pool %s is %s", poolID, pool.Phase)
	}
	if !pool.TotalDeposits.IsPositive() || !pool.IsCapReached() {
		return nil, types.ErrCapNotReached.Wrapf("deposits %s of cap %s", pool.TotalDeposits, pool.Cap)
	}

	if err := k.deploy(sdkCtx, pool); err != nil {
		return nil, err
	}
	k.SetPool(sdkCtx, pool)

	k.logger.Info("Pool deployed by caller", "pool_id", poolID, "caller", caller)
	return pool, nil
}

// deploy moves a collecting pool into the deployed phase. The caller persists
// the pool.
func (k *Keeper) deploy(ctx sdk.Context, pool *types.Pool) error {
	now := ctx.BlockTime().Unix()
	principal := pool.TotalDeposits

	if pool.Strategy == types.StrategyVenue {
		if k.venueKeeper == nil {
			return types.ErrVenueUnavailable.Wrap(pool.PoolID)
		}
		if err := k.venueKeeper.Deposit(ctx, pool.PoolID, principal); err != nil {
			return types.ErrTransferFailed.Wrapf("venue deposit: %s", err)
		}
		pool.Reserves = pool.Reserves.Sub(principal)
	}

	pool.Phase = types.PhaseDeployed
	pool.DeployedPrincipal = principal
	pool.AccumulatedPnL = math.ZeroInt()
	pool.DeployedAtTime = now
	pool.LastUpdateTime = now
	pool.SentimentUpdatedAt = now
	pool.LastCrashCheck = now
	pool.Sentiment = types.SentimentNeutral
	pool.VolatilityAmplifierBps = 0
	pool.LiquidatedAt = 0
	pool.VolatilitySeed = types.DeploySeed(pool.VolatilitySeed, now, k.entropyFor(ctx))
	pool.Phase = types.WindowPhase(pool, now)
	pool.UpdatedAt = now

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeDeploy,
			sdk.NewAttribute(types.AttributeKeyPoolID, pool.PoolID),
			sdk.NewAttribute(types.AttributeKeyPrincipal, principal.String()),
			sdk.NewAttribute(types.AttributeKeyCycle, strconv.FormatUint(pool.Cycle, 10)),
		),
	)

	k.logger.Info("Pool deployed",
		"pool_id", pool.PoolID,
		"tier", pool.Tier,
		"principal", principal.String(),
		"cycle", pool.Cycle,
	)
	return nil
}
