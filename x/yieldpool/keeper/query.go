package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/hifi/x/yieldpool/types"
)

// Queries below value pools at the block time without persisting anything.

// PoolView returns the pool as it would look if refreshed now
func (k *Keeper) PoolView(ctx sdk.Context, poolID string) (*types.Pool, error) {
	return k.previewPool(ctx, poolID)
}

// PreviewWithdraw returns the payout shares would receive now
func (k *Keeper) PreviewWithdraw(ctx sdk.Context, poolID string, shares math.Int) (math.Int, error) {
	pool, err := k.previewPool(ctx, poolID)
	if err != nil {
		return math.ZeroInt(), err
	}
	if pool.Phase == types.PhaseCollecting {
		if pool.TotalShares.IsZero() {
			return math.ZeroInt(), nil
		}
		return shares.Mul(pool.TotalDeposits).Quo(pool.TotalShares), nil
	}
	return pool.ValueForShares(shares), nil
}

// TotalAssets returns the pool's current value
func (k *Keeper) TotalAssets(ctx sdk.Context, poolID string) (math.Int, error) {
	pool, err := k.previewPool(ctx, poolID)
	if err != nil {
		return math.ZeroInt(), err
	}
	return pool.TotalAssets(), nil
}

// CurrentPnL returns the pool's accumulated PnL as of now
func (k *Keeper) CurrentPnL(ctx sdk.Context, poolID string) (math.Int, error) {
	pool, err := k.previewPool(ctx, poolID)
	if err != nil {
		return math.ZeroInt(), err
	}
	if pool.Phase == types.PhaseCollecting {
		return math.ZeroInt(), nil
	}
	return pool.AccumulatedPnL, nil
}

// IsWithdrawOpen reports whether the pool accepts withdrawals now
func (k *Keeper) IsWithdrawOpen(ctx sdk.Context, poolID string) (bool, error) {
	pool, err := k.previewPool(ctx, poolID)
	if err != nil {
		return false, err
	}
	return types.IsWithdrawOpen(pool.Phase, pool.DeployedAtTime, ctx.BlockTime().Unix(), pool.Params), nil
}

// GetRiskMetrics summarises a pool's risk profile as of now
func (k *Keeper) GetRiskMetrics(ctx sdk.Context, poolID string) (*types.RiskMetrics, error) {
	pool, err := k.previewPool(ctx, poolID)
	if err != nil {
		return nil, err
	}
	now := ctx.BlockTime().Unix()

	metrics := &types.RiskMetrics{
		PoolID:         pool.PoolID,
		Tier:           pool.Tier,
		Phase:          pool.Phase,
		VolatilityBps:  pool.Params.VolatilityBps(pool.VolatilityAmplifierBps),
		PnLBps:         pool.PnLBps(),
		PnLPercent:     math.LegacyNewDec(pool.PnLBps()).QuoInt64(100),
		FloorPnL:       pool.FloorPnL(),
		Liquidatable:   pool.Params.LiquidationEnabled,
		WithdrawOpen:   types.IsWithdrawOpen(pool.Phase, pool.DeployedAtTime, now, pool.Params),
		NextWindowOpen: types.NextWindowOpen(pool.Phase, pool.DeployedAtTime, now, pool.Params),
	}
	if pool.Phase.IsLive() {
		metrics.TimeInMarket = now - pool.DeployedAtTime
	}
	if pool.Params.SentimentEnabled {
		metrics.Sentiment = pool.Sentiment
	}
	return metrics, nil
}

// UserPosition returns owner's shares in a pool and what they are worth now
func (k *Keeper) UserPosition(ctx sdk.Context, poolID, owner string) (math.Int, math.Int, error) {
	shares := k.GetShares(ctx, poolID, owner)
	value, err := k.PreviewWithdraw(ctx, poolID, shares)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}
	return shares, value, nil
}
