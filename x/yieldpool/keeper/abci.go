package keeper

import (
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/hifi/x/yieldpool/types"
)

// EndBlocker refreshes every live pool: PnL accrues, floors and liquidation
// are enforced, and window phases follow the block time.
func (k *Keeper) EndBlocker(ctx sdk.Context) error {
	start := time.Now()

	refreshed, liquidated := 0, 0
	for _, pool := range k.GetAllPools(ctx) {
		if !pool.Phase.IsLive() {
			continue
		}
		phaseBefore := pool.Phase
		out := k.refresh(ctx, pool)
		if out.Periods == 0 && pool.Phase == phaseBefore {
			continue
		}
		k.SetPool(ctx, pool)
		if out.Changed() {
			k.recordNAV(ctx, pool)
		}
		refreshed++
		if out.Liquidated {
			liquidated++
		}
	}

	duration := time.Since(start)
	k.logger.Debug("YieldPool EndBlocker completed",
		"block", ctx.BlockHeight(),
		"duration_ms", duration.Milliseconds(),
		"pools_refreshed", refreshed,
		"pools_liquidated", liquidated,
	)

	if refreshed > 0 {
		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeEndBlock,
				sdk.NewAttribute("block_height", math.NewInt(ctx.BlockHeight()).String()),
				sdk.NewAttribute("pools_refreshed", math.NewInt(int64(refreshed)).String()),
				sdk.NewAttribute("pools_liquidated", math.NewInt(int64(liquidated)).String()),
			),
		)
	}
	return nil
}
