package keeper

import (
	"errors"
	"testing"

	"cosmossdk.io/math"
	"pgregory.net/rapid"

	"github.com/openalpha/hifi/x/delegation/types"
)

// Every execution that gets past its checks spends exactly one use and
// leaves exactly one record, whether or not the withdrawal went through.
func TestUsageMatchesRecords(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := setupKeeper(rt)
		f.pool.setShares(f.ctx, "p1", alice, 1_000)
		maxUses := rapid.Uint64Range(0, 10).Draw(rt, "maxUses")
		f.grant(rt, alice, "p1", types.CapabilityWithdraw, 0, maxUses)

		steps := rapid.IntRange(1, 20).Draw(rt, "steps")
		succeeded := 0
		for i := 0; i < steps; i++ {
			f.pool.fail = rapid.Bool().Draw(rt, "fail")
			shares := math.NewInt(rapid.Int64Range(1, 20).Draw(rt, "shares"))
			before := f.pool.GetShares(f.ctx, "p1", alice)

			res, err := f.keeper.ExecuteWithdrawal(f.ctx, agent, alice, "p1", shares)
			switch {
			case errors.Is(err, types.ErrPermissionExhausted), errors.Is(err, types.ErrInsufficientShares):
				continue
			case err != nil:
				rt.Fatalf("unexpected error: %v", err)
			}

			after := f.pool.GetShares(f.ctx, "p1", alice)
			if res.Succeeded {
				succeeded++
				if !before.Sub(after).Equal(shares) {
					rt.Fatalf("burnt %s, asked %s", before.Sub(after), shares)
				}
			} else if !before.Equal(after) {
				rt.Fatalf("failed execution moved shares %s -> %s", before, after)
			}
		}

		grant := f.keeper.GetPermission(f.ctx, alice, "p1", types.CapabilityWithdraw)
		records := f.keeper.GetUserActionHistory(f.ctx, alice, 0)
		if grant.UsedCount != uint64(len(records)) {
			rt.Fatalf("used %d, recorded %d", grant.UsedCount, len(records))
		}
		if op := f.keeper.GetOperator(f.ctx, agent); op.ActionCount != grant.UsedCount {
			rt.Fatalf("operator actions %d, grant uses %d", op.ActionCount, grant.UsedCount)
		}
		if maxUses != 0 && grant.UsedCount > maxUses {
			rt.Fatalf("used %d past cap %d", grant.UsedCount, maxUses)
		}
		n := 0
		for _, r := range records {
			if r.Succeeded {
				n++
			}
		}
		if n != succeeded {
			rt.Fatalf("%d successful records, %d successful executions", n, succeeded)
		}
	})
}
