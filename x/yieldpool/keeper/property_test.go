package keeper

import (
	"testing"
	"time"

	"cosmossdk.io/math"
	"pgregory.net/rapid"

	"github.com/openalpha/hifi/x/yieldpool/types"
)

// Share balances always sum to the pool total, whatever sequence of deposits,
// block advances and withdrawals runs against it.
func TestSharesAreConserved(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := setupKeeper(rt)
		params := types.BalancedParams()
		params.WithdrawDelaySeconds = 0
		params.WithdrawWindowSeconds = 0
		capAmount := rapid.Int64Range(10, 1_000_000).Draw(rt, "cap")
		f.createPool(rt, "p1", capAmount, params)
		users := []string{alice, bob, carol}

		steps := rapid.IntRange(1, 30).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			user := rapid.SampledFrom(users).Draw(rt, "user")
			pool := f.keeper.GetPool(f.ctx, "p1")

			switch {
			case pool.Phase == types.PhaseCollecting:
				room := pool.Cap.Sub(pool.TotalDeposits).Int64()
				amount := rapid.Int64Range(1, room).Draw(rt, "amount")
				f.deposit(rt, user, "p1", amount)
			case rapid.Bool().Draw(rt, "advance"):
				f.advance(time.Duration(rapid.IntRange(0, 600).Draw(rt, "seconds")) * time.Second)
				if err := f.keeper.EndBlocker(f.ctx); err != nil {
					rt.Fatalf("end blocker: %v", err)
				}
			default:
				held := f.keeper.GetShares(f.ctx, "p1", user)
				if held.IsZero() {
					continue
				}
				shares := math.NewInt(rapid.Int64Range(1, held.Int64()).Draw(rt, "shares"))
				if _, err := f.keeper.Withdraw(f.ctx, user, "p1", shares); err != nil {
					rt.Fatalf("withdraw: %v", err)
				}
			}

			pool = f.keeper.GetPool(f.ctx, "p1")
			sum := math.ZeroInt()
			for _, acct := range f.keeper.GetPoolAccounts(f.ctx, "p1") {
				if !acct.Shares.IsPositive() {
					rt.Fatalf("non-positive share account %s", acct.Owner)
				}
				sum = sum.Add(acct.Shares)
			}
			if !sum.Equal(pool.TotalShares) {
				rt.Fatalf("accounts hold %s, pool records %s", sum, pool.TotalShares)
			}
			if pool.AccumulatedPnL.LT(pool.FloorPnL()) {
				rt.Fatalf("pnl %s below floor %s", pool.AccumulatedPnL, pool.FloorPnL())
			}
		}
	})
}
