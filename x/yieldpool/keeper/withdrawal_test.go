package keeper

import (
	"testing"
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/hifi/x/yieldpool/types"
)

func TestNoYieldRoundTrip(t *testing.T) {
	f := setupKeeper(t)
	params := types.StableParams()
	params.WithdrawDelaySeconds = 0
	f.createPool(t, "p1", 10, params)
	f.deposit(t, bob, "p1", 10)

	res, err := f.keeper.Withdraw(f.ctx, bob, "p1", math.NewInt(10))
	require.NoError(t, err)
	require.Equal(t, "10", res.Payout.String())
	require.True(t, res.PoolReset)
	require.Equal(t, "10", f.bank.balance(bob).String())

	pool := f.keeper.GetPool(f.ctx, "p1")
	require.Equal(t, types.PhaseCollecting, pool.Phase)
	require.True(t, pool.DeployedPrincipal.IsZero())
	require.True(t, pool.AccumulatedPnL.IsZero())
	require.Equal(t, uint64(1), pool.Cycle)
}

func TestWithdrawRejections(t *testing.T) {
	f := setupKeeper(t)
	f.createPool(t, "p1", 10, types.StableParams())
	f.deposit(t, bob, "p1", 6)

	_, err := f.keeper.Withdraw(f.ctx, bob, "p1", math.ZeroInt())
	require.ErrorIs(t, err, types.ErrZeroShares)

	_, err = f.keeper.Withdraw(f.ctx, bob, "p1", math.NewInt(1))
	require.ErrorIs(t, err, types.ErrInvalidState)

	f.deposit(t, carol, "p1", 4)

	_, err = f.keeper.Withdraw(f.ctx, bob, "p1", math.NewInt(1))
	require.ErrorIs(t, err, types.ErrWindowClosed)

	f.advance(time.Minute)

	_, err = f.keeper.Withdraw(f.ctx, bob, "p1", math.NewInt(7))
	require.ErrorIs(t, err, types.ErrInsufficientShares)

	_, err = f.keeper.Withdraw(f.ctx, bob, "missing", math.NewInt(1))
	require.ErrorIs(t, err, types.ErrPoolNotFound)
}

func TestPartialWithdrawalPreservesShareValue(t *testing.T) {
	f := setupKeeper(t)
	f.createPool(t, "p1", 1_000_000, types.StableParams())
	f.deposit(t, bob, "p1", 600_000)
	f.deposit(t, carol, "p1", 400_000)

	f.advance(10 * time.Minute) // +20 PnL

	before, err := f.keeper.PreviewWithdraw(f.ctx, "p1", math.NewInt(400_000))
	require.NoError(t, err)

	res, err := f.keeper.Withdraw(f.ctx, bob, "p1", math.NewInt(300_000))
	require.NoError(t, err)
	require.Equal(t, "300006", res.Payout.String())
	require.False(t, res.PoolReset)

	after, err := f.keeper.PreviewWithdraw(f.ctx, "p1", math.NewInt(400_000))
	require.NoError(t, err)
	require.Equal(t, before.String(), after.String())

	pool := f.keeper.GetPool(f.ctx, "p1")
	require.Equal(t, "700000", pool.DeployedPrincipal.String())
	require.Equal(t, "14", pool.AccumulatedPnL.String())
	require.Equal(t, "700000", pool.TotalShares.String())
}

func TestShortfallIsFundedByTreasury(t *testing.T) {
	f := setupKeeper(t)
	f.createPool(t, "p1", 1_000_000, types.StableParams())
	f.deposit(t, bob, "p1", 500_000)
	f.deposit(t, carol, "p1", 500_000)
	f.advance(10 * time.Minute)

	first, err := f.keeper.WithdrawAll(f.ctx, bob, "p1")
	require.NoError(t, err)
	require.Equal(t, "500010", first.Payout.String())
	require.True(t, first.Funded.IsZero())

	second, err := f.keeper.WithdrawAll(f.ctx, carol, "p1")
	require.NoError(t, err)
	require.Equal(t, "500010", second.Payout.String())
	require.Equal(t, "20", second.Funded.String())
	require.True(t, second.PoolReset)

	require.Equal(t, "20", f.treasury.funded.String())
	require.True(t, f.bank.moduleBalance(types.ModuleName, types.DefaultDenom).IsZero())
	require.Equal(t, 1, countEvents(f.ctx, types.EventTypeYieldFunded))
}

func TestWithdrawAbortsWhenTreasuryRefuses(t *testing.T) {
	f := setupKeeper(t)
	f.treasury.balance = math.ZeroInt()
	f.createPool(t, "p1", 1_000_000, types.StableParams())
	f.deposit(t, bob, "p1", 1_000_000)
	f.advance(10 * time.Minute)

	_, err := f.keeper.WithdrawAll(f.ctx, bob, "p1")
	require.ErrorIs(t, err, types.ErrFundingInsufficient)

	require.Equal(t, "1000000", f.keeper.GetShares(f.ctx, "p1", bob).String())
	require.True(t, f.bank.balance(bob).IsZero())
}

func TestResetSweepsLeftoverToTreasury(t *testing.T) {
	f := setupKeeper(t)
	params := fixedRateParams(-100)
	params.MaxLossBps = 1_000
	f.createPool(t, "p1", 1_000_000, params)
	f.deposit(t, bob, "p1", 1_000_000)
	f.advance(10 * time.Minute) // -1000

	res, err := f.keeper.WithdrawAll(f.ctx, bob, "p1")
	require.NoError(t, err)
	require.Equal(t, "999000", res.Payout.String())
	require.True(t, res.PoolReset)

	require.Equal(t, "1000", f.treasury.swept.String())
	pool := f.keeper.GetPool(f.ctx, "p1")
	require.True(t, pool.Reserves.IsZero())
	require.Equal(t, types.PhaseCollecting, pool.Phase)

	// the next round starts clean
	f.deposit(t, carol, "p1", 400_000)
	require.Equal(t, "400000", f.keeper.GetShares(f.ctx, "p1", carol).String())
}

func TestFullWithdrawalClearsSeed(t *testing.T) {
	f := setupKeeper(t)
	params := types.StableParams()
	params.WithdrawDelaySeconds = 0
	f.createPool(t, "p1", 10, params)
	f.deposit(t, bob, "p1", 10)
	require.NotEqual(t, types.InitialSeed("p1"), f.keeper.GetPool(f.ctx, "p1").VolatilitySeed)

	res, err := f.keeper.WithdrawAll(f.ctx, bob, "p1")
	require.NoError(t, err)
	require.True(t, res.PoolReset)

	pool := f.keeper.GetPool(f.ctx, "p1")
	require.Equal(t, types.InitialSeed("p1"), pool.VolatilitySeed)
	require.Equal(t, types.SentimentNeutral, pool.Sentiment)
	require.Zero(t, pool.VolatilityAmplifierBps)
}

func TestLiquidationOpensWindowAndHappensOnce(t *testing.T) {
	f := setupKeeper(t)
	params := fixedRateParams(-100_000)
	params.MaxLossBps = 5_000
	params.LiquidationEnabled = true
	params.WithdrawDelaySeconds = 3_600
	f.createPool(t, "p1", 1_000_000, params)
	f.deposit(t, bob, "p1", 1_000_000)

	for i := 0; i < 10; i++ {
		f.advance(time.Minute)
		require.NoError(t, f.keeper.EndBlocker(f.ctx))
	}

	pool := f.keeper.GetPool(f.ctx, "p1")
	require.Equal(t, types.PhaseLiquidated, pool.Phase)
	require.Equal(t, "-500000", pool.AccumulatedPnL.String())
	require.Equal(t, 1, countEvents(f.ctx, types.EventTypeLiquidated))

	// liquidated pools are withdrawable before the normal delay
	res, err := f.keeper.WithdrawAll(f.ctx, bob, "p1")
	require.NoError(t, err)
	require.Equal(t, "500000", res.Payout.String())
	require.True(t, res.PoolReset)
	require.Equal(t, types.PhaseCollecting, f.keeper.GetPool(f.ctx, "p1").Phase)
}

func TestDelayedWindowRollsOver(t *testing.T) {
	f := setupKeeper(t)
	params := types.StableParams()
	params.WithdrawDelaySeconds = 60
	params.WithdrawWindowSeconds = 60
	f.createPool(t, "p1", 100, params)
	f.deposit(t, bob, "p1", 100)

	f.advance(90 * time.Second)
	_, err := f.keeper.Withdraw(f.ctx, bob, "p1", math.NewInt(10))
	require.NoError(t, err)

	f.advance(40 * time.Second) // 130s: window closed
	_, err = f.keeper.Withdraw(f.ctx, bob, "p1", math.NewInt(10))
	require.ErrorIs(t, err, types.ErrWindowClosed)

	f.advance(60 * time.Second) // 190s: next window
	_, err = f.keeper.Withdraw(f.ctx, bob, "p1", math.NewInt(10))
	require.NoError(t, err)
}

func TestWrappedPoolUsesWrapper(t *testing.T) {
	f := setupKeeper(t)
	f.keeper.SetWrapperKeeper(NewBankWrapper(f.bank))
	params := types.StableParams()
	params.WithdrawDelaySeconds = 0
	_, err := f.keeper.CreatePool(f.ctx, authority, types.PoolConfig{
		PoolID: "w1", Owner: alice, Denom: types.DefaultDenom, Wrapped: true,
		Cap: math.NewInt(50), Params: params,
	})
	require.NoError(t, err)

	f.deposit(t, bob, "w1", 50)
	require.Equal(t, "50", f.bank.moduleBalance(types.ModuleName, WrappedDenomPrefix+types.DefaultDenom).String())
	require.True(t, f.bank.moduleBalance(types.ModuleName, types.DefaultDenom).IsZero())

	_, err = f.keeper.WithdrawAll(f.ctx, bob, "w1")
	require.NoError(t, err)
	require.Equal(t, "50", f.bank.balance(bob).String())
	require.True(t, f.bank.moduleBalance(types.ModuleName, WrappedDenomPrefix+types.DefaultDenom).IsZero())
}

func TestVenuePoolMarksToVenueBalance(t *testing.T) {
	f := setupKeeper(t)
	venue := &mockVenue{balances: map[string]math.Int{}}
	f.keeper.SetVenueKeeper(venue)
	_, err := f.keeper.CreatePool(f.ctx, authority, types.PoolConfig{
		PoolID: "v1", Owner: alice, Denom: types.DefaultDenom, Strategy: types.StrategyVenue,
		Cap: math.NewInt(1_000), Params: types.StableParams(),
	})
	require.NoError(t, err)
	f.deposit(t, bob, "v1", 1_000)
	require.Equal(t, "1000", venue.BalanceOf(f.ctx, "v1").String())

	// venue earns 50 and hands it over on withdrawal
	venue.balances["v1"] = math.NewInt(1_050)
	f.bank.modules[types.ModuleName] = f.bank.modules[types.ModuleName].Add(sdk.NewInt64Coin(types.DefaultDenom, 50))
	f.advance(2 * time.Minute)

	pnl, err := f.keeper.CurrentPnL(f.ctx, "v1")
	require.NoError(t, err)
	require.Equal(t, "50", pnl.String())

	res, err := f.keeper.WithdrawAll(f.ctx, bob, "v1")
	require.NoError(t, err)
	require.Equal(t, "1050", res.Payout.String())
	require.True(t, venue.BalanceOf(f.ctx, "v1").IsZero())
}
