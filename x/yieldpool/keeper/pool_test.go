package keeper

import (
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/hifi/x/yieldpool/types"
)

func TestEqualDepositsGetEqualSharesAndDeployOnce(t *testing.T) {
	f := setupKeeper(t)
	f.createPool(t, "p1", 10, types.StableParams())

	first := f.deposit(t, alice, "p1", 5)
	require.False(t, first.Deployed)
	require.Equal(t, types.PhaseCollecting, f.keeper.GetPool(f.ctx, "p1").Phase)

	second := f.deposit(t, bob, "p1", 5)
	require.True(t, second.Deployed)
	require.True(t, first.Shares.Equal(second.Shares))

	pool := f.keeper.GetPool(f.ctx, "p1")
	require.Equal(t, types.PhaseDeployed, pool.Phase)
	require.Equal(t, "10", pool.DeployedPrincipal.String())
	require.True(t, pool.AccumulatedPnL.IsZero())
	require.Equal(t, genesisTime.Unix(), pool.DeployedAtTime)
	require.Equal(t, 1, countEvents(f.ctx, types.EventTypeDeploy))
	require.Equal(t, "10", f.bank.moduleBalance(types.ModuleName, types.DefaultDenom).String())
}

func TestDepositRejections(t *testing.T) {
	f := setupKeeper(t)
	f.createPool(t, "p1", 10, types.StableParams())
	f.bank.fund(alice, 100)

	_, err := f.keeper.Deposit(f.ctx, alice, "p1", math.ZeroInt())
	require.ErrorIs(t, err, types.ErrZeroAmount)

	_, err = f.keeper.Deposit(f.ctx, alice, "missing", math.NewInt(1))
	require.ErrorIs(t, err, types.ErrPoolNotFound)

	_, err = f.keeper.Deposit(f.ctx, alice, "p1", math.NewInt(11))
	require.ErrorIs(t, err, types.ErrCapExceeded)

	_, err = f.keeper.Deposit(f.ctx, alice, "p1", math.NewInt(10))
	require.NoError(t, err)

	_, err = f.keeper.Deposit(f.ctx, alice, "p1", math.NewInt(1))
	require.ErrorIs(t, err, types.ErrInvalidState)
}

func TestDepositWithoutFundsFails(t *testing.T) {
	f := setupKeeper(t)
	f.createPool(t, "p1", 10, types.StableParams())

	_, err := f.keeper.Deposit(f.ctx, carol, "p1", math.NewInt(5))
	require.ErrorIs(t, err, types.ErrTransferFailed)
	require.True(t, f.keeper.GetShares(f.ctx, "p1", carol).IsZero())
}

func TestDeployToStrategy(t *testing.T) {
	f := setupKeeper(t)
	f.createPool(t, "p1", 10, types.StableParams())
	f.deposit(t, alice, "p1", 4)

	_, err := f.keeper.DeployToStrategy(f.ctx, bob, "p1")
	require.ErrorIs(t, err, types.ErrCapNotReached)

	// A pool restored at its cap but still collecting deploys on request
	pool := f.keeper.GetPool(f.ctx, "p1")
	pool.Cap = pool.TotalDeposits
	f.keeper.SetPool(f.ctx, pool)

	deployed, err := f.keeper.DeployToStrategy(f.ctx, bob, "p1")
	require.NoError(t, err)
	require.Equal(t, types.PhaseDeployed, deployed.Phase)
	require.Equal(t, "4", deployed.DeployedPrincipal.String())

	_, err = f.keeper.DeployToStrategy(f.ctx, bob, "p1")
	require.ErrorIs(t, err, types.ErrInvalidState)
}

func TestCreatePoolRequiresAuthority(t *testing.T) {
	f := setupKeeper(t)

	_, err := f.keeper.CreatePool(f.ctx, alice, types.DefaultPoolConfigs(alice)[0])
	require.ErrorIs(t, err, types.ErrUnauthorized)

	f.createPool(t, "p1", 10, types.StableParams())
	_, err = f.keeper.CreatePool(f.ctx, authority, types.PoolConfig{
		PoolID: "p1", Owner: alice, Denom: types.DefaultDenom, Cap: math.NewInt(5), Params: types.StableParams(),
	})
	require.ErrorIs(t, err, types.ErrPoolAlreadyExists)

	_, err = f.keeper.CreatePool(f.ctx, authority, types.PoolConfig{
		PoolID: "v1", Owner: alice, Denom: types.DefaultDenom, Strategy: types.StrategyVenue,
		Cap: math.NewInt(5), Params: types.StableParams(),
	})
	require.ErrorIs(t, err, types.ErrVenueUnavailable)
}

func TestInitDefaultPools(t *testing.T) {
	f := setupKeeper(t)
	f.keeper.InitDefaultPools(f.ctx)
	f.keeper.InitDefaultPools(f.ctx)

	pools := f.keeper.GetAllPools(f.ctx)
	require.Len(t, pools, 3)
	require.Len(t, f.keeper.GetPoolsByTier(f.ctx, types.TierAggressive), 1)
	for _, p := range pools {
		require.Equal(t, authority, p.Owner)
		require.Equal(t, types.PhaseCollecting, p.Phase)
	}
}

func TestSetCap(t *testing.T) {
	f := setupKeeper(t)
	f.createPool(t, "p1", 100, types.StableParams())
	f.deposit(t, bob, "p1", 40)

	_, err := f.keeper.SetCap(f.ctx, bob, "p1", math.NewInt(50))
	require.ErrorIs(t, err, types.ErrUnauthorized)

	_, err = f.keeper.SetCap(f.ctx, alice, "p1", math.NewInt(30))
	require.ErrorIs(t, err, types.ErrCapExceeded)

	deployed, err := f.keeper.SetCap(f.ctx, alice, "p1", math.NewInt(60))
	require.NoError(t, err)
	require.False(t, deployed)

	deployed, err = f.keeper.SetCap(f.ctx, alice, "p1", math.NewInt(40))
	require.NoError(t, err)
	require.True(t, deployed)
	require.Equal(t, types.PhaseDeployed, f.keeper.GetPool(f.ctx, "p1").Phase)

	_, err = f.keeper.SetCap(f.ctx, alice, "p1", math.NewInt(80))
	require.ErrorIs(t, err, types.ErrInvalidState)
}

func TestTransferOwnership(t *testing.T) {
	f := setupKeeper(t)
	f.createPool(t, "p1", 100, types.StableParams())

	require.ErrorIs(t, f.keeper.TransferOwnership(f.ctx, bob, "p1", bob), types.ErrUnauthorized)
	require.NoError(t, f.keeper.TransferOwnership(f.ctx, alice, "p1", bob))
	require.Equal(t, bob, f.keeper.GetPool(f.ctx, "p1").Owner)

	_, err := f.keeper.SetCap(f.ctx, alice, "p1", math.NewInt(10))
	require.ErrorIs(t, err, types.ErrUnauthorized)
}

func TestResetPoolRefundsCollectingRound(t *testing.T) {
	f := setupKeeper(t)
	f.createPool(t, "p1", 100, types.StableParams())
	f.deposit(t, bob, "p1", 30)
	f.deposit(t, carol, "p1", 20)

	refunded, holders, err := f.keeper.ResetPool(f.ctx, alice, "p1")
	require.NoError(t, err)
	require.Equal(t, "50", refunded.String())
	require.Equal(t, 2, holders)
	require.Equal(t, "30", f.bank.balance(bob).String())
	require.Equal(t, "20", f.bank.balance(carol).String())

	pool := f.keeper.GetPool(f.ctx, "p1")
	require.True(t, pool.TotalShares.IsZero())
	require.True(t, pool.TotalDeposits.IsZero())
	require.Equal(t, uint64(1), pool.Cycle)
	require.Empty(t, f.keeper.GetPoolAccounts(f.ctx, "p1"))
}

func TestResetPoolRejectsLiveShares(t *testing.T) {
	f := setupKeeper(t)
	f.createPool(t, "p1", 10, types.StableParams())
	f.deposit(t, bob, "p1", 10)

	_, _, err := f.keeper.ResetPool(f.ctx, alice, "p1")
	require.ErrorIs(t, err, types.ErrInvalidState)
}

func TestEndBlockerOpensWindowAndRecordsNAV(t *testing.T) {
	f := setupKeeper(t)
	f.createPool(t, "p1", 1_000_000, types.StableParams())
	f.deposit(t, bob, "p1", 1_000_000)

	f.advance(30 * time.Second)
	require.NoError(t, f.keeper.EndBlocker(f.ctx))
	require.Equal(t, types.PhaseDeployed, f.keeper.GetPool(f.ctx, "p1").Phase)

	f.advance(90 * time.Second)
	require.NoError(t, f.keeper.EndBlocker(f.ctx))

	pool := f.keeper.GetPool(f.ctx, "p1")
	require.Equal(t, types.PhaseWithdrawOpen, pool.Phase)
	require.Equal(t, "4", pool.AccumulatedPnL.String())

	history := f.keeper.GetNAVHistory(f.ctx, "p1", 0, 0)
	require.NotEmpty(t, history)
	require.Equal(t, "1000004", history[len(history)-1].TotalAssets.String())
}

func TestQueriesDoNotPersist(t *testing.T) {
	f := setupKeeper(t)
	f.createPool(t, "p1", 1_000_000, types.StableParams())
	f.deposit(t, bob, "p1", 1_000_000)
	f.advance(10 * time.Minute)

	pnl, err := f.keeper.CurrentPnL(f.ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "20", pnl.String())

	assets, err := f.keeper.TotalAssets(f.ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "1000020", assets.String())

	preview, err := f.keeper.PreviewWithdraw(f.ctx, "p1", math.NewInt(500_000))
	require.NoError(t, err)
	require.Equal(t, "500010", preview.String())

	open, err := f.keeper.IsWithdrawOpen(f.ctx, "p1")
	require.NoError(t, err)
	require.True(t, open)

	metrics, err := f.keeper.GetRiskMetrics(f.ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, int64(600), metrics.TimeInMarket)
	require.Equal(t, types.PhaseWithdrawOpen, metrics.Phase)

	stored := f.keeper.GetPool(f.ctx, "p1")
	require.True(t, stored.AccumulatedPnL.IsZero())
	require.Equal(t, genesisTime.Unix(), stored.LastUpdateTime)
}

func TestGenesisRoundTrip(t *testing.T) {
	f := setupKeeper(t)
	f.createPool(t, "p1", 100, types.StableParams())
	f.deposit(t, bob, "p1", 30)
	f.deposit(t, carol, "p1", 20)

	gs := f.keeper.ExportGenesis(f.ctx)
	require.NoError(t, gs.Validate())

	g := setupKeeper(t)
	g.keeper.InitGenesis(g.ctx, *gs)
	require.Equal(t, "30", g.keeper.GetShares(g.ctx, "p1", bob).String())
	require.Equal(t, "50", g.keeper.GetPool(g.ctx, "p1").TotalShares.String())
}
