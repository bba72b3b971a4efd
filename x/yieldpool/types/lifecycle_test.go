package types

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"
)

func TestIsWithdrawOpen(t *testing.T) {
	open := StableParams() // 60s delay, never closes
	windowed := BalancedParams()
	windowed.WithdrawDelaySeconds = 60
	windowed.WithdrawWindowSeconds = 120

	tests := []struct {
		name    string
		phase   Phase
		elapsed int64
		params  RiskParams
		want    bool
	}{
		{"collecting is never open", PhaseCollecting, 10_000, open, false},
		{"liquidated opens immediately", PhaseLiquidated, 0, open, true},
		{"before delay", PhaseDeployed, 59, open, false},
		{"at delay", PhaseDeployed, 60, open, true},
		{"long after delay", PhaseWithdrawOpen, 1_000_000, open, true},
		{"windowed before delay", PhaseDeployed, 30, windowed, false},
		{"windowed inside first window", PhaseDeployed, 100, windowed, true},
		{"windowed last second of window", PhaseDeployed, 179, windowed, true},
		{"windowed after window closes", PhaseWithdrawOpen, 180, windowed, false},
		{"windowed next term delay", PhaseDeployed, 239, windowed, false},
		{"windowed second window", PhaseDeployed, 240, windowed, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := IsWithdrawOpen(tc.phase, t0, t0+tc.elapsed, tc.params)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestNextWindowOpen(t *testing.T) {
	windowed := BalancedParams()
	windowed.WithdrawDelaySeconds = 60
	windowed.WithdrawWindowSeconds = 120

	require.Equal(t, int64(0), NextWindowOpen(PhaseCollecting, 0, t0, windowed))
	require.Equal(t, t0+60, NextWindowOpen(PhaseDeployed, t0, t0+10, windowed))
	require.Equal(t, t0+100, NextWindowOpen(PhaseDeployed, t0, t0+100, windowed))
	require.Equal(t, t0+240, NextWindowOpen(PhaseDeployed, t0, t0+200, windowed))
}

func TestWindowPhase(t *testing.T) {
	pool := deployedPool(1_000, StableParams())

	require.Equal(t, PhaseDeployed, WindowPhase(&pool, t0+30))
	require.Equal(t, PhaseWithdrawOpen, WindowPhase(&pool, t0+60))

	pool.Phase = PhaseLiquidated
	require.Equal(t, PhaseLiquidated, WindowPhase(&pool, t0+30))
}

func TestTierParamsValidate(t *testing.T) {
	for _, tier := range []string{TierStable, TierBalanced, TierAggressive} {
		params, err := ParamsForTier(tier)
		require.NoError(t, err)
		require.NoError(t, params.Validate(), tier)
	}

	_, err := ParamsForTier("moonshot")
	require.ErrorIs(t, err, ErrInvalidParams)

	bad := AggressiveParams()
	bad.MaxLossBps = 12_000
	require.ErrorIs(t, bad.Validate(), ErrInvalidParams)

	bad = BalancedParams()
	bad.MinDeviationPPM, bad.MaxDeviationPPM = 5, -5
	require.ErrorIs(t, bad.Validate(), ErrInvalidParams)
}

func TestPoolConfigValidate(t *testing.T) {
	cfg := DefaultPoolConfigs("owner")[0]
	require.NoError(t, cfg.Validate())

	cfg.PoolID = "bad:id"
	require.ErrorIs(t, cfg.Validate(), ErrInvalidParams)

	cfg = DefaultPoolConfigs("owner")[0]
	cfg.Cap = math.ZeroInt()
	require.ErrorIs(t, cfg.Validate(), ErrInvalidParams)
}

func TestPoolValuation(t *testing.T) {
	pool := deployedPool(1_000, StableParams())
	pool.AccumulatedPnL = math.NewInt(100)

	require.Equal(t, "1100", pool.TotalAssets().String())
	require.Equal(t, "550", pool.ValueForShares(math.NewInt(500)).String())
	require.Equal(t, "90", pool.SharesForDeposit(math.NewInt(99)).String())
	require.Equal(t, int64(1_000), pool.PnLBps())
}

func TestGenesisValidate(t *testing.T) {
	pool := deployedPool(1_000, StableParams())
	gs := GenesisState{
		Pools: []Pool{pool},
		Accounts: []ShareAccount{
			{PoolID: pool.PoolID, Owner: "a", Shares: math.NewInt(600)},
			{PoolID: pool.PoolID, Owner: "b", Shares: math.NewInt(400)},
		},
	}
	require.NoError(t, gs.Validate())

	gs.Accounts[1].Shares = math.NewInt(300)
	require.ErrorIs(t, gs.Validate(), ErrInvalidParams)

	gs.Accounts = append(gs.Accounts, ShareAccount{PoolID: "missing", Owner: "c", Shares: math.NewInt(1)})
	require.ErrorIs(t, gs.Validate(), ErrPoolNotFound)
}
