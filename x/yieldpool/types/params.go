package types

import (
	"fmt"
	"strings"

	"cosmossdk.io/math"
)

const (
	// BpsDenominator is 100% in basis points
	BpsDenominator = 10_000
	// PPMDenominator scales per-period rates
	PPMDenominator = 1_000_000

	// DefaultPeriodSeconds is the accrual unit
	DefaultPeriodSeconds = int64(60)
	// DefaultWithdrawDelaySeconds is how long after deployment the window opens
	DefaultWithdrawDelaySeconds = int64(60)

	// DefaultDenom is the asset default pools collect
	DefaultDenom = "uusdc"
)

// RiskParams configures accrual, protection and withdrawal timing for a pool.
// The fixed-yield, bounded-variable and high-volatility tiers are all
// expressed through this one struct.
type RiskParams struct {
	PeriodSeconds int64 `json:"period_seconds"`

	// Rates are per period, in parts per million of principal
	BaseRatePPM     int64 `json:"base_rate_ppm"`
	MinDeviationPPM int64 `json:"min_deviation_ppm"`
	MaxDeviationPPM int64 `json:"max_deviation_ppm"`
	MinRatePPM      int64 `json:"min_rate_ppm"`
	MaxRatePPM      int64 `json:"max_rate_ppm"`

	LeverageBps uint64 `json:"leverage_bps"`

	// Principal protection
	MaxLossBps         uint64 `json:"max_loss_bps"`
	LiquidationEnabled bool   `json:"liquidation_enabled"`

	// Market sentiment
	SentimentEnabled         bool  `json:"sentiment_enabled"`
	SentimentIntervalSeconds int64 `json:"sentiment_interval_seconds"`
	SentimentBiasPPM         int64 `json:"sentiment_bias_ppm"`

	// Crash events
	CrashProbabilityBps  uint64 `json:"crash_probability_bps"`
	CrashIntervalSeconds int64  `json:"crash_interval_seconds"`
	CrashSeverityBps     uint64 `json:"crash_severity_bps"`

	// Volatility amplifier growth
	AmplifierStepBps uint64 `json:"amplifier_step_bps"`
	AmplifierCapBps  uint64 `json:"amplifier_cap_bps"`

	// Withdraw window
	WithdrawDelaySeconds  int64 `json:"withdraw_delay_seconds"`
	WithdrawWindowSeconds int64 `json:"withdraw_window_seconds"` // 0 = never closes
}

// StableParams returns the fixed-yield tier parameters
func StableParams() RiskParams {
	return RiskParams{
		PeriodSeconds:        DefaultPeriodSeconds,
		BaseRatePPM:          2,
		MinRatePPM:           2,
		MaxRatePPM:           2,
		LeverageBps:          BpsDenominator,
		MaxLossBps:           0,
		WithdrawDelaySeconds: DefaultWithdrawDelaySeconds,
	}
}

// BalancedParams returns the bounded-variable tier parameters
func BalancedParams() RiskParams {
	return RiskParams{
		PeriodSeconds:         DefaultPeriodSeconds,
		BaseRatePPM:           3,
		MinDeviationPPM:       -12,
		MaxDeviationPPM:       14,
		MinRatePPM:            -10,
		MaxRatePPM:            15,
		LeverageBps:           BpsDenominator,
		MaxLossBps:            2_000, // 20%
		WithdrawDelaySeconds:  DefaultWithdrawDelaySeconds,
		WithdrawWindowSeconds: 3_600,
	}
}

// AggressiveParams returns the high-volatility tier parameters
func AggressiveParams() RiskParams {
	return RiskParams{
		PeriodSeconds:            DefaultPeriodSeconds,
		BaseRatePPM:              5,
		MinDeviationPPM:          -60,
		MaxDeviationPPM:          62,
		MinRatePPM:               -150,
		MaxRatePPM:               150,
		LeverageBps:              30_000, // 3x
		MaxLossBps:               5_000,  // 50%
		LiquidationEnabled:       true,
		SentimentEnabled:         true,
		SentimentIntervalSeconds: 300,
		SentimentBiasPPM:         10,
		CrashProbabilityBps:      500, // 5%
		CrashIntervalSeconds:     600,
		CrashSeverityBps:         1_500,
		AmplifierStepBps:         5,
		AmplifierCapBps:          5_000,
		WithdrawDelaySeconds:     DefaultWithdrawDelaySeconds,
	}
}

// ParamsForTier returns the default parameters of a tier
func ParamsForTier(tier string) (RiskParams, error) {
	switch tier {
	case TierStable:
		return StableParams(), nil
	case TierBalanced:
		return BalancedParams(), nil
	case TierAggressive:
		return AggressiveParams(), nil
	default:
		return RiskParams{}, fmt.Errorf("%w: unknown tier %q", ErrInvalidParams, tier)
	}
}

// Validate checks parameter consistency
func (p RiskParams) Validate() error {
	if p.PeriodSeconds <= 0 {
		return fmt.Errorf("%w: period must be positive", ErrInvalidParams)
	}
	if p.MinDeviationPPM > p.MaxDeviationPPM {
		return fmt.Errorf("%w: deviation range inverted", ErrInvalidParams)
	}
	if p.MinRatePPM > p.MaxRatePPM {
		return fmt.Errorf("%w: rate clamp inverted", ErrInvalidParams)
	}
	if p.LeverageBps == 0 {
		return fmt.Errorf("%w: leverage must be positive", ErrInvalidParams)
	}
	if p.MaxLossBps > BpsDenominator {
		return fmt.Errorf("%w: max loss above 100%%", ErrInvalidParams)
	}
	if p.CrashProbabilityBps > BpsDenominator || p.CrashSeverityBps > BpsDenominator {
		return fmt.Errorf("%w: crash settings above 100%%", ErrInvalidParams)
	}
	if p.CrashProbabilityBps > 0 && p.CrashIntervalSeconds <= 0 {
		return fmt.Errorf("%w: crash interval must be positive", ErrInvalidParams)
	}
	if p.SentimentEnabled && p.SentimentIntervalSeconds <= 0 {
		return fmt.Errorf("%w: sentiment interval must be positive", ErrInvalidParams)
	}
	if p.AmplifierStepBps > 0 && p.AmplifierCapBps == 0 {
		return fmt.Errorf("%w: amplifier cap required", ErrInvalidParams)
	}
	if p.WithdrawDelaySeconds < 0 || p.WithdrawWindowSeconds < 0 {
		return fmt.Errorf("%w: negative window", ErrInvalidParams)
	}
	return nil
}

// VolatilityBps approximates per-period rate dispersion in basis points of
// the rate range, including leverage and the current amplifier.
func (p RiskParams) VolatilityBps(amplifierBps uint64) uint64 {
	span := uint64(p.MaxDeviationPPM - p.MinDeviationPPM)
	return span * (BpsDenominator + amplifierBps) / BpsDenominator * p.LeverageBps / BpsDenominator
}

// PoolConfig is the input to pool creation
type PoolConfig struct {
	PoolID   string     `json:"pool_id"`
	Name     string     `json:"name"`
	Owner    string     `json:"owner"`
	Denom    string     `json:"denom"`
	Tier     string     `json:"tier"`
	Strategy string     `json:"strategy,omitempty"`
	Wrapped  bool       `json:"wrapped,omitempty"`
	Cap      math.Int   `json:"cap"`
	Params   RiskParams `json:"params"`
}

// Validate checks a pool configuration
func (c PoolConfig) Validate() error {
	if c.PoolID == "" || strings.ContainsAny(c.PoolID, ":/ ") {
		return fmt.Errorf("%w: invalid pool id %q", ErrInvalidParams, c.PoolID)
	}
	if c.Denom == "" {
		return fmt.Errorf("%w: empty denom", ErrInvalidParams)
	}
	if c.Cap.IsNil() || !c.Cap.IsPositive() {
		return fmt.Errorf("%w: cap must be positive", ErrInvalidParams)
	}
	if c.Strategy != "" && c.Strategy != StrategySimulated && c.Strategy != StrategyVenue {
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidParams, c.Strategy)
	}
	return c.Params.Validate()
}

// DefaultPoolConfigs returns one pool per tier
func DefaultPoolConfigs(owner string) []PoolConfig {
	return []PoolConfig{
		{PoolID: "stable-1", Name: "Stable Yield", Owner: owner, Denom: DefaultDenom, Tier: TierStable, Cap: math.NewInt(10_000_000_000), Params: StableParams()},
		{PoolID: "balanced-1", Name: "Balanced Yield", Owner: owner, Denom: DefaultDenom, Tier: TierBalanced, Cap: math.NewInt(10_000_000_000), Params: BalancedParams()},
		{PoolID: "aggressive-1", Name: "Aggressive Yield", Owner: owner, Denom: DefaultDenom, Tier: TierAggressive, Cap: math.NewInt(5_000_000_000), Params: AggressiveParams()},
	}
}
