package types

import (
	"cosmossdk.io/math"
)

// Module name and store key
const (
	ModuleName = "yieldpool"
	StoreKey   = ModuleName
)

// Phase is the lifecycle phase of a pool
type Phase string

// Pool phases
const (
	PhaseCollecting   Phase = "collecting"
	PhaseDeployed     Phase = "deployed"
	PhaseWithdrawOpen Phase = "withdraw_open"
	PhaseLiquidated   Phase = "liquidated"
)

// IsLive reports whether principal is deployed in this phase
func (p Phase) IsLive() bool {
	return p == PhaseDeployed || p == PhaseWithdrawOpen || p == PhaseLiquidated
}

// Risk tiers
const (
	TierStable     = "stable"
	TierBalanced   = "balanced"
	TierAggressive = "aggressive"
)

// Strategy describes where deployed principal earns its yield
const (
	StrategySimulated = "simulated"
	StrategyVenue     = "venue"
)

// Sentiment is the market mood used by sentiment-enabled tiers
type Sentiment string

// Sentiment states
const (
	SentimentBullish Sentiment = "bullish"
	SentimentNeutral Sentiment = "neutral"
	SentimentBearish Sentiment = "bearish"
)

// Pool is a capped, shared deposit pool that runs through collection,
// deployment and withdrawal phases.
type Pool struct {
	PoolID   string `json:"pool_id"`
	Name     string `json:"name"`
	Owner    string `json:"owner"`
	Denom    string `json:"denom"`
	Tier     string `json:"tier"`
	Strategy string `json:"strategy"`
	Wrapped  bool   `json:"wrapped,omitempty"` // deposits are held in wrapped form
	Phase    Phase  `json:"phase"`

	// Accounting
	Cap           math.Int `json:"cap"`
	TotalDeposits math.Int `json:"total_deposits"`
	TotalShares   math.Int `json:"total_shares"`
	Reserves      math.Int `json:"reserves"` // coins held by the module for this pool

	// Deployment state, meaningful only outside collecting
	DeployedPrincipal math.Int `json:"deployed_principal"`
	AccumulatedPnL    math.Int `json:"accumulated_pnl"`
	DeployedAtTime    int64    `json:"deployed_at_time"`
	LastUpdateTime    int64    `json:"last_update_time"`

	// Simulation state
	VolatilitySeed         []byte    `json:"volatility_seed"`
	VolatilityAmplifierBps uint64    `json:"volatility_amplifier_bps"`
	Sentiment              Sentiment `json:"sentiment,omitempty"`
	SentimentUpdatedAt     int64     `json:"sentiment_updated_at,omitempty"`
	LastCrashCheck         int64     `json:"last_crash_check,omitempty"`
	LiquidatedAt           int64     `json:"liquidated_at,omitempty"`

	// Cycle counts completed deploy/withdraw rounds
	Cycle uint64 `json:"cycle"`

	Params RiskParams `json:"params"`

	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// NewPool creates a pool in the collecting phase
func NewPool(poolID, name, owner, denom, tier string, capAmount math.Int, params RiskParams, now int64) *Pool {
	return &Pool{
		PoolID:            poolID,
		Name:              name,
		Owner:             owner,
		Denom:             denom,
		Tier:              tier,
		Strategy:          StrategySimulated,
		Phase:             PhaseCollecting,
		Cap:               capAmount,
		TotalDeposits:     math.ZeroInt(),
		TotalShares:       math.ZeroInt(),
		Reserves:          math.ZeroInt(),
		DeployedPrincipal: math.ZeroInt(),
		AccumulatedPnL:    math.ZeroInt(),
		VolatilitySeed:    InitialSeed(poolID),
		Sentiment:         SentimentNeutral,
		Params:            params,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// TotalAssets returns the pool value: collected deposits while collecting,
// principal plus accumulated PnL afterwards.
func (p *Pool) TotalAssets() math.Int {
	if p.Phase == PhaseCollecting {
		return p.TotalDeposits
	}
	return p.DeployedPrincipal.Add(p.AccumulatedPnL)
}

// SharesForDeposit returns the shares minted for a deposit of amount
func (p *Pool) SharesForDeposit(amount math.Int) math.Int {
	assets := p.TotalAssets()
	if p.TotalShares.IsZero() || !assets.IsPositive() {
		return amount
	}
	return amount.Mul(p.TotalShares).Quo(assets)
}

// ValueForShares returns the payout owed for shares at the current pool value
func (p *Pool) ValueForShares(shares math.Int) math.Int {
	if p.TotalShares.IsZero() {
		return math.ZeroInt()
	}
	assets := p.TotalAssets()
	if !assets.IsPositive() {
		return math.ZeroInt()
	}
	return shares.Mul(assets).Quo(p.TotalShares)
}

// IsCapReached reports whether collected deposits have hit the cap
func (p *Pool) IsCapReached() bool {
	return p.TotalDeposits.GTE(p.Cap)
}

// FloorPnL is the lowest PnL the principal-protection floor allows
func (p *Pool) FloorPnL() math.Int {
	return p.DeployedPrincipal.MulRaw(int64(p.Params.MaxLossBps)).QuoRaw(BpsDenominator).Neg()
}

// PnLBps returns accumulated PnL relative to principal in basis points
func (p *Pool) PnLBps() int64 {
	if !p.DeployedPrincipal.IsPositive() {
		return 0
	}
	return p.AccumulatedPnL.MulRaw(BpsDenominator).Quo(p.DeployedPrincipal).Int64()
}

// ShareAccount is a user's share balance in one pool
type ShareAccount struct {
	PoolID string   `json:"pool_id"`
	Owner  string   `json:"owner"`
	Shares math.Int `json:"shares"`
}

// NAVHistory is a point-in-time pool valuation
type NAVHistory struct {
	PoolID      string   `json:"pool_id"`
	Timestamp   int64    `json:"timestamp"`
	TotalAssets math.Int `json:"total_assets"`
	PnL         math.Int `json:"pnl"`
	Phase       Phase    `json:"phase"`
}

// RiskMetrics summarises the risk profile of a pool at a point in time
type RiskMetrics struct {
	PoolID         string         `json:"pool_id"`
	Tier           string         `json:"tier"`
	Phase          Phase          `json:"phase"`
	VolatilityBps  uint64         `json:"volatility_bps"`
	PnLBps         int64          `json:"pnl_bps"`
	PnLPercent     math.LegacyDec `json:"pnl_percent"`
	TimeInMarket   int64          `json:"time_in_market"`
	FloorPnL       math.Int       `json:"floor_pnl"`
	Sentiment      Sentiment      `json:"sentiment,omitempty"`
	Liquidatable   bool           `json:"liquidatable"`
	WithdrawOpen   bool           `json:"withdraw_open"`
	NextWindowOpen int64          `json:"next_window_open,omitempty"`
}

// WithdrawResult describes a completed withdrawal
type WithdrawResult struct {
	PoolID      string   `json:"pool_id"`
	Owner       string   `json:"owner"`
	SharesBurnt math.Int `json:"shares_burnt"`
	Payout      math.Int `json:"payout"`
	Funded      math.Int `json:"funded"` // shortfall drawn from the treasury
	PoolReset   bool     `json:"pool_reset"`
}

// DepositResult describes an accepted deposit
type DepositResult struct {
	PoolID    string   `json:"pool_id"`
	Depositor string   `json:"depositor"`
	Amount    math.Int `json:"amount"`
	Shares    math.Int `json:"shares"`
	Deployed  bool     `json:"deployed"` // the deposit filled the cap
}
