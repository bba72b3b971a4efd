package types

import (
	"fmt"

	"cosmossdk.io/math"
)

const (
	// ModuleName defines the module name
	ModuleName = "treasury"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName

	// GlobalFundID is the identifier of the single treasury fund
	GlobalFundID = "global"

	// DefaultDenom is the asset the treasury holds
	DefaultDenom = "uusdc"
)

// Fund tracks the treasury balance backing pool yield
type Fund struct {
	FundID        string   `json:"fund_id"`
	Denom         string   `json:"denom"`
	Balance       math.Int `json:"balance"`
	TotalDeposits math.Int `json:"total_deposits"`
	TotalPayouts  math.Int `json:"total_payouts"`
	UpdatedAt     int64    `json:"updated_at"`
}

// NewFund creates an empty fund
func NewFund(fundID, denom string) *Fund {
	return &Fund{
		FundID:        fundID,
		Denom:         denom,
		Balance:       math.ZeroInt(),
		TotalDeposits: math.ZeroInt(),
		TotalPayouts:  math.ZeroInt(),
	}
}

// Deposit adds funds
func (f *Fund) Deposit(amount math.Int, now int64) {
	f.Balance = f.Balance.Add(amount)
	f.TotalDeposits = f.TotalDeposits.Add(amount)
	f.UpdatedAt = now
}

// Withdraw removes funds, returning false if the balance is short
func (f *Fund) Withdraw(amount math.Int, now int64) bool {
	if f.Balance.LT(amount) {
		return false
	}
	f.Balance = f.Balance.Sub(amount)
	f.TotalPayouts = f.TotalPayouts.Add(amount)
	f.UpdatedAt = now
	return true
}

// Available is what can be paid out while keeping minBalance in reserve
func (f *Fund) Available(minBalance math.Int) math.Int {
	avail := f.Balance.Sub(minBalance)
	if avail.IsNegative() {
		return math.ZeroInt()
	}
	return avail
}

// Config contains treasury configuration
type Config struct {
	Denom      string   `json:"denom"`
	MinBalance math.Int `json:"min_balance"` // never paid out
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Denom:      DefaultDenom,
		MinBalance: math.ZeroInt(),
	}
}

// Validate checks the config
func (c Config) Validate() error {
	if c.Denom == "" {
		return fmt.Errorf("%w: empty denom", ErrInvalidParams)
	}
	if c.MinBalance.IsNil() || c.MinBalance.IsNegative() {
		return fmt.Errorf("%w: min balance must be non-negative", ErrInvalidParams)
	}
	return nil
}

// EventType is the kind of treasury movement
type EventType int

const (
	EventDeposit EventType = iota
	EventYieldFunding
	EventLossSweep
)

func (t EventType) String() string {
	switch t {
	case EventDeposit:
		return "deposit"
	case EventYieldFunding:
		return "yield_funding"
	case EventLossSweep:
		return "loss_sweep"
	default:
		return "unknown"
	}
}

// MarshalText renders the type by name
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses a type name
func (t *EventType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "deposit":
		*t = EventDeposit
	case "yield_funding":
		*t = EventYieldFunding
	case "loss_sweep":
		*t = EventLossSweep
	default:
		return fmt.Errorf("unknown treasury event type %q", b)
	}
	return nil
}

// Event is one entry of the treasury's audit log. Amount is negative for
// outflows.
type Event struct {
	EventID   string    `json:"event_id"`
	Sequence  uint64    `json:"sequence"`
	FundID    string    `json:"fund_id"`
	EventType EventType `json:"event_type"`
	Amount    math.Int  `json:"amount"`
	RelatedID string    `json:"related_id"` // pool ID or depositor
	Balance   math.Int  `json:"balance"`    // after the event
	Timestamp int64     `json:"timestamp"`
}
