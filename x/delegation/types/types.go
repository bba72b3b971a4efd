package types

import (
	"fmt"

	"cosmossdk.io/math"
)

const (
	// ModuleName defines the module name
	ModuleName = "delegation"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName

	// DefaultMaxPermissionDuration is 30 days in seconds
	DefaultMaxPermissionDuration = int64(30 * 24 * 60 * 60)
)

// Capability is the kind of action a grant allows an operator to take
type Capability string

const (
	CapabilityWithdraw Capability = "WITHDRAW"
	CapabilityStopLoss Capability = "STOP_LOSS"
)

// AllCapabilities lists every capability in a stable order
func AllCapabilities() []Capability {
	return []Capability{CapabilityWithdraw, CapabilityStopLoss}
}

// ParseCapability validates a capability name
func ParseCapability(s string) (Capability, error) {
	switch c := Capability(s); c {
	case CapabilityWithdraw, CapabilityStopLoss:
		return c, nil
	default:
		return "", ErrInvalidCapability.Wrapf("unknown capability %q", s)
	}
}

// Grant lets registered operators act for Grantor on one pool with one
// capability. Grants are disabled, never deleted.
type Grant struct {
	Grantor      string     `json:"grantor"`
	PoolID       string     `json:"pool_id"`
	Capability   Capability `json:"capability"`
	Enabled      bool       `json:"enabled"`
	GrantedAt    int64      `json:"granted_at"`
	ExpiresAt    int64      `json:"expires_at"` // 0 = never
	MaxAmount    math.Int   `json:"max_amount"` // shares per execution, 0 = unlimited
	MaxUses      uint64     `json:"max_uses"`   // 0 = unlimited
	UsedCount    uint64     `json:"used_count"`
	ThresholdBps uint64     `json:"threshold_bps"` // stop-loss trigger, informational on-chain
}

// IsExpired reports whether the grant has passed its expiry at now
func (g *Grant) IsExpired(now int64) bool {
	return g.ExpiresAt != 0 && now > g.ExpiresAt
}

// IsExhausted reports whether every allowed use has been spent
func (g *Grant) IsExhausted() bool {
	return g.MaxUses != 0 && g.UsedCount >= g.MaxUses
}

// IsValid checks if the grant can be exercised at now
func (g *Grant) IsValid(now int64) bool {
	return g.Enabled && !g.IsExpired(now) && !g.IsExhausted()
}

// ExceedsAmount reports whether shares is above the per-execution cap
func (g *Grant) ExceedsAmount(shares math.Int) bool {
	return !g.MaxAmount.IsNil() && g.MaxAmount.IsPositive() && shares.GT(g.MaxAmount)
}

// ActionRecord is the audit entry for one delegated execution attempt
type ActionRecord struct {
	ID            string     `json:"id"`
	Sequence      uint64     `json:"sequence"`
	Grantor       string     `json:"grantor"`
	PoolID        string     `json:"pool_id"`
	Capability    Capability `json:"capability"`
	Executor      string     `json:"executor"`
	Amount        math.Int   `json:"amount"` // shares requested
	Payout        math.Int   `json:"payout"`
	Timestamp     int64      `json:"timestamp"`
	BlockHeight   int64      `json:"block_height"`
	Succeeded     bool       `json:"succeeded"`
	FailureReason string     `json:"failure_reason,omitempty"`
}

// Operator is an address allowed to run delegated executions
type Operator struct {
	Address     string `json:"address"`
	ActionCount uint64 `json:"action_count"`
	AddedAt     int64  `json:"added_at"`
}

// Params configures the registry
type Params struct {
	Owner                 string `json:"owner"`
	Paused                bool   `json:"paused"`
	MaxPermissionDuration int64  `json:"max_permission_duration"` // seconds
}

// DefaultParams returns the registry defaults for owner
func DefaultParams(owner string) Params {
	return Params{
		Owner:                 owner,
		MaxPermissionDuration: DefaultMaxPermissionDuration,
	}
}

// Validate checks the params
func (p Params) Validate() error {
	if p.MaxPermissionDuration <= 0 {
		return fmt.Errorf("%w: max permission duration must be positive", ErrInvalidParams)
	}
	return nil
}

// ExecutionResult reports the outcome of a delegated execution that reached
// the withdrawal attempt
type ExecutionResult struct {
	RecordID    string   `json:"record_id"`
	Succeeded   bool     `json:"succeeded"`
	SharesBurnt math.Int `json:"shares_burnt"`
	Payout      math.Int `json:"payout"`
	Reason      string   `json:"reason,omitempty"`
}
