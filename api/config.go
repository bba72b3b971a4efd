package api

import (
	"fmt"
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
)

// Config contains the standalone service configuration
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Per-IP request rate, in requests per second, and burst
	RateLimit        float64
	RateBurst        int
	DisableRateLimit bool

	// Authority owns the default pools and the permission registry
	Authority string
	// Operator is registered at startup and drives the stop-loss sweep.
	// Empty disables the sweep.
	Operator string

	ChainID      string
	FaucetAmount math.Int
	// TreasurySeed is minted and deposited into the treasury at startup
	TreasurySeed math.Int
	SeedPools    bool

	TickInterval time.Duration
	// ClockOffset shifts the service clock, for exercising withdrawal windows
	ClockOffset time.Duration
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		RateLimit:    20,
		RateBurst:    40,
		Authority:    authtypes.NewModuleAddress("gov").String(),
		ChainID:      "hifi-local",
		FaucetAmount: math.NewInt(1_000_000_000),
		TreasurySeed: math.NewInt(100_000_000_000),
		SeedPools:    true,
		TickInterval: time.Second,
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if _, err := sdk.AccAddressFromBech32(c.Authority); err != nil {
		return fmt.Errorf("invalid authority: %w", err)
	}
	if c.Operator != "" {
		if _, err := sdk.AccAddressFromBech32(c.Operator); err != nil {
			return fmt.Errorf("invalid operator: %w", err)
		}
	}
	if c.FaucetAmount.IsNil() || c.FaucetAmount.IsNegative() {
		return fmt.Errorf("faucet amount must be non-negative")
	}
	if c.TreasurySeed.IsNil() || c.TreasurySeed.IsNegative() {
		return fmt.Errorf("treasury seed must be non-negative")
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive")
	}
	if !c.DisableRateLimit && (c.RateLimit <= 0 || c.RateBurst <= 0) {
		return fmt.Errorf("rate limit and burst must be positive")
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
