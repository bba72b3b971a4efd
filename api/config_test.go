package api

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Port = 0 }},
		{"authority", func(c *Config) { c.Authority = "gov" }},
		{"operator", func(c *Config) { c.Operator = "agent" }},
		{"faucet", func(c *Config) { c.FaucetAmount = math.NewInt(-1) }},
		{"nil seed", func(c *Config) { c.TreasurySeed = math.Int{} }},
		{"tick", func(c *Config) { c.TickInterval = 0 }},
		{"rate", func(c *Config) { c.RateLimit = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			require.Error(t, c.Validate())
		})
	}

	c := DefaultConfig()
	c.RateLimit = 0
	c.DisableRateLimit = true
	c.FaucetAmount = math.ZeroInt()
	require.NoError(t, c.Validate())
	require.Equal(t, "0.0.0.0:8080", c.Addr())
}
