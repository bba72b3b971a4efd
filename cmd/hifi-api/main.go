package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openalpha/hifi/api"
)

const (
	flagHost         = "host"
	flagPort         = "port"
	flagReadTimeout  = "read-timeout"
	flagWriteTimeout = "write-timeout"
	flagRateLimit    = "rate-limit"
	flagRateBurst    = "rate-burst"
	flagNoRateLimit  = "no-rate-limit"
	flagAuthority    = "authority"
	flagOperator     = "operator"
	flagChainID      = "chain-id"
	flagFaucetAmount = "faucet-amount"
	flagTreasurySeed = "treasury-seed"
	flagNoSeedPools  = "no-seed-pools"
	flagTickInterval = "tick-interval"
	flagClockOffset  = "clock-offset"
	flagLogLevel     = "log-level"
	envPrefix        = "HIFI_API"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		log.NewLogger(os.Stderr).Error("failure when running hifi-api", "err", err)
		os.Exit(1)
	}
}

// NewRootCmd creates the hifi-api command. Every flag can also be set from
// the environment as HIFI_API_<FLAG>, e.g. HIFI_API_RATE_LIMIT.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	defaults := api.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "hifi-api",
		Short: "Standalone HTTP and WebSocket API for yield pools and delegated permissions",
		Long: `hifi-api runs the yieldpool, delegation and treasury modules on an
in-memory chain state and serves them over HTTP and WebSocket. Blocks are
produced on a fixed tick, which drives pool phase transitions, the stop-loss
sweep and grant expiry announcements.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}

			level, err := zerolog.ParseLevel(v.GetString(flagLogLevel))
			if err != nil {
				return fmt.Errorf("invalid log level: %w", err)
			}
			logger := log.NewLogger(os.Stderr, log.LevelOption(level))

			config, err := configFromViper(v)
			if err != nil {
				return err
			}

			server, err := api.NewServer(config, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return server.Start(ctx)
		},
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	f := cmd.Flags()
	f.String(flagHost, defaults.Host, "Listen host")
	f.Int(flagPort, defaults.Port, "Listen port")
	f.Duration(flagReadTimeout, defaults.ReadTimeout, "HTTP read timeout")
	f.Duration(flagWriteTimeout, defaults.WriteTimeout, "HTTP write timeout")
	f.Float64(flagRateLimit, defaults.RateLimit, "Sustained requests per second per client IP")
	f.Int(flagRateBurst, defaults.RateBurst, "Request burst per client IP")
	f.Bool(flagNoRateLimit, false, "Disable rate limiting")
	f.String(flagAuthority, defaults.Authority, "Address owning the default pools and the permission registry")
	f.String(flagOperator, "", "Operator address registered at startup; enables the stop-loss sweep")
	f.String(flagChainID, defaults.ChainID, "Chain ID reported in block headers")
	f.String(flagFaucetAmount, defaults.FaucetAmount.String(), "Maximum faucet payout, 0 disables the faucet")
	f.String(flagTreasurySeed, defaults.TreasurySeed.String(), "Amount minted into the treasury at startup")
	f.Bool(flagNoSeedPools, false, "Start without the default pools")
	f.Duration(flagTickInterval, defaults.TickInterval, "Block interval")
	f.Duration(flagClockOffset, 0, "Shift the service clock, e.g. 720h to reach a withdrawal window")
	f.String(flagLogLevel, zerolog.InfoLevel.String(), "Log level (trace|debug|info|warn|error)")

	return cmd
}

func configFromViper(v *viper.Viper) (*api.Config, error) {
	config := api.DefaultConfig()
	config.Host = v.GetString(flagHost)
	config.Port = v.GetInt(flagPort)
	config.ReadTimeout = v.GetDuration(flagReadTimeout)
	config.WriteTimeout = v.GetDuration(flagWriteTimeout)
	config.RateLimit = v.GetFloat64(flagRateLimit)
	config.RateBurst = v.GetInt(flagRateBurst)
	config.DisableRateLimit = v.GetBool(flagNoRateLimit)
	config.Authority = v.GetString(flagAuthority)
	config.Operator = v.GetString(flagOperator)
	config.ChainID = v.GetString(flagChainID)
	config.SeedPools = !v.GetBool(flagNoSeedPools)
	config.TickInterval = v.GetDuration(flagTickInterval)
	config.ClockOffset = v.GetDuration(flagClockOffset)

	var ok bool
	if config.FaucetAmount, ok = math.NewIntFromString(v.GetString(flagFaucetAmount)); !ok {
		return nil, fmt.Errorf("invalid %s: %s", flagFaucetAmount, v.GetString(flagFaucetAmount))
	}
	if config.TreasurySeed, ok = math.NewIntFromString(v.GetString(flagTreasurySeed)); !ok {
		return nil, fmt.Errorf("invalid %s: %s", flagTreasurySeed, v.GetString(flagTreasurySeed))
	}

	return config, config.Validate()
}
