package cli

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"

	"github.com/openalpha/hifi/pkg/apiclient"
	"github.com/openalpha/hifi/x/yieldpool/types"
)

// FlagAPI is the hifi-api address queries are sent to
const FlagAPI = "api"

// GetQueryCmd returns the cli query commands for the yieldpool module
func GetQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Querying commands for the yieldpool module",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdQueryPools(),
		CmdQueryPool(),
		CmdQueryRiskMetrics(),
		CmdQueryNAVHistory(),
		CmdQueryPreviewWithdraw(),
		CmdQueryPositions(),
	)

	return cmd
}

func addAPIFlag(cmd *cobra.Command) {
	cmd.Flags().String(FlagAPI, apiclient.DefaultConfig().BaseURL, "hifi-api base URL")
}

// query runs a GET against the API and prints the JSON result
func query(cmd *cobra.Command, path string, params url.Values) error {
	cfg := apiclient.DefaultConfig()
	if base, _ := cmd.Flags().GetString(FlagAPI); base != "" {
		cfg.BaseURL = base
	}

	var out json.RawMessage
	if err := apiclient.NewClient(cfg).Get(cmd.Context(), path, params, &out); err != nil {
		return err
	}
	return printJSON(cmd, out)
}

func printJSON(cmd *cobra.Command, out json.RawMessage) error {
	output, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(output))
	return nil
}

// CmdQueryPools returns the command to list pools
func CmdQueryPools() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pools",
		Short: "List all pools, optionally filtered by tier",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := url.Values{}
			if tier, _ := cmd.Flags().GetString("tier"); tier != "" {
				params.Set("tier", tier)
			}
			return query(cmd, "/v1/pools", params)
		},
	}

	cmd.Flags().String("tier", "", "Only list pools of this tier")
	addAPIFlag(cmd)
	return cmd
}

// CmdQueryPool returns the command to show one pool
func CmdQueryPool() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool [pool-id]",
		Short: "Show a pool with PnL accrued to now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return query(cmd, "/v1/pools/"+url.PathEscape(args[0]), nil)
		},
	}

	addAPIFlag(cmd)
	return cmd
}

// CmdQueryRiskMetrics returns the command to show a pool's risk metrics
func CmdQueryRiskMetrics() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "risk-metrics [pool-id]",
		Short: "Show volatility, drawdown and time in market for a pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return query(cmd, "/v1/pools/"+url.PathEscape(args[0])+"/metrics", nil)
		},
	}

	addAPIFlag(cmd)
	return cmd
}

// CmdQueryNAVHistory returns the command to show NAV snapshots
func CmdQueryNAVHistory() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nav-history [pool-id]",
		Short: "Show recorded NAV snapshots for a pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := url.Values{}
			if since, _ := cmd.Flags().GetInt64("since"); since > 0 {
				params.Set("since", fmt.Sprint(since))
			}
			if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 {
				params.Set("limit", fmt.Sprint(limit))
			}
			return query(cmd, "/v1/pools/"+url.PathEscape(args[0])+"/nav", params)
		},
	}

	cmd.Flags().Int64("since", 0, "Only snapshots at or after this unix time")
	cmd.Flags().Int("limit", 0, "Maximum number of snapshots")
	addAPIFlag(cmd)
	return cmd
}

// CmdQueryPreviewWithdraw returns the command to preview a payout
func CmdQueryPreviewWithdraw() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview-withdraw [pool-id] [shares]",
		Short: "Show what burning shares would pay right now",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return query(cmd, "/v1/pools/"+url.PathEscape(args[0])+"/preview", url.Values{"shares": {args[1]}})
		},
	}

	addAPIFlag(cmd)
	return cmd
}

// CmdQueryPositions returns the command to list a user's positions
func CmdQueryPositions() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "positions [address]",
		Short: "List an address's positions across all pools",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return query(cmd, "/v1/users/"+url.PathEscape(args[0])+"/positions", nil)
		},
	}

	addAPIFlag(cmd)
	return cmd
}
