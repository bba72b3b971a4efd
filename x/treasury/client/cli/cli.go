package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"

	"github.com/openalpha/hifi/pkg/apiclient"
	"github.com/openalpha/hifi/x/treasury/types"
)

const (
	flagAPI   = "api"
	flagLimit = "limit"
)

// GetTxCmd returns the transaction commands for the treasury module
func GetTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Treasury transaction commands",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}
	cmd.AddCommand(CmdFund())
	return cmd
}

// CmdFund returns the command to deposit into the treasury
func CmdFund() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fund [amount]",
		Short: "Deposit coins into the treasury that backs pool yield",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}
			msg := &types.MsgFundTreasury{
				Depositor: clientCtx.GetFromAddress().String(),
				Amount:    args[0],
			}
			if err := msg.ValidateBasic(); err != nil {
				return err
			}

			var out json.RawMessage
			if err := newClient(cmd).Post(cmd.Context(), "/v1/treasury/fund", msg, &out); err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	// Key selection only; the deposit is sent to hifi-api, not broadcast
	flags.AddTxFlagsToCmd(cmd)
	cmd.Flags().String(flagAPI, apiclient.DefaultConfig().BaseURL, "hifi-api base URL")
	return cmd
}

// GetQueryCmd returns the cli query commands for the treasury module
func GetQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Querying commands for the treasury module",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}
	cmd.AddCommand(CmdQueryFund(), CmdQueryEvents())
	return cmd
}

func newClient(cmd *cobra.Command) *apiclient.Client {
	cfg := apiclient.DefaultConfig()
	if base, _ := cmd.Flags().GetString(flagAPI); base != "" {
		cfg.BaseURL = base
	}
	return apiclient.NewClient(cfg)
}

func query(cmd *cobra.Command, path string, params url.Values) error {
	var out json.RawMessage
	if err := newClient(cmd).Get(cmd.Context(), path, params, &out); err != nil {
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

// CmdQueryFund returns the command to show the treasury balance
func CmdQueryFund() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fund",
		Short: "Show the treasury balance and totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return query(cmd, "/v1/treasury", nil)
		},
	}
	cmd.Flags().String(flagAPI, apiclient.DefaultConfig().BaseURL, "hifi-api base URL")
	return cmd
}

// CmdQueryEvents returns the command to show the treasury event log
func CmdQueryEvents() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show treasury deposits, yield funding and sweeps, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params := url.Values{}
			if limit, _ := cmd.Flags().GetInt(flagLimit); limit > 0 {
				params.Set("limit", strconv.Itoa(limit))
			}
			return query(cmd, "/v1/treasury/events", params)
		},
	}
	cmd.Flags().String(flagAPI, apiclient.DefaultConfig().BaseURL, "hifi-api base URL")
	cmd.Flags().Int(flagLimit, 50, "Most events to return (0 = all)")
	return cmd
}
