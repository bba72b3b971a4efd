package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"

	"github.com/openalpha/hifi/pkg/apiclient"
	"github.com/openalpha/hifi/x/delegation/types"
)

// FlagAPI is the hifi-api address queries are sent to
const FlagAPI = "api"

const flagLimit = "limit"

// GetQueryCmd returns the cli query commands for the delegation module
func GetQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Querying commands for the delegation module",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdQueryGrants(),
		CmdQueryPermission(),
		CmdQueryUserPools(),
		CmdQueryActions(),
		CmdQueryOperators(),
		CmdQueryRegistry(),
	)

	return cmd
}

func newQueryCmd(use, short string, args cobra.PositionalArgs, run func(cmd *cobra.Command, args []string) error) *cobra.Command {
	cmd := &cobra.Command{Use: use, Short: short, Args: args, RunE: run}
	cmd.Flags().String(FlagAPI, apiclient.DefaultConfig().BaseURL, "hifi-api base URL")
	return cmd
}

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

// CmdQueryGrants returns the command to list a grantor's permissions
func CmdQueryGrants() *cobra.Command {
	return newQueryCmd("grants [grantor]", "List every permission a grantor has made", cobra.ExactArgs(1),
		func(cmd *cobra.Command, args []string) error {
			return query(cmd, "/v1/permissions/"+url.PathEscape(args[0]), nil)
		})
}

// CmdQueryPermission returns the command to show one permission and whether it is valid now
func CmdQueryPermission() *cobra.Command {
	return newQueryCmd("permission [grantor] [pool-id] [capability]", "Show one permission", cobra.ExactArgs(3),
		func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/v1/permissions/%s/%s/%s",
				url.PathEscape(args[0]), url.PathEscape(args[1]), url.PathEscape(args[2]))
			return query(cmd, path, nil)
		})
}

// CmdQueryUserPools returns the command to list pools a grantor has granted on
func CmdQueryUserPools() *cobra.Command {
	return newQueryCmd("user-pools [grantor]", "List pools a grantor has granted permissions on", cobra.ExactArgs(1),
		func(cmd *cobra.Command, args []string) error {
			return query(cmd, "/v1/permissions/"+url.PathEscape(args[0])+"/pools", nil)
		})
}

// CmdQueryActions returns the command to show a grantor's delegated action history
func CmdQueryActions() *cobra.Command {
	cmd := newQueryCmd("actions [grantor]", "Show delegated actions taken for a grantor, newest first", cobra.ExactArgs(1),
		func(cmd *cobra.Command, args []string) error {
			params := url.Values{"grantor": {args[0]}}
			if limit, _ := cmd.Flags().GetInt(flagLimit); limit > 0 {
				params.Set("limit", strconv.Itoa(limit))
			}
			return query(cmd, "/v1/actions", params)
		})
	cmd.Flags().Int(flagLimit, 0, "Most records to return (0 = all)")
	return cmd
}

// CmdQueryOperators returns the command to list operators
func CmdQueryOperators() *cobra.Command {
	return newQueryCmd("operators", "List registered agent operators", cobra.NoArgs,
		func(cmd *cobra.Command, args []string) error {
			return query(cmd, "/v1/operators", nil)
		})
}

// CmdQueryRegistry returns the command to show registry params
func CmdQueryRegistry() *cobra.Command {
	return newQueryCmd("registry", "Show registry owner, pause state and max duration", cobra.NoArgs,
		func(cmd *cobra.Command, args []string) error {
			return query(cmd, "/v1/registry", nil)
		})
}
