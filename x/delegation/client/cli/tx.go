package cli

import (
	"encoding/json"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"

	"github.com/openalpha/hifi/pkg/apiclient"
	"github.com/openalpha/hifi/x/delegation/types"
)

const (
	flagDuration  = "duration"
	flagMaxAmount = "max-amount"
	flagMaxUses   = "max-uses"
	flagThreshold = "threshold-bps"
)

// GetTxCmd returns the transaction commands for the delegation module
func GetTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Permission delegation transaction commands",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdGrant(),
		CmdRevoke(),
		CmdRevokeAll(),
		CmdExtend(),
		CmdExecuteWithdrawal(),
		CmdExecuteStopLoss(),
		CmdAddOperator(),
		CmdRemoveOperator(),
		CmdSetPaused(),
		CmdSetMaxDuration(),
		CmdTransferRegistryOwnership(),
	)

	return cmd
}

type message interface {
	ValidateBasic() error
}

// addSubmitFlags adds the key selection flags and the hifi-api address.
// Registry writes are not carried in chain transactions; the signer's
// address is read from the keyring and the message is sent to hifi-api.
func addSubmitFlags(cmd *cobra.Command) {
	flags.AddTxFlagsToCmd(cmd)
	cmd.Flags().String(FlagAPI, apiclient.DefaultConfig().BaseURL, "hifi-api base URL")
}

// submit builds a message for the --from account, validates it, posts it to
// hifi-api and prints the response
func submit(cmd *cobra.Command, path string, build func(from string) message) error {
	clientCtx, err := client.GetClientTxContext(cmd)
	if err != nil {
		return err
	}
	msg := build(clientCtx.GetFromAddress().String())
	if err := msg.ValidateBasic(); err != nil {
		return err
	}

	cfg := apiclient.DefaultConfig()
	if base, _ := cmd.Flags().GetString(FlagAPI); base != "" {
		cfg.BaseURL = base
	}
	var out json.RawMessage
	if err := apiclient.NewClient(cfg).Post(cmd.Context(), path, msg, &out); err != nil {
		return err
	}
	return printJSON(cmd, out)
}

// CmdGrant returns the command to grant a permission
func CmdGrant() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grant [pool-id] [capability]",
		Short: "Let registered operators act on your position (WITHDRAW or STOP_LOSS)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			duration, _ := cmd.Flags().GetInt64(flagDuration)
			maxAmount, _ := cmd.Flags().GetString(flagMaxAmount)
			maxUses, _ := cmd.Flags().GetUint64(flagMaxUses)
			threshold, _ := cmd.Flags().GetUint64(flagThreshold)
			return submit(cmd, "/v1/permissions", func(from string) message {
				return &types.MsgGrantPermission{
					Grantor:         from,
					PoolID:          args[0],
					Capability:      args[1],
					DurationSeconds: duration,
					MaxAmount:       maxAmount,
					MaxUses:         maxUses,
					ThresholdBps:    threshold,
				}
			})
		},
	}

	cmd.Flags().Int64(flagDuration, 0, "Grant lifetime in seconds (0 = registry maximum)")
	cmd.Flags().String(flagMaxAmount, "0", "Most shares per execution (0 = unlimited)")
	cmd.Flags().Uint64(flagMaxUses, 0, "Most executions (0 = unlimited)")
	cmd.Flags().Uint64(flagThreshold, 0, "Loss in bps that should trigger a stop-loss")
	addSubmitFlags(cmd)
	return cmd
}

// CmdRevoke returns the command to revoke one permission
func CmdRevoke() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke [pool-id] [capability]",
		Short: "Disable a permission",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return submit(cmd, "/v1/permissions/revoke", func(from string) message {
				return &types.MsgRevokePermission{Grantor: from, PoolID: args[0], Capability: args[1]}
			})
		},
	}
	addSubmitFlags(cmd)
	return cmd
}

// CmdRevokeAll returns the command to revoke every permission
func CmdRevokeAll() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke-all",
		Short: "Disable every permission you have granted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return submit(cmd, "/v1/permissions/revoke-all", func(from string) message {
				return &types.MsgRevokeAllPermissions{Grantor: from}
			})
		},
	}
	addSubmitFlags(cmd)
	return cmd
}

// CmdExtend returns the command to extend a permission
func CmdExtend() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extend [pool-id] [capability] [extra-seconds]",
		Short: "Push a permission's expiry out",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			extra, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return err
			}
			return submit(cmd, "/v1/permissions/extend", func(from string) message {
				return &types.MsgExtendPermission{Grantor: from, PoolID: args[0], Capability: args[1], ExtraSeconds: extra}
			})
		},
	}
	addSubmitFlags(cmd)
	return cmd
}

// CmdExecuteWithdrawal returns the command for an operator to withdraw for a grantor
func CmdExecuteWithdrawal() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "execute-withdrawal [grantor] [pool-id] [shares]",
		Short: "Withdraw shares on a grantor's behalf (operators only)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return submit(cmd, "/v1/execute/withdraw", func(from string) message {
				return &types.MsgExecuteWithdrawal{Operator: from, Grantor: args[0], PoolID: args[1], Shares: args[2]}
			})
		},
	}
	addSubmitFlags(cmd)
	return cmd
}

// CmdExecuteStopLoss returns the command for an operator to close a grantor's position
func CmdExecuteStopLoss() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "execute-stop-loss [grantor] [pool-id]",
		Short: "Withdraw a grantor's whole position (operators only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return submit(cmd, "/v1/execute/stop-loss", func(from string) message {
				return &types.MsgExecuteStopLoss{Operator: from, Grantor: args[0], PoolID: args[1]}
			})
		},
	}
	addSubmitFlags(cmd)
	return cmd
}

// CmdAddOperator returns the command to register an operator
func CmdAddOperator() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-operator [address]",
		Short: "Register an agent operator (registry owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return submit(cmd, "/v1/operators", func(from string) message {
				return &types.MsgAddOperator{Owner: from, Operator: args[0]}
			})
		},
	}
	addSubmitFlags(cmd)
	return cmd
}

// CmdRemoveOperator returns the command to deregister an operator
func CmdRemoveOperator() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove-operator [address]",
		Short: "Deregister an agent operator (registry owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return submit(cmd, "/v1/operators/remove", func(from string) message {
				return &types.MsgRemoveOperator{Owner: from, Operator: args[0]}
			})
		},
	}
	addSubmitFlags(cmd)
	return cmd
}

// CmdSetPaused returns the command to pause or resume the registry
func CmdSetPaused() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-paused [true|false]",
		Short: "Pause or resume grants and executions (registry owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paused, err := strconv.ParseBool(args[0])
			if err != nil {
				return err
			}
			return submit(cmd, "/v1/registry/pause", func(from string) message {
				return &types.MsgSetPaused{Owner: from, Paused: paused}
			})
		},
	}
	addSubmitFlags(cmd)
	return cmd
}

// CmdSetMaxDuration returns the command to change the longest grant duration
func CmdSetMaxDuration() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-max-duration [seconds]",
		Short: "Set the longest permission duration (registry owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return err
			}
			return submit(cmd, "/v1/registry/max-duration", func(from string) message {
				return &types.MsgSetMaxPermissionDuration{Owner: from, Seconds: seconds}
			})
		},
	}
	addSubmitFlags(cmd)
	return cmd
}

// CmdTransferRegistryOwnership returns the command to hand over the registry
func CmdTransferRegistryOwnership() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer-ownership [new-owner]",
		Short: "Transfer registry ownership (registry owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return submit(cmd, "/v1/registry/owner", func(from string) message {
				return &types.MsgTransferRegistryOwnership{Owner: from, NewOwner: args[0]}
			})
		},
	}
	addSubmitFlags(cmd)
	return cmd
}
