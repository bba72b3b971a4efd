package cli

import (
	"encoding/json"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"

	"github.com/openalpha/hifi/pkg/apiclient"
	"github.com/openalpha/hifi/x/yieldpool/types"
)

const (
	flagStrategy = "strategy"
	flagWrapped  = "wrapped"
	flagDenom    = "denom"
)

// GetTxCmd returns the transaction commands for the yieldpool module
func GetTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Yield pool transaction commands",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdCreatePool(),
		CmdDeposit(),
		CmdDeploy(),
		CmdWithdraw(),
		CmdWithdrawAll(),
		CmdSetCap(),
		CmdTransferOwnership(),
		CmdResetPool(),
	)

	return cmd
}

// addSubmitFlags adds the key selection flags and the hifi-api address.
// Pool writes are not carried in chain transactions; the signer's address
// is read from the keyring and the message is sent to hifi-api.
func addSubmitFlags(cmd *cobra.Command) {
	flags.AddTxFlagsToCmd(cmd)
	addAPIFlag(cmd)
}

func poolPath(poolID, action string) string {
	return "/v1/pools/" + url.PathEscape(poolID) + "/" + action
}

// submit validates msg, posts it to hifi-api and prints the response
func submit(cmd *cobra.Command, path string, msg interface{ ValidateBasic() error }) error {
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

// CmdCreatePool returns the command to create a pool
func CmdCreatePool() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-pool [pool-id] [name] [tier] [cap] [owner]",
		Short: "Create a yield pool (module authority only)",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}
			strategy, _ := cmd.Flags().GetString(flagStrategy)
			wrapped, _ := cmd.Flags().GetBool(flagWrapped)
			denom, _ := cmd.Flags().GetString(flagDenom)

			msg := &types.MsgCreatePool{
				Authority: clientCtx.GetFromAddress().String(),
				PoolID:    args[0],
				Name:      args[1],
				Tier:      args[2],
				Cap:       args[3],
				Owner:     args[4],
				Denom:     denom,
				Strategy:  strategy,
				Wrapped:   wrapped,
			}
			return submit(cmd, "/v1/pools", msg)
		},
	}

	cmd.Flags().String(flagStrategy, types.StrategySimulated, "Strategy backing the pool (simulated|venue)")
	cmd.Flags().Bool(flagWrapped, false, "Hold deposits in wrapped form")
	cmd.Flags().String(flagDenom, types.DefaultDenom, "Deposit denom")
	addSubmitFlags(cmd)
	return cmd
}

// CmdDeposit returns the command to deposit into a pool
func CmdDeposit() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit [pool-id] [amount]",
		Short: "Deposit into a collecting pool",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}
			msg := &types.MsgDeposit{
				Depositor: clientCtx.GetFromAddress().String(),
				PoolID:    args[0],
				Amount:    args[1],
			}
			return submit(cmd, poolPath(args[0], "deposit"), msg)
		},
	}

	addSubmitFlags(cmd)
	return cmd
}

// CmdDeploy returns the command to deploy a full pool
func CmdDeploy() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy [pool-id]",
		Short: "Deploy a pool whose cap has been reached",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}
			msg := &types.MsgDeployToStrategy{
				Caller: clientCtx.GetFromAddress().String(),
				PoolID: args[0],
			}
			return submit(cmd, poolPath(args[0], "deploy"), msg)
		},
	}

	addSubmitFlags(cmd)
	return cmd
}

// CmdWithdraw returns the command to burn shares for their value
func CmdWithdraw() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdraw [pool-id] [shares]",
		Short: "Withdraw shares while the pool's window is open",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}
			msg := &types.MsgWithdraw{
				Owner:  clientCtx.GetFromAddress().String(),
				PoolID: args[0],
				Shares: args[1],
			}
			return submit(cmd, poolPath(args[0], "withdraw"), msg)
		},
	}

	addSubmitFlags(cmd)
	return cmd
}

// CmdWithdrawAll returns the command to withdraw a whole position
func CmdWithdrawAll() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdraw-all [pool-id]",
		Short: "Withdraw every share held in a pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}
			msg := &types.MsgWithdrawAll{
				Owner:  clientCtx.GetFromAddress().String(),
				PoolID: args[0],
			}
			return submit(cmd, poolPath(args[0], "withdraw-all"), msg)
		},
	}

	addSubmitFlags(cmd)
	return cmd
}

// CmdSetCap returns the command to change a pool's cap
func CmdSetCap() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-cap [pool-id] [cap]",
		Short: "Change the cap of a collecting pool (owner only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}
			msg := &types.MsgSetCap{
				Owner:  clientCtx.GetFromAddress().String(),
				PoolID: args[0],
				Cap:    args[1],
			}
			return submit(cmd, poolPath(args[0], "cap"), msg)
		},
	}

	addSubmitFlags(cmd)
	return cmd
}

// CmdTransferOwnership returns the command to hand a pool to a new owner
func CmdTransferOwnership() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer-ownership [pool-id] [new-owner]",
		Short: "Transfer pool administration (owner only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}
			msg := &types.MsgTransferOwnership{
				Owner:    clientCtx.GetFromAddress().String(),
				PoolID:   args[0],
				NewOwner: args[1],
			}
			return submit(cmd, poolPath(args[0], "owner"), msg)
		},
	}

	addSubmitFlags(cmd)
	return cmd
}

// CmdResetPool returns the command to cancel a collecting round
func CmdResetPool() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset-pool [pool-id]",
		Short: "Refund every holder of a collecting pool (owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}
			msg := &types.MsgResetPool{
				Owner:  clientCtx.GetFromAddress().String(),
				PoolID: args[0],
			}
			return submit(cmd, poolPath(args[0], "reset"), msg)
		},
	}

	addSubmitFlags(cmd)
	return cmd
}
