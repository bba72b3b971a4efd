package app

import (
	"encoding/json"
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"

	delegationtypes "github.com/openalpha/hifi/x/delegation/types"
	treasurytypes "github.com/openalpha/hifi/x/treasury/types"
	yieldpooltypes "github.com/openalpha/hifi/x/yieldpool/types"
)

// GenesisState is the raw app genesis keyed by module name
type GenesisState map[string]json.RawMessage

// NewDefaultGenesisState returns the default genesis of every basic module
func NewDefaultGenesisState(app *App) GenesisState {
	return app.BasicModuleManager.DefaultGenesis(app.appCodec)
}

// initModuleGenesis loads bank balances and the custom modules, then seeds
// the default pools when genesis declares none
func (app *App) initModuleGenesis(ctx sdk.Context, genesisState map[string]json.RawMessage) error {
	if bz, ok := genesisState[banktypes.ModuleName]; ok && len(bz) > 0 {
		var bankGenesis banktypes.GenesisState
		if err := app.appCodec.UnmarshalJSON(bz, &bankGenesis); err != nil {
			return fmt.Errorf("failed to unmarshal bank genesis: %w", err)
		}
		app.BankKeeper.InitGenesis(ctx, &bankGenesis)
	}

	treasuryGenesis := treasurytypes.DefaultGenesis()
	if err := decodeGenesis(genesisState, treasurytypes.ModuleName, treasuryGenesis); err != nil {
		return err
	}
	app.TreasuryKeeper.InitGenesis(ctx, *treasuryGenesis)

	poolGenesis := yieldpooltypes.DefaultGenesis()
	if err := decodeGenesis(genesisState, yieldpooltypes.ModuleName, poolGenesis); err != nil {
		return err
	}
	app.YieldPoolKeeper.InitGenesis(ctx, *poolGenesis)
	if len(poolGenesis.Pools) == 0 {
		app.YieldPoolKeeper.InitDefaultPools(ctx)
	}

	delegationGenesis := delegationtypes.DefaultGenesis()
	if err := decodeGenesis(genesisState, delegationtypes.ModuleName, delegationGenesis); err != nil {
		return err
	}
	app.DelegationKeeper.InitGenesis(ctx, *delegationGenesis)

	app.Logger().Info("custom module genesis loaded",
		"pools", len(app.YieldPoolKeeper.GetAllPools(ctx)),
		"grants", len(delegationGenesis.Grants),
		"operators", len(delegationGenesis.Operators),
	)
	return nil
}

func decodeGenesis(genesisState map[string]json.RawMessage, module string, target interface{ Validate() error }) error {
	bz, ok := genesisState[module]
	if !ok || len(bz) == 0 {
		return nil
	}
	if err := json.Unmarshal(bz, target); err != nil {
		return fmt.Errorf("failed to unmarshal %s genesis state: %w", module, err)
	}
	return target.Validate()
}
