package app

import (
	"encoding/json"
	"fmt"

	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	servertypes "github.com/cosmos/cosmos-sdk/server/types"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"

	delegationtypes "github.com/openalpha/hifi/x/delegation/types"
	treasurytypes "github.com/openalpha/hifi/x/treasury/types"
	yieldpooltypes "github.com/openalpha/hifi/x/yieldpool/types"
)

// ExportAppStateAndValidators exports bank balances and the custom module
// state at the last committed height. Validators are not exported.
func (app *App) ExportAppStateAndValidators(modulesToExport []string) (servertypes.ExportedApp, error) {
	ctx := app.NewContextLegacy(true, cmtproto.Header{Height: app.LastBlockHeight()})

	include := func(name string) bool {
		if len(modulesToExport) == 0 {
			return true
		}
		for _, m := range modulesToExport {
			if m == name {
				return true
			}
		}
		return false
	}

	genState := make(GenesisState)
	if include(banktypes.ModuleName) {
		genState[banktypes.ModuleName] = app.appCodec.MustMarshalJSON(app.BankKeeper.ExportGenesis(ctx))
	}

	custom := map[string]interface{}{
		yieldpooltypes.ModuleName:  app.YieldPoolKeeper.ExportGenesis(ctx),
		delegationtypes.ModuleName: app.DelegationKeeper.ExportGenesis(ctx),
		treasurytypes.ModuleName:   app.TreasuryKeeper.ExportGenesis(ctx),
	}
	for name, gs := range custom {
		if !include(name) {
			continue
		}
		bz, err := json.Marshal(gs)
		if err != nil {
			return servertypes.ExportedApp{}, fmt.Errorf("failed to export %s genesis: %w", name, err)
		}
		genState[name] = bz
	}

	appState, err := json.MarshalIndent(genState, "", "  ")
	if err != nil {
		return servertypes.ExportedApp{}, err
	}

	return servertypes.ExportedApp{
		AppState:        appState,
		Height:          app.LastBlockHeight() + 1,
		ConsensusParams: app.GetConsensusParams(ctx),
	}, nil
}
