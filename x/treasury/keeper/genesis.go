package keeper

import (
	"encoding/binary"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/hifi/x/treasury/types"
)

// InitGenesis loads the config, fund and event log
func (k *Keeper) InitGenesis(ctx sdk.Context, gs types.GenesisState) {
	k.SetConfig(ctx, gs.Config)
	if gs.Fund != nil {
		k.SetFund(ctx, gs.Fund)
	}
	var maxSeq uint64
	for i := range gs.Events {
		k.setEvent(ctx, &gs.Events[i])
		if gs.Events[i].Sequence > maxSeq {
			maxSeq = gs.Events[i].Sequence
		}
	}
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, maxSeq)
	k.GetStore(ctx).Set(EventCounterKey, bz)
}

// ExportGenesis dumps the treasury state. Events are exported oldest first.
func (k *Keeper) ExportGenesis(ctx sdk.Context) *types.GenesisState {
	gs := &types.GenesisState{Config: k.GetConfig(ctx), Fund: k.GetFund(ctx)}
	events := k.GetEvents(ctx, 0)
	for i := len(events) - 1; i >= 0; i-- {
		gs.Events = append(gs.Events, *events[i])
	}
	return gs
}
