package keeper

import (
	"encoding/binary"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/hifi/x/delegation/types"
)

// InitGenesis loads params, operators, grants and the action log. An empty
// owner falls back to the module authority.
func (k *Keeper) InitGenesis(ctx sdk.Context, gs types.GenesisState) {
	params := gs.Params
	if params.Owner == "" {
		params.Owner = k.authority
	}
	k.SetParams(ctx, params)

	for i := range gs.Operators {
		k.SetOperator(ctx, &gs.Operators[i])
	}
	for i := range gs.Grants {
		k.SetGrant(ctx, &gs.Grants[i])
	}

	var maxSeq uint64
	for i := range gs.Records {
		k.setRecord(ctx, &gs.Records[i])
		if gs.Records[i].Sequence > maxSeq {
			maxSeq = gs.Records[i].Sequence
		}
	}
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, maxSeq)
	k.GetStore(ctx).Set(ActionRecordCounterKey, bz)
}

// ExportGenesis dumps the registry state
func (k *Keeper) ExportGenesis(ctx sdk.Context) *types.GenesisState {
	gs := &types.GenesisState{Params: k.GetParams(ctx)}
	for _, op := range k.GetAllOperators(ctx) {
		gs.Operators = append(gs.Operators, *op)
	}
	for _, g := range k.GetAllGrants(ctx) {
		gs.Grants = append(gs.Grants, *g)
	}
	for _, r := range k.GetAllActionRecords(ctx) {
		gs.Records = append(gs.Records, *r)
	}
	return gs
}
