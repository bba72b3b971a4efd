package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/hifi/x/yieldpool/types"
)

// InitGenesis loads pools and share accounts
func (k *Keeper) InitGenesis(ctx sdk.Context, gs types.GenesisState) {
	for i := range gs.Pools {
		k.SetPool(ctx, &gs.Pools[i])
	}
	for _, acct := range gs.Accounts {
		k.setShares(ctx, acct.PoolID, acct.Owner, acct.Shares)
	}
}

// ExportGenesis dumps pools and share accounts
func (k *Keeper) ExportGenesis(ctx sdk.Context) *types.GenesisState {
	gs := types.DefaultGenesis()
	for _, pool := range k.GetAllPools(ctx) {
		gs.Pools = append(gs.Pools, *pool)
	}
	gs.Accounts = k.GetAllAccounts(ctx)
	return gs
}
