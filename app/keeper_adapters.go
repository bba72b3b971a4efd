package app

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	delegationtypes "github.com/openalpha/hifi/x/delegation/types"
	yieldpoolkeeper "github.com/openalpha/hifi/x/yieldpool/keeper"
)

type delegationPoolAdapter struct {
	keeper *yieldpoolkeeper.Keeper
}

// NewDelegationPoolAdapter exposes the yield pools to the delegated executor
func NewDelegationPoolAdapter(keeper *yieldpoolkeeper.Keeper) delegationtypes.PoolKeeper {
	return delegationPoolAdapter{keeper: keeper}
}

func (a delegationPoolAdapter) HasPool(ctx sdk.Context, poolID string) bool {
	if a.keeper == nil {
		return false
	}
	return a.keeper.GetPool(ctx, poolID) != nil
}

func (a delegationPoolAdapter) IsWithdrawOpen(ctx sdk.Context, poolID string) (bool, error) {
	return a.keeper.IsWithdrawOpen(ctx, poolID)
}

func (a delegationPoolAdapter) GetShares(ctx sdk.Context, poolID, owner string) math.Int {
	return a.keeper.GetShares(ctx, poolID, owner)
}

func (a delegationPoolAdapter) WithdrawFor(ctx sdk.Context, grantor, poolID string, shares math.Int) (math.Int, error) {
	res, err := a.keeper.WithdrawFor(ctx, grantor, poolID, shares)
	if err != nil {
		return math.ZeroInt(), err
	}
	return res.Payout, nil
}
