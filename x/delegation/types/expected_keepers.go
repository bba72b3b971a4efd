package types

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// PoolKeeper is the pool surface the executor acts through
type PoolKeeper interface {
	HasPool(ctx sdk.Context, poolID string) bool
	IsWithdrawOpen(ctx sdk.Context, poolID string) (bool, error)
	GetShares(ctx sdk.Context, poolID, owner string) math.Int
	// WithdrawFor burns grantor's shares and pays grantor, returning the payout
	WithdrawFor(ctx sdk.Context, grantor, poolID string, shares math.Int) (math.Int, error)
}
