package types

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// BankKeeper defines the expected interface for the bank module
type BankKeeper interface {
	SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error
	SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error
	MintCoins(ctx context.Context, moduleName string, amt sdk.Coins) error
	BurnCoins(ctx context.Context, moduleName string, amt sdk.Coins) error
}

// FundingKeeper tops up pool reserves when accrued yield exceeds the coins the
// pool actually holds, and takes back leftovers when a pool resets.
type FundingKeeper interface {
	CanFundAmount(ctx sdk.Context, poolID string, amount math.Int) bool
	FundYield(ctx sdk.Context, poolID, recipientModule string, amount math.Int) error
	Replenish(ctx sdk.Context, poolID, senderModule string, amount math.Int) error
}

// WrapperKeeper converts between a deposited asset and the wrapped form the
// pool accounts in. Conversions are 1:1.
type WrapperKeeper interface {
	Wrap(ctx sdk.Context, moduleName, denom string, amount math.Int) error
	Unwrap(ctx sdk.Context, moduleName, denom string, amount math.Int) error
}

// VenueKeeper is an external yield source used by venue-strategy pools
type VenueKeeper interface {
	Deposit(ctx sdk.Context, poolID string, amount math.Int) error
	Withdraw(ctx sdk.Context, poolID string, amount math.Int) (math.Int, error)
	BalanceOf(ctx sdk.Context, poolID string) math.Int
}

// EntropySource supplies the network value mixed into risk draws. It is not
// a secure randomness source.
type EntropySource interface {
	Entropy(ctx sdk.Context) []byte
}
