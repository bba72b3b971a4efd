package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/hifi/x/yieldpool/types"
)

// WrappedDenomPrefix marks the wrapped form of a denom held by the module
const WrappedDenomPrefix = "w"

// BankWrapper wraps deposits 1:1 by burning the underlying denom in the
// module account and minting the wrapped denom in its place.
type BankWrapper struct {
	bank types.BankKeeper
}

// NewBankWrapper creates a bank-backed wrapper
func NewBankWrapper(bank types.BankKeeper) BankWrapper {
	return BankWrapper{bank: bank}
}

// Wrap implements types.WrapperKeeper
func (w BankWrapper) Wrap(ctx sdk.Context, moduleName, denom string, amount math.Int) error {
	if err := w.bank.BurnCoins(ctx, moduleName, sdk.NewCoins(sdk.NewCoin(denom, amount))); err != nil {
		return err
	}
	return w.bank.MintCoins(ctx, moduleName, sdk.NewCoins(sdk.NewCoin(WrappedDenomPrefix+denom, amount)))
}

// Unwrap implements types.WrapperKeeper
func (w BankWrapper) Unwrap(ctx sdk.Context, moduleName, denom string, amount math.Int) error {
	if err := w.bank.BurnCoins(ctx, moduleName, sdk.NewCoins(sdk.NewCoin(WrappedDenomPrefix+denom, amount))); err != nil {
		return err
	}
	return w.bank.MintCoins(ctx, moduleName, sdk.NewCoins(sdk.NewCoin(denom, amount)))
}

// collect moves amount from the depositor into the module account
func (k *Keeper) collect(ctx sdk.Context, pool *types.Pool, depositor string, amount math.Int) error {
	addr, err := sdk.AccAddressFromBech32(depositor)
	if err != nil {
		return types.ErrInvalidAddress.Wrapf("depositor: %s", err)
	}
	coins := sdk.NewCoins(sdk.NewCoin(pool.Denom, amount))
	if err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, addr, types.ModuleName, coins); err != nil {
		return types.ErrTransferFailed.Wrapf("deposit: %s", err)
	}
	return k.wrap(ctx, pool, amount)
}

// pay moves amount from the module account to recipient
func (k *Keeper) pay(ctx sdk.Context, pool *types.Pool, recipient string, amount math.Int) error {
	if !amount.IsPositive() {
		return nil
	}
	addr, err := sdk.AccAddressFromBech32(recipient)
	if err != nil {
		return types.ErrInvalidAddress.Wrapf("recipient: %s", err)
	}
	if err := k.unwrap(ctx, pool, amount); err != nil {
		return err
	}
	coins := sdk.NewCoins(sdk.NewCoin(pool.Denom, amount))
	if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, addr, coins); err != nil {
		return types.ErrTransferFailed.Wrapf("payout: %s", err)
	}
	return nil
}

func (k *Keeper) wrap(ctx sdk.Context, pool *types.Pool, amount math.Int) error {
	if !pool.Wrapped || !amount.IsPositive() {
		return nil
	}
	if k.wrapperKeeper == nil {
		return types.ErrTransferFailed.Wrap("wrapper not configured")
	}
	if err := k.wrapperKeeper.Wrap(ctx, types.ModuleName, pool.Denom, amount); err != nil {
		return types.ErrTransferFailed.Wrapf("wrap: %s", err)
	}
	return nil
}

func (k *Keeper) unwrap(ctx sdk.Context, pool *types.Pool, amount math.Int) error {
	if !pool.Wrapped || !amount.IsPositive() {
		return nil
	}
	if k.wrapperKeeper == nil {
		return types.ErrTransferFailed.Wrap("wrapper not configured")
	}
	if err := k.wrapperKeeper.Unwrap(ctx, types.ModuleName, pool.Denom, amount); err != nil {
		return types.ErrTransferFailed.Wrapf("unwrap: %s", err)
	}
	return nil
}

// coverPayout makes sure the pool holds at least payout in reserves, pulling
// from the venue first and then from the treasury. It returns the amount the
// treasury funded.
func (k *Keeper) coverPayout(ctx sdk.Context, pool *types.Pool, payout math.Int) (math.Int, error) {
	if pool.Strategy == types.StrategyVenue && k.venueKeeper != nil {
		if need := payout.Sub(pool.Reserves); need.IsPositive() {
			got, err := k.venueKeeper.Withdraw(ctx, pool.PoolID, need)
			if err != nil {
				return math.ZeroInt(), types.ErrTransferFailed.Wrapf("venue withdraw: %s", err)
			}
			pool.Reserves = pool.Reserves.Add(got)
		}
	}

	shortfall := payout.Sub(pool.Reserves)
	if !shortfall.IsPositive() {
		return math.ZeroInt(), nil
	}
	if k.fundingKeeper == nil || !k.fundingKeeper.CanFundAmount(ctx, pool.PoolID, shortfall) {
		return math.ZeroInt(), types.ErrFundingInsufficient.Wrapf("pool %s short %s", pool.PoolID, shortfall)
	}
	if err := k.fundingKeeper.FundYield(ctx, pool.PoolID, types.ModuleName, shortfall); err != nil {
		return math.ZeroInt(), types.ErrFundingInsufficient.Wrapf("fund yield: %s", err)
	}
	if err := k.wrap(ctx, pool, shortfall); err != nil {
		return math.ZeroInt(), err
	}
	pool.Reserves = pool.Reserves.Add(shortfall)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeYieldFunded,
			sdk.NewAttribute(types.AttributeKeyPoolID, pool.PoolID),
			sdk.NewAttribute(types.AttributeKeyAmount, shortfall.String()),
		),
	)
	return shortfall, nil
}

// sweepReserves returns whatever a reset pool still holds to the treasury
func (k *Keeper) sweepReserves(ctx sdk.Context, pool *types.Pool) error {
	if pool.Strategy == types.StrategyVenue && k.venueKeeper != nil {
		if bal := k.venueKeeper.BalanceOf(ctx, pool.PoolID); bal.IsPositive() {
			got, err := k.venueKeeper.Withdraw(ctx, pool.PoolID, bal)
			if err != nil {
				return types.ErrTransferFailed.Wrapf("venue sweep: %s", err)
			}
			pool.Reserves = pool.Reserves.Add(got)
		}
	}

	leftover := pool.Reserves
	if !leftover.IsPositive() || k.fundingKeeper == nil {
		return nil
	}
	if err := k.unwrap(ctx, pool, leftover); err != nil {
		return err
	}
	if err := k.fundingKeeper.Replenish(ctx, pool.PoolID, types.ModuleName, leftover); err != nil {
		return types.ErrTransferFailed.Wrapf("sweep to treasury: %s", err)
	}
	pool.Reserves = math.ZeroInt()
	return nil
}
