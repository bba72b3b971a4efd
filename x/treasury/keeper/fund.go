package keeper

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/hifi/x/treasury/types"
)

// Deposit moves coins from depositor into the treasury
func (k *Keeper) Deposit(ctx context.Context, depositor string, amount math.Int) (*types.Fund, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if amount.IsNil() || !amount.IsPositive() {
		return nil, types.ErrZeroAmount
	}
	addr, err := sdk.AccAddressFromBech32(depositor)
	if err != nil {
		return nil, types.ErrInvalidAddress.Wrap(err.Error())
	}

	fund := k.GetFund(sdkCtx)
	coins := sdk.NewCoins(sdk.NewCoin(fund.Denom, amount))
	if err := k.bankKeeper.SendCoinsFromAccountToModule(sdkCtx, addr, types.ModuleName, coins); err != nil {
		return nil, types.ErrTransferFailed.Wrap(err.Error())
	}

	fund.Deposit(amount, sdkCtx.BlockTime().Unix())
	k.SetFund(sdkCtx, fund)
	k.recordEvent(sdkCtx, fund, types.EventDeposit, amount, depositor)
	k.emit(sdkCtx, types.EventTypeDeposit, fund, amount, depositor)
	return fund, nil
}

// CanFundAmount reports whether the treasury can pay amount toward poolID's
// yield without dipping into its minimum balance
func (k *Keeper) CanFundAmount(ctx sdk.Context, poolID string, amount math.Int) bool {
	return k.GetFund(ctx).Available(k.GetConfig(ctx).MinBalance).GTE(amount)
}

// FundYield pays amount to recipientModule to cover yield owed by poolID
func (k *Keeper) FundYield(ctx sdk.Context, poolID, recipientModule string, amount math.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return types.ErrZeroAmount
	}
	if !k.CanFundAmount(ctx, poolID, amount) {
		return types.ErrInsufficientFunds.Wrapf("pool %s needs %s", poolID, amount)
	}

	fund := k.GetFund(ctx)
	coins := sdk.NewCoins(sdk.NewCoin(fund.Denom, amount))
	if err := k.bankKeeper.SendCoinsFromModuleToModule(ctx, types.ModuleName, recipientModule, coins); err != nil {
		return types.ErrTransferFailed.Wrap(err.Error())
	}
	fund.Withdraw(amount, ctx.BlockTime().Unix())
	k.SetFund(ctx, fund)
	k.recordEvent(ctx, fund, types.EventYieldFunding, amount.Neg(), poolID)
	k.emit(ctx, types.EventTypeYieldFunding, fund, amount, poolID)

	k.logger.Info("yield funded",
		"pool_id", poolID,
		"amount", amount.String(),
		"balance", fund.Balance.String(),
	)
	return nil
}

// Replenish takes back amount from senderModule when poolID resets with
// coins left over
func (k *Keeper) Replenish(ctx sdk.Context, poolID, senderModule string, amount math.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return types.ErrZeroAmount
	}

	fund := k.GetFund(ctx)
	coins := sdk.NewCoins(sdk.NewCoin(fund.Denom, amount))
	if err := k.bankKeeper.SendCoinsFromModuleToModule(ctx, senderModule, types.ModuleName, coins); err != nil {
		return types.ErrTransferFailed.Wrap(err.Error())
	}
	fund.Deposit(amount, ctx.BlockTime().Unix())
	k.SetFund(ctx, fund)
	k.recordEvent(ctx, fund, types.EventLossSweep, amount, poolID)
	k.emit(ctx, types.EventTypeLossSweep, fund, amount, poolID)
	return nil
}

func (k *Keeper) emit(ctx sdk.Context, eventType string, fund *types.Fund, amount math.Int, relatedID string) {
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			eventType,
			sdk.NewAttribute(types.AttributeKeyFundID, fund.FundID),
			sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
			sdk.NewAttribute(types.AttributeKeyRelatedID, relatedID),
			sdk.NewAttribute(types.AttributeKeyNewBalance, fund.Balance.String()),
		),
	)
}
