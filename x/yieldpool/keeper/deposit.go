package keeper

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/hifi/x/yieldpool/types"
)

// Deposit accepts amount into a collecting pool and mints shares for it.
// The deposit that fills the cap also deploys the pool.
func (k *Keeper) Deposit(ctx context.Context, depositor, poolID string, amount math.Int) (*types.DepositResult, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if amount.IsNil() || !amount.IsPositive() {
		return nil, types.ErrZeroAmount
	}

	pool := k.GetPool(sdkCtx, poolID)
	if pool == nil {
		return nil, types.ErrPoolNotFound.Wrap(poolID)
	}
	if pool.Phase != types.PhaseCollecting {
		return nil, types.ErrInvalidState.Wrapf("pool %s is %s", poolID, pool.Phase)
	}
	if pool.TotalDeposits.Add(amount).GT(pool.Cap) {
		return nil, types.ErrCapExceeded.Wrapf("room %s, deposit %s", pool.Cap.Sub(pool.TotalDeposits), amount)
	}

	shares := pool.SharesForDeposit(amount)
	if err := k.collect(sdkCtx, pool, depositor, amount); err != nil {
		return nil, err
	}

	k.mintShares(sdkCtx, pool, depositor, shares)
	pool.TotalDeposits = pool.TotalDeposits.Add(amount)
	pool.Reserves = pool.Reserves.Add(amount)
	pool.UpdatedAt = sdkCtx.BlockTime().Unix()

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeDeposit,
			sdk.NewAttribute(types.AttributeKeyPoolID, poolID),
			sdk.NewAttribute(types.AttributeKeyOwner, depositor),
			sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
			sdk.NewAttribute(types.AttributeKeyShares, shares.String()),
		),
	)

	deployed := false
	if pool.IsCapReached() {
		if err := k.deploy(sdkCtx, pool); err != nil {
			return nil, err
		}
		deployed = true
	}
	k.SetPool(sdkCtx, pool)

	k.logger.Info("Deposit processed",
		"pool_id", poolID,
		"depositor", depositor,
		"amount", amount.String(),
		"shares", shares.String(),
		"deployed", deployed,
	)

	return &types.DepositResult{
		PoolID:    poolID,
		Depositor: depositor,
		Amount:    amount,
		Shares:    shares,
		Deployed:  deployed,
	}, nil
}
