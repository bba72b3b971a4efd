package keeper

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/hifi/x/yieldpool/types"
)

// CreatePool creates a pool from config. Only the module authority may call it.
func (k *Keeper) CreatePool(ctx context.Context, authority string, config types.PoolConfig) (*types.Pool, error) {
	if authority != k.authority {
		return nil, types.ErrUnauthorized.Wrapf("expected %s, got %s", k.authority, authority)
	}
	return k.createPool(sdk.UnwrapSDKContext(ctx), config)
}

func (k *Keeper) createPool(ctx sdk.Context, config types.PoolConfig) (*types.Pool, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if k.GetPool(ctx, config.PoolID) != nil {
		return nil, types.ErrPoolAlreadyExists.Wrap(config.PoolID)
	}
	if config.Strategy == types.StrategyVenue && k.venueKeeper == nil {
		return nil, types.ErrVenueUnavailable.Wrap(config.PoolID)
	}

	pool := types.NewPool(config.PoolID, config.Name, config.Owner, config.Denom, config.Tier,
		config.Cap, config.Params, ctx.BlockTime().Unix())
	if config.Strategy != "" {
		pool.Strategy = config.Strategy
	}
	pool.Wrapped = config.Wrapped
	k.SetPool(ctx, pool)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeCreatePool,
			sdk.NewAttribute(types.AttributeKeyPoolID, pool.PoolID),
			sdk.NewAttribute(types.AttributeKeyOwner, pool.Owner),
			sdk.NewAttribute(types.AttributeKeyCap, pool.Cap.String()),
		),
	)

	k.logger.Info("Pool created", "pool_id", pool.PoolID, "tier", pool.Tier, "cap", pool.Cap.String())
	return pool, nil
}

// InitDefaultPools creates one pool per risk tier if missing
func (k *Keeper) InitDefaultPools(ctx sdk.Context) {
	for _, config := range types.DefaultPoolConfigs(k.authority) {
		if k.GetPool(ctx, config.PoolID) != nil {
			continue
		}
		if _, err := k.createPool(ctx, config); err != nil {
			k.logger.Error("Failed to create default pool", "pool_id", config.PoolID, "error", err)
		}
	}
}

func (k *Keeper) ownedPool(ctx sdk.Context, caller, poolID string) (*types.Pool, error) {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return nil, types.ErrPoolNotFound.Wrap(poolID)
	}
	if pool.Owner != caller {
		return nil, types.ErrUnauthorized.Wrapf("%s does not own pool %s", caller, poolID)
	}
	return pool, nil
}

// SetCap changes the cap of a collecting pool. Lowering the cap to exactly
// the collected amount deploys the pool.
func (k *Keeper) SetCap(ctx context.Context, caller, poolID string, newCap math.Int) (bool, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	pool, err := k.ownedPool(sdkCtx, caller, poolID)
	if err != nil {
		return false, err
	}
	if pool.Phase != types.PhaseCollecting {
		return false, types.ErrInvalidState.Wrapf("pool %s is %s", poolID, pool.Phase)
	}
	if newCap.IsNil() || !newCap.IsPositive() {
		return false, types.ErrInvalidParams.Wrap("cap must be positive")
	}
	if newCap.LT(pool.TotalDeposits) {
		return false, types.ErrCapExceeded.Wrapf("cap %s below collected %s", newCap, pool.TotalDeposits)
	}

	pool.Cap = newCap
	pool.UpdatedAt = sdkCtx.BlockTime().Unix()

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeSetCap,
			sdk.NewAttribute(types.AttributeKeyPoolID, poolID),
			sdk.NewAttribute(types.AttributeKeyCap, newCap.String()),
		),
	)

	deployed := false
	if pool.TotalDeposits.IsPositive() && pool.IsCapReached() {
		if err := k.deploy(sdkCtx, pool); err != nil {
			return false, err
		}
		deployed = true
	}
	k.SetPool(sdkCtx, pool)
	return deployed, nil
}

// TransferOwnership hands pool administration to newOwner
func (k *Keeper) TransferOwnership(ctx context.Context, caller, poolID, newOwner string) error {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	pool, err := k.ownedPool(sdkCtx, caller, poolID)
	if err != nil {
		return err
	}
	if newOwner == "" {
		return types.ErrInvalidAddress.Wrap("empty new owner")
	}

	pool.Owner = newOwner
	pool.UpdatedAt = sdkCtx.BlockTime().Unix()
	k.SetPool(sdkCtx, pool)

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeTransferOwnership,
			sdk.NewAttribute(types.AttributeKeyPoolID, poolID),
			sdk.NewAttribute(types.AttributeKeyOwner, newOwner),
		),
	)

	k.logger.Info("Pool ownership transferred", "pool_id", poolID, "from", caller, "to", newOwner)
	return nil
}

// ResetPool cancels the current collecting round and refunds every holder
// pro rata. A pool with live shares outside collecting cannot be reset.
func (k *Keeper) ResetPool(ctx context.Context, caller, poolID string) (math.Int, int, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	pool, err := k.ownedPool(sdkCtx, caller, poolID)
	if err != nil {
		return math.ZeroInt(), 0, err
	}
	if pool.Phase != types.PhaseCollecting && pool.TotalShares.IsPositive() {
		return math.ZeroInt(), 0, types.ErrInvalidState.Wrapf("pool %s has live shares", poolID)
	}

	refunded := math.ZeroInt()
	accounts := k.GetPoolAccounts(sdkCtx, poolID)
	totalShares, totalDeposits := pool.TotalShares, pool.TotalDeposits
	for _, acct := range accounts {
		refund := acct.Shares.Mul(totalDeposits).Quo(totalShares)
		if err := k.burnShares(sdkCtx, pool, acct.Owner, acct.Shares); err != nil {
			return math.ZeroInt(), 0, err
		}
		if err := k.pay(sdkCtx, pool, acct.Owner, refund); err != nil {
			return math.ZeroInt(), 0, err
		}
		pool.Reserves = pool.Reserves.Sub(refund)
		refunded = refunded.Add(refund)
	}

	if err := k.resetPool(sdkCtx, pool); err != nil {
		return math.ZeroInt(), 0, err
	}
	k.SetPool(sdkCtx, pool)

	k.logger.Info("Pool reset by owner",
		"pool_id", poolID,
		"refunded", refunded.String(),
		"holders", len(accounts),
	)
	return refunded, len(accounts), nil
}
