package keeper

import (
	"context"
	"strconv"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/hifi/x/delegation/types"
)

func (k *Keeper) requireOwner(ctx sdk.Context, caller string) (types.Params, error) {
	params := k.GetParams(ctx)
	if caller != params.Owner {
		return params, types.ErrUnauthorized.Wrapf("%s is not the registry owner", caller)
	}
	return params, nil
}

// AddAgentOperator registers an operator
func (k *Keeper) AddAgentOperator(ctx context.Context, owner, operator string) error {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if _, err := k.requireOwner(sdkCtx, owner); err != nil {
		return err
	}
	if k.IsOperator(sdkCtx, operator) {
		return types.ErrOperatorExists.Wrap(operator)
	}
	k.SetOperator(sdkCtx, &types.Operator{
		Address: operator,
		AddedAt: sdkCtx.BlockTime().Unix(),
	})

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(types.EventTypeOperatorAdded, sdk.NewAttribute(types.AttributeKeyOperator, operator)),
	)
	k.logger.Info("operator added", "operator", operator)
	return nil
}

// RemoveAgentOperator deregisters an operator. Its grants' history is kept.
func (k *Keeper) RemoveAgentOperator(ctx context.Context, owner, operator string) error {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if _, err := k.requireOwner(sdkCtx, owner); err != nil {
		return err
	}
	if !k.IsOperator(sdkCtx, operator) {
		return types.ErrOperatorNotFound.Wrap(operator)
	}
	k.GetStore(sdkCtx).Delete(prefixedKey(OperatorKeyPrefix, operator))

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(types.EventTypeOperatorRemoved, sdk.NewAttribute(types.AttributeKeyOperator, operator)),
	)
	k.logger.Info("operator removed", "operator", operator)
	return nil
}

// SetPaused toggles the emergency pause
func (k *Keeper) SetPaused(ctx context.Context, owner string, paused bool) (types.Params, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	params, err := k.requireOwner(sdkCtx, owner)
	if err != nil {
		return params, err
	}
	params.Paused = paused
	k.SetParams(sdkCtx, params)

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(types.EventTypeParamsUpdated, sdk.NewAttribute(types.AttributeKeyPaused, strconv.FormatBool(paused))),
	)
	k.logger.Info("registry pause updated", "paused", paused)
	return params, nil
}

// SetMaxPermissionDuration changes the longest grant duration. Existing
// grants keep their expiry.
func (k *Keeper) SetMaxPermissionDuration(ctx context.Context, owner string, seconds int64) (types.Params, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	params, err := k.requireOwner(sdkCtx, owner)
	if err != nil {
		return params, err
	}
	params.MaxPermissionDuration = seconds
	if err := params.Validate(); err != nil {
		return k.GetParams(sdkCtx), err
	}
	k.SetParams(sdkCtx, params)

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(types.EventTypeParamsUpdated, sdk.NewAttribute(types.AttributeKeyDuration, strconv.FormatInt(seconds, 10))),
	)
	return params, nil
}

// TransferRegistryOwnership hands the registry to newOwner
func (k *Keeper) TransferRegistryOwnership(ctx context.Context, owner, newOwner string) (types.Params, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	params, err := k.requireOwner(sdkCtx, owner)
	if err != nil {
		return params, err
	}
	if newOwner == "" {
		return params, types.ErrInvalidAddress.Wrap("empty owner")
	}
	params.Owner = newOwner
	k.SetParams(sdkCtx, params)

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(types.EventTypeOwnershipTransfer, sdk.NewAttribute(types.AttributeKeyOwner, newOwner)),
	)
	k.logger.Info("registry ownership transferred", "from", owner, "to", newOwner)
	return params, nil
}
