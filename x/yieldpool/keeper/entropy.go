package keeper

import (
	"encoding/binary"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// BlockEntropy feeds the block header hash into risk draws, falling back to
// the block height when the context carries no hash. Anyone who can see the
// block can predict it.
type BlockEntropy struct{}

// Entropy implements types.EntropySource
func (BlockEntropy) Entropy(ctx sdk.Context) []byte {
	if hash := ctx.HeaderHash(); len(hash) > 0 {
		return hash
	}
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, uint64(ctx.BlockHeight()))
	return bz
}

func (k *Keeper) entropyFor(ctx sdk.Context) []byte {
	if k.entropy == nil {
		return BlockEntropy{}.Entropy(ctx)
	}
	return k.entropy.Entropy(ctx)
}
