package types

import (
	"fmt"

	"cosmossdk.io/math"
)

// GenesisState is the yieldpool genesis state
type GenesisState struct {
	Pools    []Pool         `json:"pools"`
	Accounts []ShareAccount `json:"accounts"`
}

// DefaultGenesis returns an empty genesis; default pools are created by the
// app at chain init once the authority is known.
func DefaultGenesis() *GenesisState {
	return &GenesisState{}
}

// Validate checks that share accounts reference known pools and add up
func (gs GenesisState) Validate() error {
	totals := make(map[string]math.Int, len(gs.Pools))
	for _, p := range gs.Pools {
		if _, dup := totals[p.PoolID]; dup {
			return fmt.Errorf("%w: duplicate pool %s", ErrPoolAlreadyExists, p.PoolID)
		}
		if err := p.Params.Validate(); err != nil {
			return fmt.Errorf("pool %s: %w", p.PoolID, err)
		}
		totals[p.PoolID] = math.ZeroInt()
	}
	for _, a := range gs.Accounts {
		sum, ok := totals[a.PoolID]
		if !ok {
			return fmt.Errorf("%w: account %s references %s", ErrPoolNotFound, a.Owner, a.PoolID)
		}
		if a.Shares.IsNil() || a.Shares.IsNegative() {
			return fmt.Errorf("%w: negative shares for %s", ErrInvalidParams, a.Owner)
		}
		totals[a.PoolID] = sum.Add(a.Shares)
	}
	for _, p := range gs.Pools {
		if !totals[p.PoolID].Equal(p.TotalShares) {
			return fmt.Errorf("%w: pool %s share accounts sum to %s, pool records %s",
				ErrInvalidParams, p.PoolID, totals[p.PoolID], p.TotalShares)
		}
	}
	return nil
}
