package types

import (
	"fmt"
)

// GenesisState is the delegation genesis state
type GenesisState struct {
	Params    Params         `json:"params"`
	Operators []Operator     `json:"operators"`
	Grants    []Grant        `json:"grants"`
	Records   []ActionRecord `json:"records"`
}

// DefaultGenesis returns a genesis with default params and no owner; the app
// fills in the authority as owner when none is given.
func DefaultGenesis() *GenesisState {
	return &GenesisState{Params: DefaultParams("")}
}

// Validate checks for duplicates and malformed entries
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return err
	}

	operators := make(map[string]bool, len(gs.Operators))
	for _, op := range gs.Operators {
		if operators[op.Address] {
			return fmt.Errorf("%w: duplicate operator %s", ErrOperatorExists, op.Address)
		}
		operators[op.Address] = true
	}

	grants := make(map[string]bool, len(gs.Grants))
	for _, g := range gs.Grants {
		if _, err := ParseCapability(string(g.Capability)); err != nil {
			return err
		}
		key := g.Grantor + "/" + g.PoolID + "/" + string(g.Capability)
		if grants[key] {
			return fmt.Errorf("%w: duplicate grant %s", ErrInvalidParams, key)
		}
		grants[key] = true
		if g.MaxUses != 0 && g.UsedCount > g.MaxUses {
			return fmt.Errorf("%w: grant %s used beyond its cap", ErrInvalidParams, key)
		}
	}

	seqs := make(map[uint64]bool, len(gs.Records))
	for _, r := range gs.Records {
		if seqs[r.Sequence] {
			return fmt.Errorf("%w: duplicate action record %d", ErrInvalidParams, r.Sequence)
		}
		seqs[r.Sequence] = true
	}
	return nil
}
