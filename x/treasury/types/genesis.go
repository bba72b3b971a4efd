package types

import (
	"fmt"
)

// GenesisState is the treasury genesis state
type GenesisState struct {
	Config Config  `json:"config"`
	Fund   *Fund   `json:"fund,omitempty"`
	Events []Event `json:"events"`
}

// DefaultGenesis returns an empty treasury
func DefaultGenesis() *GenesisState {
	return &GenesisState{Config: DefaultConfig()}
}

// Validate checks the genesis state
func (gs GenesisState) Validate() error {
	if err := gs.Config.Validate(); err != nil {
		return err
	}
	if gs.Fund != nil {
		if gs.Fund.Balance.IsNil() || gs.Fund.Balance.IsNegative() {
			return fmt.Errorf("%w: negative fund balance", ErrInvalidParams)
		}
		if gs.Fund.Denom != gs.Config.Denom {
			return fmt.Errorf("%w: fund denom %s does not match %s", ErrInvalidParams, gs.Fund.Denom, gs.Config.Denom)
		}
	}
	seqs := make(map[uint64]bool, len(gs.Events))
	for _, ev := range gs.Events {
		if seqs[ev.Sequence] {
			return fmt.Errorf("%w: duplicate event %d", ErrInvalidParams, ev.Sequence)
		}
		seqs[ev.Sequence] = true
	}
	return nil
}
