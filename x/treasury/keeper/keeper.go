package keeper

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/hifi/x/treasury/types"
)

// Store key prefixes
var (
	FundKeyPrefix   = []byte{0x10}
	ConfigKey       = []byte{0x11}
	EventKeyPrefix  = []byte{0x12}
	EventCounterKey = []byte{0x13}
)

// Keeper manages the treasury fund
type Keeper struct {
	cdc        codec.BinaryCodec
	storeKey   storetypes.StoreKey
	bankKeeper types.BankKeeper
	logger     log.Logger
}

// NewKeeper creates a new treasury keeper
func NewKeeper(
	cdc codec.BinaryCodec,
	storeKey storetypes.StoreKey,
	bankKeeper types.BankKeeper,
	logger log.Logger,
) *Keeper {
	return &Keeper{
		cdc:        cdc,
		storeKey:   storeKey,
		bankKeeper: bankKeeper,
		logger:     logger.With("module", "x/treasury"),
	}
}

// Logger returns the module logger
func (k *Keeper) Logger() log.Logger {
	return k.logger
}

// GetStore returns the KVStore
func (k *Keeper) GetStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

// ============ Config ============

// SetConfig saves the treasury configuration
func (k *Keeper) SetConfig(ctx sdk.Context, config types.Config) {
	bz, _ := json.Marshal(config)
	k.GetStore(ctx).Set(ConfigKey, bz)
}

// GetConfig retrieves the treasury configuration
func (k *Keeper) GetConfig(ctx sdk.Context) types.Config {
	bz := k.GetStore(ctx).Get(ConfigKey)
	if bz == nil {
		return types.DefaultConfig()
	}
	var config types.Config
	if err := json.Unmarshal(bz, &config); err != nil {
		return types.DefaultConfig()
	}
	return config
}

// ============ Fund ============

// FundKey is the store key of a fund
func FundKey(fundID string) []byte {
	return append(append([]byte{}, FundKeyPrefix...), fundID...)
}

// SetFund saves a fund
func (k *Keeper) SetFund(ctx sdk.Context, fund *types.Fund) {
	bz, _ := json.Marshal(fund)
	k.GetStore(ctx).Set(FundKey(fund.FundID), bz)
}

// GetFund returns the treasury fund, creating it empty on first use
func (k *Keeper) GetFund(ctx sdk.Context) *types.Fund {
	bz := k.GetStore(ctx).Get(FundKey(types.GlobalFundID))
	if bz != nil {
		var fund types.Fund
		if err := json.Unmarshal(bz, &fund); err == nil {
			return &fund
		}
	}
	return types.NewFund(types.GlobalFundID, k.GetConfig(ctx).Denom)
}

// ============ Event Log ============

func (k *Keeper) nextEventSequence(ctx sdk.Context) uint64 {
	store := k.GetStore(ctx)
	var counter uint64
	if bz := store.Get(EventCounterKey); bz != nil {
		counter = binary.BigEndian.Uint64(bz)
	}
	counter++
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, counter)
	store.Set(EventCounterKey, bz)
	return counter
}

func eventKey(seq uint64) []byte {
	return append(append([]byte{}, EventKeyPrefix...), fmt.Sprintf("%020d", seq)...)
}

func (k *Keeper) recordEvent(ctx sdk.Context, fund *types.Fund, eventType types.EventType, amount math.Int, relatedID string) *types.Event {
	seq := k.nextEventSequence(ctx)
	event := &types.Event{
		EventID:   fmt.Sprintf("treasury-event-%d", seq),
		Sequence:  seq,
		FundID:    fund.FundID,
		EventType: eventType,
		Amount:    amount,
		RelatedID: relatedID,
		Balance:   fund.Balance,
		Timestamp: ctx.BlockTime().Unix(),
	}
	k.setEvent(ctx, event)
	return event
}

func (k *Keeper) setEvent(ctx sdk.Context, event *types.Event) {
	bz, _ := json.Marshal(event)
	k.GetStore(ctx).Set(eventKey(event.Sequence), bz)
}

// GetEvents returns the most recent events, newest first. A non-positive
// limit returns all of them.
func (k *Keeper) GetEvents(ctx sdk.Context, limit int) []*types.Event {
	iterator := storetypes.KVStoreReversePrefixIterator(k.GetStore(ctx), EventKeyPrefix)
	defer iterator.Close()

	var events []*types.Event
	for ; iterator.Valid(); iterator.Next() {
		if limit > 0 && len(events) >= limit {
			break
		}
		var event types.Event
		if err := json.Unmarshal(iterator.Value(), &event); err != nil {
			continue
		}
		events = append(events, &event)
	}
	return events
}
