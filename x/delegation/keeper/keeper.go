package keeper

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/google/uuid"
	"github.com/openalpha/hifi/x/delegation/types"
)

// Store key prefixes
var (
	ParamsKey              = []byte{0x01}
	GrantKeyPrefix         = []byte{0x02}
	UserPoolKeyPrefix      = []byte{0x03}
	OperatorKeyPrefix      = []byte{0x04}
	ActionRecordKeyPrefix  = []byte{0x05}
	GrantorActionKeyPrefix = []byte{0x06}
	ActionRecordCounterKey = []byte{0x07}
)

// recordNamespace scopes action record IDs
var recordNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("hifi/delegation/action-record"))

// Keeper manages permission grants, operators and the action log
type Keeper struct {
	cdc        codec.BinaryCodec
	storeKey   storetypes.StoreKey
	poolKeeper types.PoolKeeper
	logger     log.Logger
	authority  string
}

// SetPoolKeeper replaces the pool keeper
func (k *Keeper) SetPoolKeeper(pk types.PoolKeeper) {
	k.poolKeeper = pk
}

// NewKeeper creates a new delegation keeper. authority owns the registry
// until params say otherwise.
func NewKeeper(
	cdc codec.BinaryCodec,
	storeKey storetypes.StoreKey,
	poolKeeper types.PoolKeeper,
	authority string,
	logger log.Logger,
) *Keeper {
	return &Keeper{
		cdc:        cdc,
		storeKey:   storeKey,
		poolKeeper: poolKeeper,
		authority:  authority,
		logger:     logger.With("module", "x/delegation"),
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

func prefixedKey(prefix []byte, parts ...string) []byte {
	key := make([]byte, len(prefix), len(prefix)+64)
	copy(key, prefix)
	for i, p := range parts {
		if i > 0 {
			key = append(key, ':')
		}
		key = append(key, p...)
	}
	return key
}

func sequenceString(seq uint64) string {
	return fmt.Sprintf("%020d", seq)
}

// ============ Params ============

// GetParams returns the registry params, defaulting the owner to the
// module authority
func (k *Keeper) GetParams(ctx sdk.Context) types.Params {
	bz := k.GetStore(ctx).Get(ParamsKey)
	if bz == nil {
		return types.DefaultParams(k.authority)
	}
	var params types.Params
	if err := json.Unmarshal(bz, &params); err != nil {
		return types.DefaultParams(k.authority)
	}
	return params
}

// SetParams stores the registry params
func (k *Keeper) SetParams(ctx sdk.Context, params types.Params) {
	bz, _ := json.Marshal(params)
	k.GetStore(ctx).Set(ParamsKey, bz)
}

// ============ Grants ============

// GrantKey is the store key of a grant
func GrantKey(grantor, poolID string, capability types.Capability) []byte {
	return prefixedKey(GrantKeyPrefix, grantor, poolID, string(capability))
}

// SetGrant saves a grant and indexes its pool under the grantor
func (k *Keeper) SetGrant(ctx sdk.Context, grant *types.Grant) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(grant)
	store.Set(GrantKey(grant.Grantor, grant.PoolID, grant.Capability), bz)
	store.Set(prefixedKey(UserPoolKeyPrefix, grant.Grantor, grant.PoolID), []byte{1})
}

// GetPermission returns the grant for (grantor, pool, capability), or nil
func (k *Keeper) GetPermission(ctx sdk.Context, grantor, poolID string, capability types.Capability) *types.Grant {
	bz := k.GetStore(ctx).Get(GrantKey(grantor, poolID, capability))
	if bz == nil {
		return nil
	}
	var grant types.Grant
	if err := json.Unmarshal(bz, &grant); err != nil {
		return nil
	}
	return &grant
}

// GetUserGrants returns every grant a grantor has made
func (k *Keeper) GetUserGrants(ctx sdk.Context, grantor string) []*types.Grant {
	return k.iterateGrants(ctx, prefixedKey(GrantKeyPrefix, grantor+":"))
}

// GetAllGrants returns every grant in the store
func (k *Keeper) GetAllGrants(ctx sdk.Context) []*types.Grant {
	return k.iterateGrants(ctx, GrantKeyPrefix)
}

func (k *Keeper) iterateGrants(ctx sdk.Context, prefix []byte) []*types.Grant {
	iterator := storetypes.KVStorePrefixIterator(k.GetStore(ctx), prefix)
	defer iterator.Close()

	var grants []*types.Grant
	for ; iterator.Valid(); iterator.Next() {
		var grant types.Grant
		if err := json.Unmarshal(iterator.Value(), &grant); err != nil {
			continue
		}
		grants = append(grants, &grant)
	}
	return grants
}

// GetUserPools returns every pool the grantor has ever granted against
func (k *Keeper) GetUserPools(ctx sdk.Context, grantor string) []string {
	prefix := prefixedKey(UserPoolKeyPrefix, grantor+":")
	iterator := storetypes.KVStorePrefixIterator(k.GetStore(ctx), prefix)
	defer iterator.Close()

	var pools []string
	for ; iterator.Valid(); iterator.Next() {
		pools = append(pools, string(iterator.Key()[len(prefix):]))
	}
	return pools
}

// ============ Operators ============

// SetOperator saves an operator
func (k *Keeper) SetOperator(ctx sdk.Context, op *types.Operator) {
	bz, _ := json.Marshal(op)
	k.GetStore(ctx).Set(prefixedKey(OperatorKeyPrefix, op.Address), bz)
}

// GetOperator returns a registered operator, or nil
func (k *Keeper) GetOperator(ctx sdk.Context, address string) *types.Operator {
	bz := k.GetStore(ctx).Get(prefixedKey(OperatorKeyPrefix, address))
	if bz == nil {
		return nil
	}
	var op types.Operator
	if err := json.Unmarshal(bz, &op); err != nil {
		return nil
	}
	return &op
}

// IsOperator reports whether address is a registered operator
func (k *Keeper) IsOperator(ctx sdk.Context, address string) bool {
	return k.GetStore(ctx).Has(prefixedKey(OperatorKeyPrefix, address))
}

// GetAllOperators returns every registered operator
func (k *Keeper) GetAllOperators(ctx sdk.Context) []*types.Operator {
	iterator := storetypes.KVStorePrefixIterator(k.GetStore(ctx), OperatorKeyPrefix)
	defer iterator.Close()

	var ops []*types.Operator
	for ; iterator.Valid(); iterator.Next() {
		var op types.Operator
		if err := json.Unmarshal(iterator.Value(), &op); err != nil {
			continue
		}
		ops = append(ops, &op)
	}
	return ops
}

// ============ Action Records ============

// nextRecordSequence increments and returns the action record counter
func (k *Keeper) nextRecordSequence(ctx sdk.Context) uint64 {
	store := k.GetStore(ctx)
	var seq uint64
	if bz := store.Get(ActionRecordCounterKey); bz != nil {
		seq = binary.BigEndian.Uint64(bz)
	}
	seq++
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, seq)
	store.Set(ActionRecordCounterKey, bz)
	return seq
}

// appendRecord assigns the next sequence and a deterministic ID to record
// and stores it. Records are never updated afterwards.
func (k *Keeper) appendRecord(ctx sdk.Context, record *types.ActionRecord) {
	record.Sequence = k.nextRecordSequence(ctx)
	record.ID = uuid.NewSHA1(recordNamespace, []byte(ctx.ChainID()+":"+sequenceString(record.Sequence))).String()
	k.setRecord(ctx, record)
}

func (k *Keeper) setRecord(ctx sdk.Context, record *types.ActionRecord) {
	store := k.GetStore(ctx)
	seq := sequenceString(record.Sequence)
	bz, _ := json.Marshal(record)
	store.Set(prefixedKey(ActionRecordKeyPrefix, seq), bz)
	store.Set(prefixedKey(GrantorActionKeyPrefix, record.Grantor, seq), []byte(seq))
}

// GetActionRecord returns the record with the given sequence, or nil
func (k *Keeper) GetActionRecord(ctx sdk.Context, sequence uint64) *types.ActionRecord {
	bz := k.GetStore(ctx).Get(prefixedKey(ActionRecordKeyPrefix, sequenceString(sequence)))
	if bz == nil {
		return nil
	}
	var record types.ActionRecord
	if err := json.Unmarshal(bz, &record); err != nil {
		return nil
	}
	return &record
}

// GetAllActionRecords returns every record in sequence order
func (k *Keeper) GetAllActionRecords(ctx sdk.Context) []*types.ActionRecord {
	iterator := storetypes.KVStorePrefixIterator(k.GetStore(ctx), ActionRecordKeyPrefix)
	defer iterator.Close()

	var records []*types.ActionRecord
	for ; iterator.Valid(); iterator.Next() {
		var record types.ActionRecord
		if err := json.Unmarshal(iterator.Value(), &record); err != nil {
			continue
		}
		records = append(records, &record)
	}
	return records
}

// GetUserActionHistory returns the grantor's records, newest first. A
// non-positive limit returns all of them.
func (k *Keeper) GetUserActionHistory(ctx sdk.Context, grantor string, limit int) []*types.ActionRecord {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStoreReversePrefixIterator(store, prefixedKey(GrantorActionKeyPrefix, grantor+":"))
	defer iterator.Close()

	var records []*types.ActionRecord
	for ; iterator.Valid(); iterator.Next() {
		if limit > 0 && len(records) >= limit {
			break
		}
		bz := store.Get(prefixedKey(ActionRecordKeyPrefix, string(iterator.Value())))
		if bz == nil {
			continue
		}
		var record types.ActionRecord
		if err := json.Unmarshal(bz, &record); err != nil {
			continue
		}
		records = append(records, &record)
	}
	return records
}
