package keeper

import (
	"encoding/json"
	"strconv"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/hifi/x/yieldpool/types"
)

// Store key prefixes
var (
	PoolKeyPrefix         = []byte{0x01}
	ShareAccountKeyPrefix = []byte{0x02}
	NAVHistoryKeyPrefix   = []byte{0x03}
)

// Keeper manages the yieldpool module state
type Keeper struct {
	cdc           codec.BinaryCodec
	storeKey      storetypes.StoreKey
	bankKeeper    types.BankKeeper
	fundingKeeper types.FundingKeeper
	wrapperKeeper types.WrapperKeeper
	venueKeeper   types.VenueKeeper
	entropy       types.EntropySource
	logger        log.Logger
	authority     string
}

// NewKeeper creates a new yieldpool keeper
func NewKeeper(
	cdc codec.BinaryCodec,
	storeKey storetypes.StoreKey,
	bankKeeper types.BankKeeper,
	authority string,
	logger log.Logger,
) *Keeper {
	return &Keeper{
		cdc:        cdc,
		storeKey:   storeKey,
		bankKeeper: bankKeeper,
		entropy:    BlockEntropy{},
		authority:  authority,
		logger:     logger.With("module", "x/yieldpool"),
	}
}

// SetFundingKeeper sets the treasury used to cover yield shortfalls
func (k *Keeper) SetFundingKeeper(fk types.FundingKeeper) {
	k.fundingKeeper = fk
}

// SetWrapperKeeper sets the wrapped-asset adapter
func (k *Keeper) SetWrapperKeeper(wk types.WrapperKeeper) {
	k.wrapperKeeper = wk
}

// SetVenueKeeper sets the external yield venue
func (k *Keeper) SetVenueKeeper(vk types.VenueKeeper) {
	k.venueKeeper = vk
}

// SetEntropySource replaces the entropy source used by the risk engine
func (k *Keeper) SetEntropySource(src types.EntropySource) {
	k.entropy = src
}

// Logger returns the module logger
func (k *Keeper) Logger() log.Logger {
	return k.logger
}

// GetAuthority returns the governance authority address
func (k *Keeper) GetAuthority() string {
	return k.authority
}

// GetStore returns the KVStore
func (k *Keeper) GetStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

func prefixedKey(prefix []byte, parts ...string) []byte {
	key := make([]byte, len(prefix), len(prefix)+32)
	copy(key, prefix)
	for i, p := range parts {
		if i > 0 {
			key = append(key, ':')
		}
		key = append(key, p...)
	}
	return key
}

// ============ Pool Operations ============

// PoolKey is the store key of a pool
func PoolKey(poolID string) []byte {
	return prefixedKey(PoolKeyPrefix, poolID)
}

// SetPool saves a pool to the store
func (k *Keeper) SetPool(ctx sdk.Context, pool *types.Pool) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(pool)
	store.Set(PoolKey(pool.PoolID), bz)
}

// GetPool retrieves a pool from the store
func (k *Keeper) GetPool(ctx sdk.Context, poolID string) *types.Pool {
	store := k.GetStore(ctx)
	bz := store.Get(PoolKey(poolID))
	if bz == nil {
		return nil
	}
	var pool types.Pool
	if err := json.Unmarshal(bz, &pool); err != nil {
		return nil
	}
	return &pool
}

// GetAllPools returns all pools
func (k *Keeper) GetAllPools(ctx sdk.Context) []*types.Pool {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, PoolKeyPrefix)
	defer iterator.Close()

	var pools []*types.Pool
	for ; iterator.Valid(); iterator.Next() {
		var pool types.Pool
		if err := json.Unmarshal(iterator.Value(), &pool); err != nil {
			continue
		}
		pools = append(pools, &pool)
	}
	return pools
}

// GetPoolsByTier returns pools filtered by risk tier
func (k *Keeper) GetPoolsByTier(ctx sdk.Context, tier string) []*types.Pool {
	var filtered []*types.Pool
	for _, pool := range k.GetAllPools(ctx) {
		if pool.Tier == tier {
			filtered = append(filtered, pool)
		}
	}
	return filtered
}

// ============ Share Ledger ============

// GetShares returns owner's share balance in a pool
func (k *Keeper) GetShares(ctx sdk.Context, poolID, owner string) math.Int {
	store := k.GetStore(ctx)
	bz := store.Get(prefixedKey(ShareAccountKeyPrefix, poolID, owner))
	if bz == nil {
		return math.ZeroInt()
	}
	var acct types.ShareAccount
	if err := json.Unmarshal(bz, &acct); err != nil || acct.Shares.IsNil() {
		return math.ZeroInt()
	}
	return acct.Shares
}

// setShares writes owner's balance; a zero balance removes the account
func (k *Keeper) setShares(ctx sdk.Context, poolID, owner string, shares math.Int) {
	store := k.GetStore(ctx)
	key := prefixedKey(ShareAccountKeyPrefix, poolID, owner)
	if shares.IsZero() {
		store.Delete(key)
		return
	}
	bz, _ := json.Marshal(types.ShareAccount{PoolID: poolID, Owner: owner, Shares: shares})
	store.Set(key, bz)
}

// mintShares credits shares to owner and the pool total
func (k *Keeper) mintShares(ctx sdk.Context, pool *types.Pool, owner string, shares math.Int) {
	k.setShares(ctx, pool.PoolID, owner, k.GetShares(ctx, pool.PoolID, owner).Add(shares))
	pool.TotalShares = pool.TotalShares.Add(shares)
}

// burnShares debits shares from owner and the pool total
func (k *Keeper) burnShares(ctx sdk.Context, pool *types.Pool, owner string, shares math.Int) error {
	balance := k.GetShares(ctx, pool.PoolID, owner)
	if balance.LT(shares) {
		return types.ErrInsufficientShares.Wrapf("have %s, need %s", balance, shares)
	}
	k.setShares(ctx, pool.PoolID, owner, balance.Sub(shares))
	pool.TotalShares = pool.TotalShares.Sub(shares)
	return nil
}

// GetPoolAccounts returns every share account in a pool
func (k *Keeper) GetPoolAccounts(ctx sdk.Context, poolID string) []types.ShareAccount {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, prefixedKey(ShareAccountKeyPrefix, poolID+":"))
	defer iterator.Close()

	var accounts []types.ShareAccount
	for ; iterator.Valid(); iterator.Next() {
		var acct types.ShareAccount
		if err := json.Unmarshal(iterator.Value(), &acct); err != nil {
			continue
		}
		accounts = append(accounts, acct)
	}
	return accounts
}

// GetAllAccounts returns every share account
func (k *Keeper) GetAllAccounts(ctx sdk.Context) []types.ShareAccount {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, ShareAccountKeyPrefix)
	defer iterator.Close()

	var accounts []types.ShareAccount
	for ; iterator.Valid(); iterator.Next() {
		var acct types.ShareAccount
		if err := json.Unmarshal(iterator.Value(), &acct); err != nil {
			continue
		}
		accounts = append(accounts, acct)
	}
	return accounts
}

// GetUserPositions returns owner's non-zero share accounts across all pools
func (k *Keeper) GetUserPositions(ctx sdk.Context, owner string) []types.ShareAccount {
	var positions []types.ShareAccount
	for _, pool := range k.GetAllPools(ctx) {
		shares := k.GetShares(ctx, pool.PoolID, owner)
		if shares.IsPositive() {
			positions = append(positions, types.ShareAccount{PoolID: pool.PoolID, Owner: owner, Shares: shares})
		}
	}
	return positions
}

// ============ NAV History ============

// navHistoryKey orders records by time within a pool
func navHistoryKey(poolID string, timestamp int64) []byte {
	return prefixedKey(NAVHistoryKeyPrefix, poolID, padTimestamp(timestamp))
}

func padTimestamp(ts int64) string {
	s := strconv.FormatInt(ts, 10)
	for len(s) < 12 {
		s = "0" + s
	}
	return s
}

// AddNAVHistory records a valuation point
func (k *Keeper) AddNAVHistory(ctx sdk.Context, history *types.NAVHistory) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(history)
	store.Set(navHistoryKey(history.PoolID, history.Timestamp), bz)
}

// GetNAVHistory returns a pool's valuation points in [fromTime, toTime]; a
// zero bound is open.
func (k *Keeper) GetNAVHistory(ctx sdk.Context, poolID string, fromTime, toTime int64) []*types.NAVHistory {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, prefixedKey(NAVHistoryKeyPrefix, poolID+":"))
	defer iterator.Close()

	var history []*types.NAVHistory
	for ; iterator.Valid(); iterator.Next() {
		var h types.NAVHistory
		if err := json.Unmarshal(iterator.Value(), &h); err != nil {
			continue
		}
		if (fromTime == 0 || h.Timestamp >= fromTime) && (toTime == 0 || h.Timestamp <= toTime) {
			history = append(history, &h)
		}
	}
	return history
}

func (k *Keeper) recordNAV(ctx sdk.Context, pool *types.Pool) {
	k.AddNAVHistory(ctx, &types.NAVHistory{
		PoolID:      pool.PoolID,
		Timestamp:   ctx.BlockTime().Unix(),
		TotalAssets: pool.TotalAssets(),
		PnL:         pool.AccumulatedPnL,
		Phase:       pool.Phase,
	})
}
