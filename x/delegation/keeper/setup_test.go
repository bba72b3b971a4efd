package keeper

import (
	"errors"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/hifi/x/delegation/types"
)

var (
	genesisTime = time.Unix(1_700_000_000, 0)

	owner    = testAddr("owner")
	agent    = testAddr("agent")
	stranger = testAddr("stranger")
	alice    = testAddr("alice")
	bob      = testAddr("bob")
)

func testAddr(name string) string {
	bz := make([]byte, 20)
	copy(bz, name)
	return sdk.AccAddress(bz).String()
}

var errPoolFailure = errors.New("pool rejected withdrawal")

// mockPool keeps share balances in its own store so cache context rollback
// is observable. Payouts are twice the shares.
type mockPool struct {
	key    storetypes.StoreKey
	closed map[string]bool
	fail   bool
}

func (m *mockPool) sharesKey(poolID, owner string) []byte {
	return []byte(poolID + ":" + owner)
}

func (m *mockPool) setShares(ctx sdk.Context, poolID, owner string, shares int64) {
	ctx.KVStore(m.key).Set(m.sharesKey(poolID, owner), []byte(math.NewInt(shares).String()))
}

func (m *mockPool) HasPool(_ sdk.Context, poolID string) bool {
	return poolID == "p1" || poolID == "p2"
}

func (m *mockPool) IsWithdrawOpen(_ sdk.Context, poolID string) (bool, error) {
	return !m.closed[poolID], nil
}

func (m *mockPool) GetShares(ctx sdk.Context, poolID, owner string) math.Int {
	bz := ctx.KVStore(m.key).Get(m.sharesKey(poolID, owner))
	if bz == nil {
		return math.ZeroInt()
	}
	v, _ := math.NewIntFromString(string(bz))
	return v
}

func (m *mockPool) WithdrawFor(ctx sdk.Context, grantor, poolID string, shares math.Int) (math.Int, error) {
	held := m.GetShares(ctx, poolID, grantor)
	ctx.KVStore(m.key).Set(m.sharesKey(poolID, grantor), []byte(held.Sub(shares).String()))
	if m.fail {
		return math.Int{}, errPoolFailure
	}
	return shares.MulRaw(2), nil
}

type fixture struct {
	ctx    sdk.Context
	keeper *Keeper
	pool   *mockPool
}

func setupKeeper(t require.TestingT) *fixture {
	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	poolKey := storetypes.NewKVStoreKey("mockpool")
	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	stateStore.MountStoreWithDB(poolKey, storetypes.StoreTypeIAVL, db)
	require.NoError(t, stateStore.LoadLatestVersion())

	ctx := sdk.NewContext(stateStore, cmtproto.Header{Time: genesisTime, Height: 1, ChainID: "hifi-test"}, false, log.NewNopLogger())
	cdc := codec.NewProtoCodec(codectypes.NewInterfaceRegistry())

	pool := &mockPool{key: poolKey, closed: map[string]bool{}}
	k := NewKeeper(cdc, storeKey, pool, owner, log.NewNopLogger())
	require.NoError(t, k.AddAgentOperator(ctx, owner, agent))

	return &fixture{ctx: ctx, keeper: k, pool: pool}
}

func (f *fixture) advance(d time.Duration) {
	f.ctx = f.ctx.WithBlockTime(f.ctx.BlockTime().Add(d)).WithBlockHeight(f.ctx.BlockHeight() + 1)
}

func (f *fixture) grant(t require.TestingT, grantor, poolID string, capability types.Capability, maxAmount int64, maxUses uint64) *types.Grant {
	g, err := f.keeper.GrantPermission(f.ctx, GrantRequest{
		Grantor:         grantor,
		PoolID:          poolID,
		Capability:      capability,
		DurationSeconds: 3_600,
		MaxAmount:       math.NewInt(maxAmount),
		MaxUses:         maxUses,
	})
	require.NoError(t, err)
	return g
}

func countEvents(ctx sdk.Context, eventType string) int {
	n := 0
	for _, ev := range ctx.EventManager().Events() {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}
