package keeper

import (
	"context"
	"fmt"
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

	"github.com/openalpha/hifi/x/yieldpool/types"
)

var (
	genesisTime = time.Unix(1_700_000_000, 0)

	authority = testAddr("authority")
	alice     = testAddr("alice")
	bob       = testAddr("bob")
	carol     = testAddr("carol")
)

func testAddr(name string) string {
	bz := make([]byte, 20)
	copy(bz, name)
	return sdk.AccAddress(bz).String()
}

type fixedEntropy []byte

func (e fixedEntropy) Entropy(sdk.Context) []byte { return e }

// mockBank is an in-memory coin ledger keyed by bech32 address or module name
type mockBank struct {
	accounts map[string]sdk.Coins
	modules  map[string]sdk.Coins
}

func newMockBank() *mockBank {
	return &mockBank{accounts: map[string]sdk.Coins{}, modules: map[string]sdk.Coins{}}
}

func (b *mockBank) fund(addr string, amount int64) {
	b.accounts[addr] = b.accounts[addr].Add(sdk.NewInt64Coin(types.DefaultDenom, amount))
}

func (b *mockBank) balance(addr string) math.Int {
	return b.accounts[addr].AmountOf(types.DefaultDenom)
}

func (b *mockBank) moduleBalance(module, denom string) math.Int {
	return b.modules[module].AmountOf(denom)
}

func (b *mockBank) SendCoinsFromAccountToModule(_ context.Context, from sdk.AccAddress, module string, amt sdk.Coins) error {
	bal, neg := b.accounts[from.String()].SafeSub(amt...)
	if neg {
		return fmt.Errorf("insufficient funds: %s", from)
	}
	b.accounts[from.String()] = bal
	b.modules[module] = b.modules[module].Add(amt...)
	return nil
}

func (b *mockBank) SendCoinsFromModuleToAccount(_ context.Context, module string, to sdk.AccAddress, amt sdk.Coins) error {
	bal, neg := b.modules[module].SafeSub(amt...)
	if neg {
		return fmt.Errorf("insufficient module funds: %s", module)
	}
	b.modules[module] = bal
	b.accounts[to.String()] = b.accounts[to.String()].Add(amt...)
	return nil
}

func (b *mockBank) MintCoins(_ context.Context, module string, amt sdk.Coins) error {
	b.modules[module] = b.modules[module].Add(amt...)
	return nil
}

func (b *mockBank) BurnCoins(_ context.Context, module string, amt sdk.Coins) error {
	bal, neg := b.modules[module].SafeSub(amt...)
	if neg {
		return fmt.Errorf("cannot burn more than held")
	}
	b.modules[module] = bal
	return nil
}

// mockTreasury funds shortfalls out of a fixed balance
type mockTreasury struct {
	bank    *mockBank
	balance math.Int
	funded  math.Int
	swept   math.Int
}

func (m *mockTreasury) CanFundAmount(_ sdk.Context, _ string, amount math.Int) bool {
	return m.balance.GTE(amount)
}

func (m *mockTreasury) FundYield(_ sdk.Context, _ string, recipientModule string, amount math.Int) error {
	if m.balance.LT(amount) {
		return fmt.Errorf("treasury short")
	}
	m.balance = m.balance.Sub(amount)
	m.funded = m.funded.Add(amount)
	m.bank.modules[recipientModule] = m.bank.modules[recipientModule].Add(sdk.NewCoin(types.DefaultDenom, amount))
	return nil
}

func (m *mockTreasury) Replenish(_ sdk.Context, _ string, senderModule string, amount math.Int) error {
	bal, neg := m.bank.modules[senderModule].SafeSub(sdk.NewCoin(types.DefaultDenom, amount))
	if neg {
		return fmt.Errorf("module short")
	}
	m.bank.modules[senderModule] = bal
	m.balance = m.balance.Add(amount)
	m.swept = m.swept.Add(amount)
	return nil
}

// mockVenue tracks per-pool balances and lets tests inject yield
type mockVenue struct {
	balances map[string]math.Int
}

func (v *mockVenue) Deposit(_ sdk.Context, poolID string, amount math.Int) error {
	v.balances[poolID] = v.BalanceOf(sdk.Context{}, poolID).Add(amount)
	return nil
}

func (v *mockVenue) Withdraw(_ sdk.Context, poolID string, amount math.Int) (math.Int, error) {
	bal := v.BalanceOf(sdk.Context{}, poolID)
	got := math.MinInt(bal, amount)
	v.balances[poolID] = bal.Sub(got)
	return got, nil
}

func (v *mockVenue) BalanceOf(_ sdk.Context, poolID string) math.Int {
	if bal, ok := v.balances[poolID]; ok {
		return bal
	}
	return math.ZeroInt()
}

type fixture struct {
	ctx      sdk.Context
	keeper   *Keeper
	bank     *mockBank
	treasury *mockTreasury
}

func setupKeeper(t require.TestingT) *fixture {
	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	require.NoError(t, stateStore.LoadLatestVersion())

	ctx := sdk.NewContext(stateStore, cmtproto.Header{Time: genesisTime, Height: 1}, false, log.NewNopLogger())
	cdc := codec.NewProtoCodec(codectypes.NewInterfaceRegistry())

	bank := newMockBank()
	k := NewKeeper(cdc, storeKey, bank, authority, log.NewNopLogger())
	k.SetEntropySource(fixedEntropy("fixed"))
	treasury := &mockTreasury{bank: bank, balance: math.NewInt(1_000_000), funded: math.ZeroInt(), swept: math.ZeroInt()}
	k.SetFundingKeeper(treasury)

	return &fixture{ctx: ctx, keeper: k, bank: bank, treasury: treasury}
}

// advance moves block time forward
func (f *fixture) advance(d time.Duration) {
	f.ctx = f.ctx.WithBlockTime(f.ctx.BlockTime().Add(d)).WithBlockHeight(f.ctx.BlockHeight() + 1)
}

// createPool creates a pool owned by alice
func (f *fixture) createPool(t require.TestingT, id string, capAmount int64, params types.RiskParams) *types.Pool {
	pool, err := f.keeper.CreatePool(f.ctx, authority, types.PoolConfig{
		PoolID: id,
		Name:   id,
		Owner:  alice,
		Denom:  types.DefaultDenom,
		Tier:   types.TierStable,
		Cap:    math.NewInt(capAmount),
		Params: params,
	})
	require.NoError(t, err)
	return pool
}

func (f *fixture) deposit(t require.TestingT, who, poolID string, amount int64) *types.DepositResult {
	f.bank.fund(who, amount)
	res, err := f.keeper.Deposit(f.ctx, who, poolID, math.NewInt(amount))
	require.NoError(t, err)
	return res
}

// fixedRateParams accrues exactly ratePPM per minute
func fixedRateParams(ratePPM int64) types.RiskParams {
	p := types.StableParams()
	p.BaseRatePPM, p.MinRatePPM, p.MaxRatePPM = ratePPM, ratePPM, ratePPM
	return p
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
