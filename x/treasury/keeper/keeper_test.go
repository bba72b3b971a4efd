package keeper

import (
	"context"
	"fmt"
	"testing"
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

	"github.com/openalpha/hifi/x/treasury/types"
)

const poolModule = "yieldpool"

var donor = func() string {
	bz := make([]byte, 20)
	copy(bz, "donor")
	return sdk.AccAddress(bz).String()
}()

type mockBank struct {
	accounts map[string]sdk.Coins
	modules  map[string]sdk.Coins
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

func (b *mockBank) SendCoinsFromModuleToModule(_ context.Context, from, to string, amt sdk.Coins) error {
	bal, neg := b.modules[from].SafeSub(amt...)
	if neg {
		return fmt.Errorf("insufficient module funds: %s", from)
	}
	b.modules[from] = bal
	b.modules[to] = b.modules[to].Add(amt...)
	return nil
}

func setupKeeper(t *testing.T) (sdk.Context, *Keeper, *mockBank) {
	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	require.NoError(t, stateStore.LoadLatestVersion())

	ctx := sdk.NewContext(stateStore, cmtproto.Header{Time: time.Unix(1_700_000_000, 0)}, false, log.NewNopLogger())
	bank := &mockBank{accounts: map[string]sdk.Coins{}, modules: map[string]sdk.Coins{}}
	bank.accounts[donor] = sdk.NewCoins(sdk.NewInt64Coin(types.DefaultDenom, 1_000))
	k := NewKeeper(codec.NewProtoCodec(codectypes.NewInterfaceRegistry()), storeKey, bank, log.NewNopLogger())
	return ctx, k, bank
}

func TestDepositFundAndSweep(t *testing.T) {
	ctx, k, bank := setupKeeper(t)

	fund, err := k.Deposit(ctx, donor, math.NewInt(600))
	require.NoError(t, err)
	require.Equal(t, "600", fund.Balance.String())
	require.Equal(t, "600", bank.modules[types.ModuleName].AmountOf(types.DefaultDenom).String())

	require.True(t, k.CanFundAmount(ctx, "p1", math.NewInt(600)))
	require.False(t, k.CanFundAmount(ctx, "p1", math.NewInt(601)))

	require.NoError(t, k.FundYield(ctx, "p1", poolModule, math.NewInt(200)))
	require.Equal(t, "200", bank.modules[poolModule].AmountOf(types.DefaultDenom).String())

	require.NoError(t, k.Replenish(ctx, "p1", poolModule, math.NewInt(50)))
	fund = k.GetFund(ctx)
	require.Equal(t, "450", fund.Balance.String())
	require.Equal(t, "650", fund.TotalDeposits.String())
	require.Equal(t, "200", fund.TotalPayouts.String())

	events := k.GetEvents(ctx, 0)
	require.Len(t, events, 3)
	require.Equal(t, types.EventLossSweep, events[0].EventType)
	require.Equal(t, types.EventYieldFunding, events[1].EventType)
	require.Equal(t, "-200", events[1].Amount.String())
	require.Equal(t, "p1", events[1].RelatedID)
	require.Equal(t, types.EventDeposit, events[2].EventType)
	require.Len(t, k.GetEvents(ctx, 1), 1)
}

func TestFundYieldRespectsMinBalance(t *testing.T) {
	ctx, k, _ := setupKeeper(t)
	config := types.DefaultConfig()
	config.MinBalance = math.NewInt(100)
	k.SetConfig(ctx, config)

	_, err := k.Deposit(ctx, donor, math.NewInt(150))
	require.NoError(t, err)

	require.ErrorIs(t, k.FundYield(ctx, "p1", poolModule, math.NewInt(51)), types.ErrInsufficientFunds)
	require.NoError(t, k.FundYield(ctx, "p1", poolModule, math.NewInt(50)))
	require.Equal(t, "100", k.GetFund(ctx).Balance.String())
}

func TestDepositRejections(t *testing.T) {
	ctx, k, _ := setupKeeper(t)

	_, err := k.Deposit(ctx, donor, math.ZeroInt())
	require.ErrorIs(t, err, types.ErrZeroAmount)

	_, err = k.Deposit(ctx, "not-an-address", math.NewInt(1))
	require.ErrorIs(t, err, types.ErrInvalidAddress)

	_, err = k.Deposit(ctx, donor, math.NewInt(1_001))
	require.ErrorIs(t, err, types.ErrTransferFailed)
	require.True(t, k.GetFund(ctx).Balance.IsZero())
	require.Empty(t, k.GetEvents(ctx, 0))
}

func TestGenesisRoundTrip(t *testing.T) {
	ctx, k, _ := setupKeeper(t)
	_, err := k.Deposit(ctx, donor, math.NewInt(300))
	require.NoError(t, err)
	require.NoError(t, k.FundYield(ctx, "p1", poolModule, math.NewInt(100)))

	gs := k.ExportGenesis(ctx)
	require.NoError(t, gs.Validate())
	require.Equal(t, uint64(1), gs.Events[0].Sequence)

	ctx2, k2, _ := setupKeeper(t)
	k2.InitGenesis(ctx2, *gs)
	require.Equal(t, "200", k2.GetFund(ctx2).Balance.String())
	require.Len(t, k2.GetEvents(ctx2, 0), 2)

	_, err = k2.Deposit(ctx2, donor, math.NewInt(1))
	require.NoError(t, err)
	require.Equal(t, uint64(3), k2.GetEvents(ctx2, 1)[0].Sequence)
}
