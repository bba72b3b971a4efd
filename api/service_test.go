package api

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	apitypes "github.com/openalpha/hifi/api/types"
	"github.com/openalpha/hifi/api/websocket"
	delegationtypes "github.com/openalpha/hifi/x/delegation/types"
	treasurytypes "github.com/openalpha/hifi/x/treasury/types"
	yieldpooltypes "github.com/openalpha/hifi/x/yieldpool/types"
)

var (
	authority = testAddr("authority")
	operator  = testAddr("operator")
	alice     = testAddr("alice")
	bob       = testAddr("bob")

	genesisTime = time.Unix(1_700_000_000, 0)
)

func testAddr(name string) string {
	bz := make([]byte, 20)
	copy(bz, name)
	return sdk.AccAddress(bz).String()
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type published struct {
	channel string
	msg     *websocket.WSMessage
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []published
}

func (p *recordingPublisher) BroadcastToChannel(channel string, message interface{}) {
	msg, ok := message.(*websocket.WSMessage)
	if !ok {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, published{channel: channel, msg: msg})
}

// count returns how many messages of msgType went to channel
func (p *recordingPublisher) count(channel, msgType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, m := range p.messages {
		if m.channel == channel && m.msg.Type == msgType {
			n++
		}
	}
	return n
}

// eventTypes lists the module event types pushed to channel, in order
func (p *recordingPublisher) eventTypes(channel string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, m := range p.messages {
		if m.channel != channel {
			continue
		}
		if ev, ok := m.msg.Data.(EventMessage); ok {
			out = append(out, ev.Type)
		}
	}
	return out
}

type testEnv struct {
	svc   *PoolService
	clock *fakeClock
	pub   *recordingPublisher
	ctx   context.Context
}

func testConfig() *Config {
	config := DefaultConfig()
	config.Authority = authority
	config.Operator = operator
	config.FaucetAmount = math.NewInt(10_000_000)
	config.TreasurySeed = math.NewInt(50_000_000)
	config.DisableRateLimit = true
	return config
}

func newTestEnv(t *testing.T, mutators ...func(*Config)) *testEnv {
	t.Helper()
	config := testConfig()
	for _, m := range mutators {
		m(config)
	}
	clock := &fakeClock{now: genesisTime}
	pub := &recordingPublisher{}
	svc, err := NewPoolService(config, clock, pub, log.NewNopLogger())
	require.NoError(t, err)
	return &testEnv{svc: svc, clock: clock, pub: pub, ctx: context.Background()}
}

func (e *testEnv) fund(t *testing.T, addr string, amount int64) {
	t.Helper()
	_, err := e.svc.Faucet(e.ctx, &apitypes.FaucetRequest{Address: addr, Amount: math.NewInt(amount).String()})
	require.NoError(t, err)
}

// createPool adds a pool accruing exactly ratePPM per minute that can lose
// up to half its principal
func (e *testEnv) createPool(t *testing.T, poolID string, capAmount, ratePPM int64) {
	t.Helper()
	params := yieldpooltypes.StableParams()
	params.BaseRatePPM, params.MinRatePPM, params.MaxRatePPM = ratePPM, ratePPM, ratePPM
	params.MaxLossBps = 5_000

	err := e.svc.write(e.ctx, func(ctx sdk.Context) error {
		_, err := e.svc.pools.CreatePool(ctx, authority, yieldpooltypes.PoolConfig{
			PoolID: poolID,
			Name:   poolID,
			Owner:  authority,
			Denom:  yieldpooltypes.DefaultDenom,
			Tier:   yieldpooltypes.TierStable,
			Cap:    math.NewInt(capAmount),
			Params: params,
		})
		return err
	})
	require.NoError(t, err)
}

func (e *testEnv) deposit(t *testing.T, who, poolID string, amount int64) *yieldpooltypes.MsgDepositResponse {
	t.Helper()
	res, err := e.svc.Deposit(e.ctx, &yieldpooltypes.MsgDeposit{
		Depositor: who,
		PoolID:    poolID,
		Amount:    math.NewInt(amount).String(),
	})
	require.NoError(t, err)
	return res
}

func (e *testEnv) balance(t *testing.T, addr string) math.Int {
	t.Helper()
	b, err := e.svc.Balance(e.ctx, addr)
	require.NoError(t, err)
	return b
}

func TestNewPoolServiceSeedsState(t *testing.T) {
	env := newTestEnv(t)

	pools, err := env.svc.ListPools(env.ctx, "")
	require.NoError(t, err)
	require.Len(t, pools, 3)

	stable, err := env.svc.ListPools(env.ctx, yieldpooltypes.TierStable)
	require.NoError(t, err)
	require.Len(t, stable, 1)
	require.Equal(t, "stable-1", stable[0].PoolID)

	treasury, err := env.svc.Treasury(env.ctx)
	require.NoError(t, err)
	require.Equal(t, "50000000", treasury.Balance.String())

	ops, err := env.svc.Operators(env.ctx)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	require.Equal(t, operator, ops[0].Address)

	require.Len(t, env.svc.Ranking(env.ctx, 0), 3)
	require.Equal(t, 3, env.svc.Health().Pools)
}

func TestNewPoolServiceWithoutSeedPools(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.SeedPools = false
		c.Operator = ""
	})

	pools, err := env.svc.ListPools(env.ctx, "")
	require.NoError(t, err)
	require.Empty(t, pools)

	ops, err := env.svc.Operators(env.ctx)
	require.NoError(t, err)
	require.Empty(t, ops)
}

func TestDepositDeploysAndPublishes(t *testing.T) {
	env := newTestEnv(t)
	env.createPool(t, "p1", 1_000_000, 2)
	env.fund(t, alice, 1_000_000)
	env.fund(t, bob, 1_000_000)

	res := env.deposit(t, alice, "p1", 600_000)
	require.Equal(t, "600000", res.SharesMinted)
	require.False(t, res.Deployed)

	res = env.deposit(t, bob, "p1", 400_000)
	require.True(t, res.Deployed)

	pool, err := env.svc.GetPool(env.ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, yieldpooltypes.PhaseDeployed, pool.Phase)
	require.Equal(t, 2, pool.Holders)
	require.False(t, pool.WithdrawOpen)

	require.Contains(t, env.pub.eventTypes("pool:p1"), yieldpooltypes.EventTypeDeposit)
	require.Contains(t, env.pub.eventTypes("pool:p1"), yieldpooltypes.EventTypeDeploy)
	require.Contains(t, env.pub.eventTypes("user:"+alice), yieldpooltypes.EventTypeDeposit)

	positions, err := env.svc.Positions(env.ctx, alice)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	require.Equal(t, "600000", positions[0].Shares)
	require.Equal(t, "400000", env.balance(t, alice).String())
}

func TestWithdrawWaitsForWindow(t *testing.T) {
	env := newTestEnv(t)
	env.createPool(t, "p1", 1_000_000, 2)
	env.fund(t, alice, 1_000_000)
	env.deposit(t, alice, "p1", 1_000_000)

	_, err := env.svc.Withdraw(env.ctx, &yieldpooltypes.MsgWithdraw{Owner: alice, PoolID: "p1", Shares: "500000"})
	require.ErrorIs(t, err, yieldpooltypes.ErrWindowClosed)

	env.clock.Advance(10 * time.Minute)

	preview, err := env.svc.PreviewWithdraw(env.ctx, "p1", math.NewInt(1_000_000))
	require.NoError(t, err)
	require.Equal(t, "1000020", preview.String())

	res, err := env.svc.WithdrawAll(env.ctx, &yieldpooltypes.MsgWithdrawAll{Owner: alice, PoolID: "p1"})
	require.NoError(t, err)
	require.Equal(t, "1000020", res.Payout)
	require.True(t, res.PoolReset)
	require.Equal(t, "1000020", env.balance(t, alice).String())

	events, err := env.svc.TreasuryEvents(env.ctx, 0)
	require.NoError(t, err)
	require.Equal(t, treasurytypes.EventYieldFunding, events[0].EventType)
}

func TestFailedWriteLeavesHeight(t *testing.T) {
	env := newTestEnv(t)
	height := env.svc.Height()

	_, err := env.svc.Deposit(env.ctx, &yieldpooltypes.MsgDeposit{Depositor: alice, PoolID: "missing", Amount: "10"})
	require.ErrorIs(t, err, yieldpooltypes.ErrPoolNotFound)
	require.Equal(t, height, env.svc.Height())

	_, err = env.svc.Deposit(env.ctx, &yieldpooltypes.MsgDeposit{Depositor: "nope", PoolID: "stable-1", Amount: "10"})
	require.Error(t, err)
	require.Equal(t, height, env.svc.Height())

	env.fund(t, alice, 10)
	require.Equal(t, height+1, env.svc.Height())
}

func TestDelegatedWithdrawal(t *testing.T) {
	env := newTestEnv(t)
	env.createPool(t, "p1", 1_000_000, 2)
	env.fund(t, alice, 1_000_000)
	env.deposit(t, alice, "p1", 1_000_000)

	_, err := env.svc.Permission(env.ctx, alice, "p1", "WITHDRAW")
	require.ErrorIs(t, err, delegationtypes.ErrNotGranted)

	before := env.pub.count("permissions", "event")
	_, err = env.svc.GrantPermission(env.ctx, &delegationtypes.MsgGrantPermission{
		Grantor:    alice,
		PoolID:     "p1",
		Capability: string(delegationtypes.CapabilityWithdraw),
	})
	require.NoError(t, err)
	require.Equal(t, before+1, env.pub.count("permissions", "event"))
	kinds := env.pub.eventTypes("permissions")
	require.Equal(t, delegationtypes.EventTypeGrant, kinds[len(kinds)-1])
	require.Contains(t, kinds[:len(kinds)-1], delegationtypes.EventTypeOperatorAdded)

	view, err := env.svc.Permission(env.ctx, alice, "p1", "WITHDRAW")
	require.NoError(t, err)
	require.True(t, view.Valid)

	env.clock.Advance(time.Minute)

	_, err = env.svc.ExecuteWithdrawal(env.ctx, &delegationtypes.MsgExecuteWithdrawal{
		Operator: bob,
		Grantor:  alice,
		PoolID:   "p1",
		Shares:   "400000",
	})
	require.ErrorIs(t, err, delegationtypes.ErrNotOperator)

	res, err := env.svc.ExecuteWithdrawal(env.ctx, &delegationtypes.MsgExecuteWithdrawal{
		Operator: operator,
		Grantor:  alice,
		PoolID:   "p1",
		Shares:   "400000",
	})
	require.NoError(t, err)
	require.True(t, res.Succeeded)
	require.Equal(t, "400000", res.Shares)

	records, err := env.svc.Actions(env.ctx, alice, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.True(t, records[0].Succeeded)
	require.Equal(t, operator, records[0].Executor)

	all, err := env.svc.Actions(env.ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 1)

	pools, err := env.svc.UserPools(env.ctx, alice)
	require.NoError(t, err)
	require.Equal(t, []string{"p1"}, pools)
}

func TestTickSweepsStopLoss(t *testing.T) {
	env := newTestEnv(t)
	env.createPool(t, "loss", 1_000_000, -1_000)
	env.fund(t, alice, 1_000_000)
	env.deposit(t, alice, "loss", 1_000_000)

	_, err := env.svc.GrantPermission(env.ctx, &delegationtypes.MsgGrantPermission{
		Grantor:      alice,
		PoolID:       "loss",
		Capability:   string(delegationtypes.CapabilityStopLoss),
		ThresholdBps: 50,
	})
	require.NoError(t, err)

	// -0.1% per minute
	env.clock.Advance(10 * time.Minute)
	require.NoError(t, env.svc.Tick(env.ctx))

	require.Equal(t, "990000", env.balance(t, alice).String())

	pool, err := env.svc.GetPool(env.ctx, "loss")
	require.NoError(t, err)
	require.Equal(t, yieldpooltypes.PhaseCollecting, pool.Phase)
	require.True(t, pool.TotalShares.IsZero())

	records, err := env.svc.Actions(env.ctx, alice, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, delegationtypes.CapabilityStopLoss, records[0].Capability)
	require.True(t, records[0].Succeeded)

	events, err := env.svc.TreasuryEvents(env.ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, treasurytypes.EventLossSweep, events[0].EventType)
	require.Equal(t, "10000", events[0].Amount.String())
	require.Contains(t, env.pub.eventTypes("treasury"), treasurytypes.EventTypeLossSweep)

	// Nothing left to sweep
	require.NoError(t, env.svc.Tick(env.ctx))
	records, err = env.svc.Actions(env.ctx, alice, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestTickSkipsStopLossWithoutOperator(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.Operator = "" })
	env.createPool(t, "loss", 1_000_000, -1_000)
	env.fund(t, alice, 1_000_000)
	env.deposit(t, alice, "loss", 1_000_000)

	_, err := env.svc.GrantPermission(env.ctx, &delegationtypes.MsgGrantPermission{
		Grantor:      alice,
		PoolID:       "loss",
		Capability:   string(delegationtypes.CapabilityStopLoss),
		ThresholdBps: 50,
	})
	require.NoError(t, err)

	env.clock.Advance(10 * time.Minute)
	require.NoError(t, env.svc.Tick(env.ctx))

	require.True(t, env.balance(t, alice).IsZero())
	records, err := env.svc.Actions(env.ctx, alice, 0)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestTickAnnouncesExpiredGrants(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.GrantPermission(env.ctx, &delegationtypes.MsgGrantPermission{
		Grantor:         alice,
		PoolID:          "stable-1",
		Capability:      string(delegationtypes.CapabilityWithdraw),
		DurationSeconds: 60,
	})
	require.NoError(t, err)

	require.NoError(t, env.svc.Tick(env.ctx))
	require.Zero(t, env.pub.count("permissions", "permission_expired"))

	env.clock.Advance(2 * time.Minute)
	require.NoError(t, env.svc.Tick(env.ctx))
	require.Equal(t, 1, env.pub.count("permissions", "permission_expired"))
	require.Equal(t, 1, env.pub.count("user:"+alice, "permission_expired"))

	view, err := env.svc.Permission(env.ctx, alice, "stable-1", "WITHDRAW")
	require.NoError(t, err)
	require.False(t, view.Valid)

	// Announced once
	require.NoError(t, env.svc.Tick(env.ctx))
	require.Equal(t, 1, env.pub.count("permissions", "permission_expired"))
}

func TestFaucetLimits(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.svc.Faucet(env.ctx, &apitypes.FaucetRequest{Address: alice})
	require.NoError(t, err)
	require.Equal(t, "10000000", res.Minted)
	require.Equal(t, "10000000", res.Balance)

	_, err = env.svc.Faucet(env.ctx, &apitypes.FaucetRequest{Address: alice, Amount: "10000001"})
	require.Error(t, err)

	_, err = env.svc.Faucet(env.ctx, &apitypes.FaucetRequest{Address: alice, Amount: "-5"})
	require.Error(t, err)

	_, err = env.svc.Faucet(env.ctx, &apitypes.FaucetRequest{Address: "not-an-address"})
	require.Error(t, err)
	require.Equal(t, "10000000", env.balance(t, alice).String())

	disabled := newTestEnv(t, func(c *Config) { c.FaucetAmount = math.ZeroInt() })
	_, err = disabled.svc.Faucet(disabled.ctx, &apitypes.FaucetRequest{Address: alice})
	require.Error(t, err)
}

func TestNAVHistoryLimit(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.NAVHistory(env.ctx, "missing", 0, 0, 0)
	require.ErrorIs(t, err, yieldpooltypes.ErrPoolNotFound)

	history, err := env.svc.NAVHistory(env.ctx, "stable-1", 0, 0, 1)
	require.NoError(t, err)
	require.LessOrEqual(t, len(history), 1)
}

func TestWriteRecoversPanics(t *testing.T) {
	env := newTestEnv(t)
	height := env.svc.Height()

	err := env.svc.write(env.ctx, func(sdk.Context) error {
		panic("boom")
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
	require.Equal(t, height, env.svc.Height())
}

func TestCanceledContext(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.svc.ListPools(ctx, "")
	require.ErrorIs(t, err, context.Canceled)

	_, err = env.svc.Deposit(ctx, &yieldpooltypes.MsgDeposit{Depositor: alice, PoolID: "stable-1", Amount: "10"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestConcurrentWritesConserveShares(t *testing.T) {
	env := newTestEnv(t)
	env.createPool(t, "p1", 4_000_000, 2)
	users := []string{alice, bob, testAddr("carol"), testAddr("dave")}
	for _, u := range users {
		env.fund(t, u, 1_000_000)
		env.deposit(t, u, "p1", 1_000_000)
	}
	delegators := users[:2]
	for _, u := range delegators {
		_, err := env.svc.GrantPermission(env.ctx, &delegationtypes.MsgGrantPermission{
			Grantor:    u,
			PoolID:     "p1",
			Capability: string(delegationtypes.CapabilityWithdraw),
		})
		require.NoError(t, err)
	}
	env.clock.Advance(10 * time.Minute)

	const rounds = 20
	var (
		wg       sync.WaitGroup
		redeemed atomic.Int64
	)
	for _, u := range users {
		wg.Add(1)
		go func(owner string) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				if _, err := env.svc.Withdraw(env.ctx, &yieldpooltypes.MsgWithdraw{Owner: owner, PoolID: "p1", Shares: "10000"}); err == nil {
					redeemed.Add(10_000)
				}
			}
		}(u)
	}
	for _, u := range delegators {
		wg.Add(1)
		go func(grantor string) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				res, err := env.svc.ExecuteWithdrawal(env.ctx, &delegationtypes.MsgExecuteWithdrawal{
					Operator: operator,
					Grantor:  grantor,
					PoolID:   "p1",
					Shares:   "10000",
				})
				if err == nil && res.Succeeded {
					redeemed.Add(10_000)
				}
			}
		}(u)
	}
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_ = env.svc.Tick(env.ctx)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, _ = env.svc.PreviewWithdraw(env.ctx, "p1", math.NewInt(100_000))
			_, _ = env.svc.GetPool(env.ctx, "p1")
		}
	}()
	wg.Wait()

	require.Positive(t, redeemed.Load())
	err := env.svc.read(env.ctx, func(ctx sdk.Context) error {
		pool := env.svc.pools.GetPool(ctx, "p1")
		require.NotNil(t, pool)

		sum := math.ZeroInt()
		for _, acc := range env.svc.pools.GetPoolAccounts(ctx, "p1") {
			sum = sum.Add(acc.Shares)
		}
		require.Equal(t, pool.TotalShares.String(), sum.String())
		require.Equal(t, math.NewInt(4_000_000-redeemed.Load()).String(), pool.TotalShares.String())
		return nil
	})
	require.NoError(t, err)
}
