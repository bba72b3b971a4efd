package api

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store"
	storemetrics "cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec/address"
	"github.com/cosmos/cosmos-sdk/runtime"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	authkeeper "github.com/cosmos/cosmos-sdk/x/auth/keeper"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	bankkeeper "github.com/cosmos/cosmos-sdk/x/bank/keeper"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"

	apitypes "github.com/openalpha/hifi/api/types"
	"github.com/openalpha/hifi/api/websocket"
	"github.com/openalpha/hifi/app"
	"github.com/openalpha/hifi/metrics"
	delegationkeeper "github.com/openalpha/hifi/x/delegation/keeper"
	delegationtypes "github.com/openalpha/hifi/x/delegation/types"
	treasurykeeper "github.com/openalpha/hifi/x/treasury/keeper"
	treasurytypes "github.com/openalpha/hifi/x/treasury/types"
	yieldpoolkeeper "github.com/openalpha/hifi/x/yieldpool/keeper"
	yieldpooltypes "github.com/openalpha/hifi/x/yieldpool/types"
)

// FaucetModule is the module account that mints test funds
const FaucetModule = "faucet"

// Clock supplies the service time
type Clock interface {
	Now() time.Time
}

// SystemClock is wall time shifted by Offset
type SystemClock struct {
	Offset time.Duration
}

// Now implements Clock
func (c SystemClock) Now() time.Time {
	return time.Now().Add(c.Offset)
}

// Publisher pushes messages to WebSocket channel subscribers
type Publisher interface {
	BroadcastToChannel(channel string, message interface{})
}

type nopPublisher struct{}

func (nopPublisher) BroadcastToChannel(string, interface{}) {}

// EventMessage is the payload pushed for each module event
type EventMessage struct {
	Type        string            `json:"type"`
	Attributes  map[string]string `json:"attributes"`
	BlockHeight int64             `json:"block_height"`
	Timestamp   int64             `json:"timestamp"`
}

// PoolService runs the pool, delegation and treasury keepers over an
// in-memory multistore and is the only writer to it. Every write runs on a
// cache context and is committed only when it succeeds.
type PoolService struct {
	mu     sync.RWMutex
	ms     storetypes.CommitMultiStore
	height int64

	clock     Clock
	config    *Config
	logger    log.Logger
	publisher Publisher
	metrics   *metrics.Collector

	accountKeeper authkeeper.AccountKeeper
	bankKeeper    bankkeeper.BaseKeeper
	pools         *yieldpoolkeeper.Keeper
	delegation    *delegationkeeper.Keeper
	treasury      *treasurykeeper.Keeper

	poolMsgs       yieldpooltypes.MsgServer
	delegationMsgs delegationtypes.MsgServer
	treasuryMsgs   treasurytypes.MsgServer

	expiry  *ExpiryIndex
	ranking *RankingIndex
}

var _ apitypes.Service = (*PoolService)(nil)

// NewPoolService builds the keepers, seeds the default pools and the treasury
// and registers the configured operator
func NewPoolService(config *Config, clock Clock, publisher Publisher, logger log.Logger) (*PoolService, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if clock == nil {
		clock = SystemClock{Offset: config.ClockOffset}
	}
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	keys := storetypes.NewKVStoreKeys(
		authtypes.StoreKey,
		banktypes.StoreKey,
		yieldpooltypes.StoreKey,
		delegationtypes.StoreKey,
		treasurytypes.StoreKey,
	)
	db := dbm.NewMemDB()
	ms := store.NewCommitMultiStore(db, logger, storemetrics.NewNoOpMetrics())
	for _, key := range keys {
		ms.MountStoreWithDB(key, storetypes.StoreTypeIAVL, db)
	}
	if err := ms.LoadLatestVersion(); err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	encodingConfig := app.MakeEncodingConfig()
	cdc := encodingConfig.Codec
	prefix := sdk.GetConfig().GetBech32AccountAddrPrefix()

	maccPerms := map[string][]string{
		yieldpooltypes.ModuleName: {authtypes.Minter, authtypes.Burner},
		treasurytypes.ModuleName:  nil,
		FaucetModule:              {authtypes.Minter},
	}
	accountKeeper := authkeeper.NewAccountKeeper(
		cdc,
		runtime.NewKVStoreService(keys[authtypes.StoreKey]),
		authtypes.ProtoBaseAccount,
		maccPerms,
		address.NewBech32Codec(prefix),
		prefix,
		config.Authority,
	)
	bankKeeper := bankkeeper.NewBaseKeeper(
		cdc,
		runtime.NewKVStoreService(keys[banktypes.StoreKey]),
		accountKeeper,
		map[string]bool{},
		config.Authority,
		logger,
	)

	treasury := treasurykeeper.NewKeeper(cdc, keys[treasurytypes.StoreKey], bankKeeper, logger)
	pools := yieldpoolkeeper.NewKeeper(cdc, keys[yieldpooltypes.StoreKey], bankKeeper, config.Authority, logger)
	pools.SetFundingKeeper(treasury)
	pools.SetWrapperKeeper(yieldpoolkeeper.NewBankWrapper(bankKeeper))
	delegation := delegationkeeper.NewKeeper(
		cdc,
		keys[delegationtypes.StoreKey],
		app.NewDelegationPoolAdapter(pools),
		config.Authority,
		logger,
	)

	s := &PoolService{
		ms:             ms,
		clock:          clock,
		config:         config,
		logger:         logger.With("module", "api"),
		publisher:      publisher,
		metrics:        metrics.GetCollector(),
		accountKeeper:  accountKeeper,
		bankKeeper:     bankKeeper,
		pools:          pools,
		delegation:     delegation,
		treasury:       treasury,
		poolMsgs:       yieldpoolkeeper.NewMsgServerImpl(pools),
		delegationMsgs: delegationkeeper.NewMsgServerImpl(delegation),
		treasuryMsgs:   treasurykeeper.NewMsgServerImpl(treasury),
		expiry:         NewExpiryIndex(),
		ranking:        NewRankingIndex(),
	}

	if err := s.write(context.Background(), s.seed); err != nil {
		return nil, fmt.Errorf("failed to seed state: %w", err)
	}
	s.refreshRanking()
	return s, nil
}

func (s *PoolService) seed(ctx sdk.Context) error {
	if err := s.bankKeeper.SetParams(ctx, banktypes.DefaultParams()); err != nil {
		return err
	}
	s.treasury.SetConfig(ctx, treasurytypes.DefaultConfig())

	if s.config.SeedPools {
		s.pools.InitDefaultPools(ctx)
	}
	if !s.config.TreasurySeed.IsNil() && s.config.TreasurySeed.IsPositive() {
		if _, err := s.mint(ctx, s.config.Authority, s.config.TreasurySeed); err != nil {
			return err
		}
		if _, err := s.treasury.Deposit(ctx, s.config.Authority, s.config.TreasurySeed); err != nil {
			return err
		}
	}
	if s.config.Operator != "" {
		owner := s.delegation.GetParams(ctx).Owner
		if err := s.delegation.AddAgentOperator(ctx, owner, s.config.Operator); err != nil {
			return err
		}
	}
	return nil
}

// ============ Transactions ============

func (s *PoolService) context() sdk.Context {
	return sdk.NewContext(s.ms, cmtproto.Header{
		ChainID: s.config.ChainID,
		Height:  s.height,
		Time:    s.clock.Now(),
	}, false, s.logger)
}

func runSafely(ctx sdk.Context, fn func(sdk.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errorsmod.Wrapf(sdkerrors.ErrPanic, "%v", r)
		}
	}()
	return fn(ctx)
}

// write runs fn as one transaction at the next height
func (s *PoolService) write(ctx context.Context, fn func(sdk.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.height++
	sdkCtx := s.context()
	cacheCtx, commit := sdkCtx.CacheContext()
	if err := runSafely(cacheCtx, fn); err != nil {
		s.height--
		s.mu.Unlock()
		return err
	}
	commit()
	s.mu.Unlock()

	s.afterWrite(sdkCtx.EventManager().Events(), sdkCtx.BlockHeight(), sdkCtx.BlockTime().Unix())
	return nil
}

// read runs fn against a snapshot that is discarded afterwards
func (s *PoolService) read(ctx context.Context, fn func(sdk.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	cacheCtx, _ := s.context().CacheContext()
	return runSafely(cacheCtx, fn)
}

type validatable interface {
	ValidateBasic() error
}

// execute validates msg and runs handler as one transaction
func execute[M validatable, R any](ctx context.Context, s *PoolService, msg M, handler func(context.Context, M) (R, error)) (R, error) {
	var res R
	if err := msg.ValidateBasic(); err != nil {
		return res, err
	}
	err := s.write(ctx, func(sdkCtx sdk.Context) error {
		var err error
		res, err = handler(sdkCtx, msg)
		return err
	})
	if err != nil {
		var zero R
		return zero, err
	}
	return res, nil
}

// ============ Event fan-out ============

func eventAttributes(e sdk.Event) map[string]string {
	attrs := make(map[string]string, len(e.Attributes))
	for _, a := range e.Attributes {
		attrs[a.Key] = a.Value
	}
	return attrs
}

func isDelegationEvent(eventType string) bool {
	switch eventType {
	case delegationtypes.EventTypeGrant, delegationtypes.EventTypeRevoke, delegationtypes.EventTypeExtend,
		delegationtypes.EventTypeExecution, delegationtypes.EventTypeOperatorAdded, delegationtypes.EventTypeOperatorRemoved,
		delegationtypes.EventTypeParamsUpdated, delegationtypes.EventTypeOwnershipTransfer:
		return true
	}
	return false
}

func isTreasuryEvent(eventType string) bool {
	switch eventType {
	case treasurytypes.EventTypeDeposit, treasurytypes.EventTypeYieldFunding, treasurytypes.EventTypeLossSweep:
		return true
	}
	return false
}

// eventChannels lists the WebSocket channels an event is pushed to
func eventChannels(eventType string, attrs map[string]string) []string {
	var channels []string
	if id := attrs[yieldpooltypes.AttributeKeyPoolID]; id != "" {
		channels = append(channels, "pool:"+id)
	}
	if owner := attrs[yieldpooltypes.AttributeKeyOwner]; owner != "" {
		channels = append(channels, "user:"+owner)
	}
	if grantor := attrs[delegationtypes.AttributeKeyGrantor]; grantor != "" {
		channels = append(channels, "user:"+grantor)
	}
	if isDelegationEvent(eventType) {
		channels = append(channels, "permissions")
	}
	if isTreasuryEvent(eventType) {
		channels = append(channels, "treasury")
	}
	return channels
}

func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// afterWrite publishes committed events and brings the indexes and metrics
// up to date
func (s *PoolService) afterWrite(events sdk.Events, height, now int64) {
	if len(events) == 0 {
		return
	}

	delegated := false
	resets := make(map[string]bool)
	for _, e := range events {
		switch e.Type {
		case delegationtypes.EventTypeExecution:
			delegated = true
		case yieldpooltypes.EventTypeReset:
			resets[eventAttributes(e)[yieldpooltypes.AttributeKeyPoolID]] = true
		}
	}

	touchedPools := make(map[string]bool)
	touchedGrants := make(map[string]delegationtypes.Grant)
	for _, e := range events {
		attrs := eventAttributes(e)
		poolID := attrs[yieldpooltypes.AttributeKeyPoolID]
		if poolID != "" {
			touchedPools[poolID] = true
		}

		switch e.Type {
		case yieldpooltypes.EventTypeDeposit:
			s.metrics.RecordDeposit(poolID, parseAmount(attrs[yieldpooltypes.AttributeKeyAmount]))
		case yieldpooltypes.EventTypeWithdraw:
			origin := "direct"
			if delegated {
				origin = "delegated"
			}
			s.metrics.RecordWithdrawal(poolID, origin, parseAmount(attrs[yieldpooltypes.AttributeKeyPayout]), resets[poolID])
		case yieldpooltypes.EventTypeLiquidated:
			s.metrics.RecordLiquidation(poolID)
		case delegationtypes.EventTypeGrant:
			s.metrics.RecordGrant(attrs[delegationtypes.AttributeKeyCapability])
		case delegationtypes.EventTypeRevoke:
			s.metrics.RecordRevocation(attrs[delegationtypes.AttributeKeyCapability], 1)
		case delegationtypes.EventTypeExecution:
			s.metrics.RecordExecution(attrs[delegationtypes.AttributeKeyCapability], attrs[delegationtypes.AttributeKeySucceeded] == "true")
		case treasurytypes.EventTypeDeposit, treasurytypes.EventTypeYieldFunding, treasurytypes.EventTypeLossSweep:
			amount := parseAmount(attrs[treasurytypes.AttributeKeyAmount])
			if e.Type == treasurytypes.EventTypeYieldFunding {
				amount = -amount
			}
			s.metrics.RecordTreasury(attrs[treasurytypes.AttributeKeyFundID], e.Type, amount,
				parseAmount(attrs[treasurytypes.AttributeKeyNewBalance]))
		}

		if capability := attrs[delegationtypes.AttributeKeyCapability]; capability != "" && isDelegationEvent(e.Type) {
			g := delegationtypes.Grant{
				Grantor:    attrs[delegationtypes.AttributeKeyGrantor],
				PoolID:     poolID,
				Capability: delegationtypes.Capability(capability),
			}
			touchedGrants[grantKey(&g)] = g
		}

		msg := EventMessage{Type: e.Type, Attributes: attrs, BlockHeight: height, Timestamp: now}
		for _, channel := range eventChannels(e.Type, attrs) {
			s.publisher.BroadcastToChannel(channel, &websocket.WSMessage{
				Type:    "event",
				Channel: channel,
				Data:    msg,
			})
		}
	}

	if len(touchedGrants) > 0 {
		_ = s.read(context.Background(), func(ctx sdk.Context) error {
			for _, g := range touchedGrants {
				if grant := s.delegation.GetPermission(ctx, g.Grantor, g.PoolID, g.Capability); grant != nil {
					s.expiry.Track(*grant)
				}
			}
			return nil
		})
	}
	for poolID := range touchedPools {
		s.refreshRank(poolID)
	}
}

func (s *PoolService) refreshRank(poolID string) {
	_ = s.read(context.Background(), func(ctx sdk.Context) error {
		pool, err := s.pools.PoolView(ctx, poolID)
		if err != nil {
			return err
		}
		s.ranking.Update(apitypes.RankEntry{
			PoolID:      pool.PoolID,
			Tier:        pool.Tier,
			Phase:       pool.Phase,
			PnLBps:      pool.PnLBps(),
			TotalAssets: pool.TotalAssets().String(),
		})
		s.metrics.RecordPool(pool.PoolID, pool.Tier, string(pool.Phase),
			parseAmount(pool.TotalAssets().String()), parseAmount(pool.AccumulatedPnL.String()))
		return nil
	})
}

func (s *PoolService) refreshRanking() {
	var ids []string
	_ = s.read(context.Background(), func(ctx sdk.Context) error {
		for _, pool := range s.pools.GetAllPools(ctx) {
			ids = append(ids, pool.PoolID)
		}
		return nil
	})
	for _, id := range ids {
		s.refreshRank(id)
	}
}

// ============ Background work ============

// Tick advances every pool to the service clock, runs the stop-loss sweep
// and announces grants that expired since the last tick
func (s *PoolService) Tick(ctx context.Context) error {
	timer := metrics.NewTimer()
	err := s.write(ctx, s.pools.EndBlocker)
	s.metrics.RecordEndBlocker(yieldpooltypes.ModuleName, s.Height(), timer.ElapsedMs())
	if err != nil {
		return err
	}

	s.sweepStopLoss(ctx)
	s.announceExpired()
	s.refreshRanking()
	return nil
}

// Run calls Tick every interval until ctx is done
func (s *PoolService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("tick failed", "error", err)
			}
		}
	}
}

// stopLossDue lists valid stop-loss grants whose pool has lost at least the
// grant's threshold and can be exited now
func (s *PoolService) stopLossDue(ctx sdk.Context) []*delegationtypes.Grant {
	if s.delegation.GetParams(ctx).Paused {
		return nil
	}
	now := ctx.BlockTime().Unix()

	var due []*delegationtypes.Grant
	for _, g := range s.delegation.GetAllGrants(ctx) {
		if g.Capability != delegationtypes.CapabilityStopLoss || g.ThresholdBps == 0 || !g.IsValid(now) {
			continue
		}
		if !s.pools.GetShares(ctx, g.PoolID, g.Grantor).IsPositive() {
			continue
		}
		pool, err := s.pools.PoolView(ctx, g.PoolID)
		if err != nil || !pool.Phase.IsLive() {
			continue
		}
		if pool.PnLBps() > -int64(g.ThresholdBps) {
			continue
		}
		if !yieldpooltypes.IsWithdrawOpen(pool.Phase, pool.DeployedAtTime, now, pool.Params) {
			continue
		}
		due = append(due, g)
	}
	return due
}

func (s *PoolService) sweepStopLoss(ctx context.Context) {
	if s.config.Operator == "" {
		return
	}

	var due []*delegationtypes.Grant
	_ = s.read(ctx, func(sdkCtx sdk.Context) error {
		due = s.stopLossDue(sdkCtx)
		return nil
	})

	for _, g := range due {
		res, err := s.ExecuteStopLoss(ctx, &delegationtypes.MsgExecuteStopLoss{
			Operator: s.config.Operator,
			Grantor:  g.Grantor,
			PoolID:   g.PoolID,
		})
		if err != nil {
			s.logger.Error("stop-loss sweep failed", "grantor", g.Grantor, "pool_id", g.PoolID, "error", err)
			continue
		}
		if res.Succeeded {
			s.metrics.StopLossTriggered.WithLabelValues(g.PoolID).Inc()
		}
		s.logger.Info("stop-loss executed",
			"grantor", g.Grantor,
			"pool_id", g.PoolID,
			"threshold_bps", g.ThresholdBps,
			"succeeded", res.Succeeded,
			"payout", res.Payout,
		)
	}
}

func (s *PoolService) announceExpired() {
	now := s.clock.Now().Unix()
	for _, g := range s.expiry.PopExpired(now) {
		grant := g
		s.metrics.GrantsExpired.Inc()
		for _, channel := range []string{"permissions", "user:" + grant.Grantor} {
			s.publisher.BroadcastToChannel(channel, &websocket.WSMessage{
				Type:    "permission_expired",
				Channel: channel,
				Data:    &grant,
			})
		}
	}
}

// Height returns the height of the last committed write
func (s *PoolService) Height() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.height
}

// Health reports liveness
func (s *PoolService) Health() apitypes.HealthView {
	view := apitypes.HealthView{
		Status:      "ok",
		Time:        s.clock.Now().Unix(),
		BlockHeight: s.Height(),
	}
	_ = s.read(context.Background(), func(ctx sdk.Context) error {
		view.Pools = len(s.pools.GetAllPools(ctx))
		return nil
	})
	if counter, ok := s.publisher.(interface{ GetClientCount() int }); ok {
		view.Clients = counter.GetClientCount()
	}
	return view
}

// ============ Pool queries ============

func (s *PoolService) poolView(ctx sdk.Context, poolID string) (*apitypes.PoolView, error) {
	pool, err := s.pools.PoolView(ctx, poolID)
	if err != nil {
		return nil, err
	}
	now := ctx.BlockTime().Unix()
	return &apitypes.PoolView{
		Pool:           pool,
		TotalAssets:    pool.TotalAssets().String(),
		PnLBps:         pool.PnLBps(),
		WithdrawOpen:   yieldpooltypes.IsWithdrawOpen(pool.Phase, pool.DeployedAtTime, now, pool.Params),
		NextWindowOpen: yieldpooltypes.NextWindowOpen(pool.Phase, pool.DeployedAtTime, now, pool.Params),
		Holders:        len(s.pools.GetPoolAccounts(ctx, poolID)),
	}, nil
}

// ListPools returns every pool, or those of one tier
func (s *PoolService) ListPools(ctx context.Context, tier string) ([]*apitypes.PoolView, error) {
	var views []*apitypes.PoolView
	err := s.read(ctx, func(sdkCtx sdk.Context) error {
		pools := s.pools.GetAllPools(sdkCtx)
		if tier != "" {
			pools = s.pools.GetPoolsByTier(sdkCtx, tier)
		}
		views = make([]*apitypes.PoolView, 0, len(pools))
		for _, pool := range pools {
			view, err := s.poolView(sdkCtx, pool.PoolID)
			if err != nil {
				return err
			}
			views = append(views, view)
		}
		return nil
	})
	return views, err
}

// GetPool returns one pool valued now
func (s *PoolService) GetPool(ctx context.Context, poolID string) (*apitypes.PoolView, error) {
	var view *apitypes.PoolView
	err := s.read(ctx, func(sdkCtx sdk.Context) error {
		var err error
		view, err = s.poolView(sdkCtx, poolID)
		return err
	})
	return view, err
}

// RiskMetrics returns a pool's risk profile
func (s *PoolService) RiskMetrics(ctx context.Context, poolID string) (*yieldpooltypes.RiskMetrics, error) {
	var out *yieldpooltypes.RiskMetrics
	err := s.read(ctx, func(sdkCtx sdk.Context) error {
		var err error
		out, err = s.pools.GetRiskMetrics(sdkCtx, poolID)
		return err
	})
	return out, err
}

// NAVHistory returns a pool's valuation points in [from, to]; a zero bound is
// open. A positive limit keeps the most recent points.
func (s *PoolService) NAVHistory(ctx context.Context, poolID string, from, to int64, limit int) ([]*yieldpooltypes.NAVHistory, error) {
	var history []*yieldpooltypes.NAVHistory
	err := s.read(ctx, func(sdkCtx sdk.Context) error {
		if s.pools.GetPool(sdkCtx, poolID) == nil {
			return yieldpooltypes.ErrPoolNotFound.Wrap(poolID)
		}
		history = s.pools.GetNAVHistory(sdkCtx, poolID, from, to)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	return history, nil
}

// PreviewWithdraw returns what shares would pay out now
func (s *PoolService) PreviewWithdraw(ctx context.Context, poolID string, shares math.Int) (math.Int, error) {
	out := math.ZeroInt()
	err := s.read(ctx, func(sdkCtx sdk.Context) error {
		var err error
		out, err = s.pools.PreviewWithdraw(sdkCtx, poolID, shares)
		return err
	})
	return out, err
}

// Ranking returns pools ordered by return on principal
func (s *PoolService) Ranking(_ context.Context, limit int) []apitypes.RankEntry {
	return s.ranking.Top(limit)
}

// Positions returns owner's holdings valued now
func (s *PoolService) Positions(ctx context.Context, owner string) ([]apitypes.PositionView, error) {
	var positions []apitypes.PositionView
	err := s.read(ctx, func(sdkCtx sdk.Context) error {
		for _, acct := range s.pools.GetUserPositions(sdkCtx, owner) {
			pool := s.pools.GetPool(sdkCtx, acct.PoolID)
			if pool == nil {
				continue
			}
			shares, value, err := s.pools.UserPosition(sdkCtx, acct.PoolID, owner)
			if err != nil {
				return err
			}
			positions = append(positions, apitypes.PositionView{
				PoolID: acct.PoolID,
				Tier:   pool.Tier,
				Shares: shares.String(),
				Value:  value.String(),
			})
		}
		return nil
	})
	return positions, err
}

// ============ Pool transactions ============

// CreatePool implements yieldpooltypes.MsgServer
func (s *PoolService) CreatePool(ctx context.Context, msg *yieldpooltypes.MsgCreatePool) (*yieldpooltypes.MsgCreatePoolResponse, error) {
	return execute(ctx, s, msg, s.poolMsgs.CreatePool)
}

// Deposit implements yieldpooltypes.MsgServer
func (s *PoolService) Deposit(ctx context.Context, msg *yieldpooltypes.MsgDeposit) (*yieldpooltypes.MsgDepositResponse, error) {
	return execute(ctx, s, msg, s.poolMsgs.Deposit)
}

// DeployToStrategy implements yieldpooltypes.MsgServer
func (s *PoolService) DeployToStrategy(ctx context.Context, msg *yieldpooltypes.MsgDeployToStrategy) (*yieldpooltypes.MsgDeployToStrategyResponse, error) {
	return execute(ctx, s, msg, s.poolMsgs.DeployToStrategy)
}

// Withdraw implements yieldpooltypes.MsgServer
func (s *PoolService) Withdraw(ctx context.Context, msg *yieldpooltypes.MsgWithdraw) (*yieldpooltypes.MsgWithdrawResponse, error) {
	return execute(ctx, s, msg, s.poolMsgs.Withdraw)
}

// WithdrawAll implements yieldpooltypes.MsgServer
func (s *PoolService) WithdrawAll(ctx context.Context, msg *yieldpooltypes.MsgWithdrawAll) (*yieldpooltypes.MsgWithdrawResponse, error) {
	return execute(ctx, s, msg, s.poolMsgs.WithdrawAll)
}

// SetCap implements yieldpooltypes.MsgServer
func (s *PoolService) SetCap(ctx context.Context, msg *yieldpooltypes.MsgSetCap) (*yieldpooltypes.MsgSetCapResponse, error) {
	return execute(ctx, s, msg, s.poolMsgs.SetCap)
}

// TransferOwnership implements yieldpooltypes.MsgServer
func (s *PoolService) TransferOwnership(ctx context.Context, msg *yieldpooltypes.MsgTransferOwnership) (*yieldpooltypes.MsgTransferOwnershipResponse, error) {
	return execute(ctx, s, msg, s.poolMsgs.TransferOwnership)
}

// ResetPool implements yieldpooltypes.MsgServer
func (s *PoolService) ResetPool(ctx context.Context, msg *yieldpooltypes.MsgResetPool) (*yieldpooltypes.MsgResetPoolResponse, error) {
	return execute(ctx, s, msg, s.poolMsgs.ResetPool)
}

// ============ Delegation queries ============

// Grants returns every grant the grantor has made
func (s *PoolService) Grants(ctx context.Context, grantor string) ([]*delegationtypes.Grant, error) {
	var grants []*delegationtypes.Grant
	err := s.read(ctx, func(sdkCtx sdk.Context) error {
		grants = s.delegation.GetUserGrants(sdkCtx, grantor)
		return nil
	})
	return grants, err
}

// Permission returns one grant with its validity now
func (s *PoolService) Permission(ctx context.Context, grantor, poolID, capability string) (*apitypes.GrantView, error) {
	c, err := delegationtypes.ParseCapability(capability)
	if err != nil {
		return nil, err
	}
	var view *apitypes.GrantView
	err = s.read(ctx, func(sdkCtx sdk.Context) error {
		grant := s.delegation.GetPermission(sdkCtx, grantor, poolID, c)
		if grant == nil {
			return delegationtypes.ErrNotGranted.Wrapf("%s/%s/%s", grantor, poolID, c)
		}
		view = &apitypes.GrantView{Grant: *grant, Valid: grant.IsValid(sdkCtx.BlockTime().Unix())}
		return nil
	})
	return view, err
}

// UserPools returns the pools a grantor has granted on
func (s *PoolService) UserPools(ctx context.Context, grantor string) ([]string, error) {
	var pools []string
	err := s.read(ctx, func(sdkCtx sdk.Context) error {
		pools = s.delegation.GetUserPools(sdkCtx, grantor)
		return nil
	})
	return pools, err
}

// Actions returns delegated action records, newest first. An empty grantor
// returns every grantor's records.
func (s *PoolService) Actions(ctx context.Context, grantor string, limit int) ([]*delegationtypes.ActionRecord, error) {
	var records []*delegationtypes.ActionRecord
	err := s.read(ctx, func(sdkCtx sdk.Context) error {
		if grantor != "" {
			records = s.delegation.GetUserActionHistory(sdkCtx, grantor, limit)
			return nil
		}
		records = s.delegation.GetAllActionRecords(sdkCtx)
		sort.Slice(records, func(i, j int) bool { return records[i].Sequence > records[j].Sequence })
		if limit > 0 && len(records) > limit {
			records = records[:limit]
		}
		return nil
	})
	return records, err
}

// Operators returns the registered operators
func (s *PoolService) Operators(ctx context.Context) ([]*delegationtypes.Operator, error) {
	var ops []*delegationtypes.Operator
	err := s.read(ctx, func(sdkCtx sdk.Context) error {
		ops = s.delegation.GetAllOperators(sdkCtx)
		return nil
	})
	return ops, err
}

// Registry returns the registry params
func (s *PoolService) Registry(ctx context.Context) (delegationtypes.Params, error) {
	var params delegationtypes.Params
	err := s.read(ctx, func(sdkCtx sdk.Context) error {
		params = s.delegation.GetParams(sdkCtx)
		return nil
	})
	return params, err
}

// ============ Delegation transactions ============

// GrantPermission implements delegationtypes.MsgServer
func (s *PoolService) GrantPermission(ctx context.Context, msg *delegationtypes.MsgGrantPermission) (*delegationtypes.MsgGrantPermissionResponse, error) {
	return execute(ctx, s, msg, s.delegationMsgs.GrantPermission)
}

// RevokePermission implements delegationtypes.MsgServer
func (s *PoolService) RevokePermission(ctx context.Context, msg *delegationtypes.MsgRevokePermission) (*delegationtypes.MsgRevokePermissionResponse, error) {
	return execute(ctx, s, msg, s.delegationMsgs.RevokePermission)
}

// RevokeAllPermissions implements delegationtypes.MsgServer
func (s *PoolService) RevokeAllPermissions(ctx context.Context, msg *delegationtypes.MsgRevokeAllPermissions) (*delegationtypes.MsgRevokeAllPermissionsResponse, error) {
	return execute(ctx, s, msg, s.delegationMsgs.RevokeAllPermissions)
}

// ExtendPermission implements delegationtypes.MsgServer
func (s *PoolService) ExtendPermission(ctx context.Context, msg *delegationtypes.MsgExtendPermission) (*delegationtypes.MsgExtendPermissionResponse, error) {
	return execute(ctx, s, msg, s.delegationMsgs.ExtendPermission)
}

// ExecuteWithdrawal implements delegationtypes.MsgServer
func (s *PoolService) ExecuteWithdrawal(ctx context.Context, msg *delegationtypes.MsgExecuteWithdrawal) (*delegationtypes.MsgExecuteResponse, error) {
	return execute(ctx, s, msg, s.delegationMsgs.ExecuteWithdrawal)
}

// ExecuteStopLoss implements delegationtypes.MsgServer
func (s *PoolService) ExecuteStopLoss(ctx context.Context, msg *delegationtypes.MsgExecuteStopLoss) (*delegationtypes.MsgExecuteResponse, error) {
	return execute(ctx, s, msg, s.delegationMsgs.ExecuteStopLoss)
}

// AddOperator implements delegationtypes.MsgServer
func (s *PoolService) AddOperator(ctx context.Context, msg *delegationtypes.MsgAddOperator) (*delegationtypes.MsgOperatorResponse, error) {
	return execute(ctx, s, msg, s.delegationMsgs.AddOperator)
}

// RemoveOperator implements delegationtypes.MsgServer
func (s *PoolService) RemoveOperator(ctx context.Context, msg *delegationtypes.MsgRemoveOperator) (*delegationtypes.MsgOperatorResponse, error) {
	return execute(ctx, s, msg, s.delegationMsgs.RemoveOperator)
}

// SetPaused implements delegationtypes.MsgServer
func (s *PoolService) SetPaused(ctx context.Context, msg *delegationtypes.MsgSetPaused) (*delegationtypes.MsgParamsResponse, error) {
	return execute(ctx, s, msg, s.delegationMsgs.SetPaused)
}

// SetMaxPermissionDuration implements delegationtypes.MsgServer
func (s *PoolService) SetMaxPermissionDuration(ctx context.Context, msg *delegationtypes.MsgSetMaxPermissionDuration) (*delegationtypes.MsgParamsResponse, error) {
	return execute(ctx, s, msg, s.delegationMsgs.SetMaxPermissionDuration)
}

// TransferRegistryOwnership implements delegationtypes.MsgServer
func (s *PoolService) TransferRegistryOwnership(ctx context.Context, msg *delegationtypes.MsgTransferRegistryOwnership) (*delegationtypes.MsgParamsResponse, error) {
	return execute(ctx, s, msg, s.delegationMsgs.TransferRegistryOwnership)
}

// ============ Treasury ============

// Treasury returns the fund with its spendable amount
func (s *PoolService) Treasury(ctx context.Context) (*apitypes.TreasuryView, error) {
	var view *apitypes.TreasuryView
	err := s.read(ctx, func(sdkCtx sdk.Context) error {
		fund := s.treasury.GetFund(sdkCtx)
		config := s.treasury.GetConfig(sdkCtx)
		view = &apitypes.TreasuryView{
			Fund:       fund,
			MinBalance: config.MinBalance.String(),
			Available:  fund.Available(config.MinBalance).String(),
		}
		return nil
	})
	return view, err
}

// TreasuryEvents returns the treasury log, newest first
func (s *PoolService) TreasuryEvents(ctx context.Context, limit int) ([]*treasurytypes.Event, error) {
	var events []*treasurytypes.Event
	err := s.read(ctx, func(sdkCtx sdk.Context) error {
		events = s.treasury.GetEvents(sdkCtx, limit)
		return nil
	})
	return events, err
}

// FundTreasury implements treasurytypes.MsgServer
func (s *PoolService) FundTreasury(ctx context.Context, msg *treasurytypes.MsgFundTreasury) (*treasurytypes.MsgFundTreasuryResponse, error) {
	return execute(ctx, s, msg, s.treasuryMsgs.FundTreasury)
}

// ============ Faucet ============

func (s *PoolService) mint(ctx sdk.Context, recipient string, amount math.Int) (sdk.Coin, error) {
	addr, err := sdk.AccAddressFromBech32(recipient)
	if err != nil {
		return sdk.Coin{}, errorsmod.Wrap(sdkerrors.ErrInvalidAddress, err.Error())
	}
	coins := sdk.NewCoins(sdk.NewCoin(yieldpooltypes.DefaultDenom, amount))
	if err := s.bankKeeper.MintCoins(ctx, FaucetModule, coins); err != nil {
		return sdk.Coin{}, err
	}
	if err := s.bankKeeper.SendCoinsFromModuleToAccount(ctx, FaucetModule, addr, coins); err != nil {
		return sdk.Coin{}, err
	}
	return s.bankKeeper.GetBalance(ctx, addr, yieldpooltypes.DefaultDenom), nil
}

// Faucet mints test funds to an address. The amount defaults to, and may not
// exceed, the configured faucet amount.
func (s *PoolService) Faucet(ctx context.Context, req *apitypes.FaucetRequest) (*apitypes.FaucetResponse, error) {
	if s.config.FaucetAmount.IsNil() || !s.config.FaucetAmount.IsPositive() {
		return nil, errorsmod.Wrap(sdkerrors.ErrInvalidRequest, "faucet disabled")
	}
	amount := s.config.FaucetAmount
	if req.Amount != "" {
		v, ok := math.NewIntFromString(req.Amount)
		if !ok || !v.IsPositive() {
			return nil, errorsmod.Wrapf(sdkerrors.ErrInvalidRequest, "invalid amount %q", req.Amount)
		}
		if v.GT(s.config.FaucetAmount) {
			return nil, errorsmod.Wrapf(sdkerrors.ErrInvalidRequest, "amount %s above faucet limit %s", v, s.config.FaucetAmount)
		}
		amount = v
	}

	var balance sdk.Coin
	err := s.write(ctx, func(sdkCtx sdk.Context) error {
		var err error
		balance, err = s.mint(sdkCtx, req.Address, amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("faucet", "address", req.Address, "amount", amount.String())
	return &apitypes.FaucetResponse{
		Address: req.Address,
		Minted:  amount.String(),
		Balance: balance.Amount.String(),
	}, nil
}

// Balance returns an address's balance of the pool denom
func (s *PoolService) Balance(ctx context.Context, owner string) (math.Int, error) {
	addr, err := sdk.AccAddressFromBech32(owner)
	if err != nil {
		return math.ZeroInt(), errorsmod.Wrap(sdkerrors.ErrInvalidAddress, err.Error())
	}
	out := math.ZeroInt()
	err = s.read(ctx, func(sdkCtx sdk.Context) error {
		out = s.bankKeeper.GetBalance(sdkCtx, addr, yieldpooltypes.DefaultDenom).Amount
		return nil
	})
	return out, err
}
