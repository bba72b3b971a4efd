package types

import (
	"context"

	"cosmossdk.io/math"

	delegationtypes "github.com/openalpha/hifi/x/delegation/types"
	treasurytypes "github.com/openalpha/hifi/x/treasury/types"
	yieldpooltypes "github.com/openalpha/hifi/x/yieldpool/types"
)

// PoolQueryService serves read-only pool state. Values are computed at the
// service clock without persisting accrual.
type PoolQueryService interface {
	ListPools(ctx context.Context, tier string) ([]*PoolView, error)
	GetPool(ctx context.Context, poolID string) (*PoolView, error)
	RiskMetrics(ctx context.Context, poolID string) (*yieldpooltypes.RiskMetrics, error)
	NAVHistory(ctx context.Context, poolID string, from, to int64, limit int) ([]*yieldpooltypes.NAVHistory, error)
	PreviewWithdraw(ctx context.Context, poolID string, shares math.Int) (math.Int, error)
	Ranking(ctx context.Context, limit int) []RankEntry
	Positions(ctx context.Context, owner string) ([]PositionView, error)
}

// PoolService is the full pool surface: queries plus the module msg server
type PoolService interface {
	PoolQueryService
	yieldpooltypes.MsgServer
}

// DelegationQueryService serves the permission registry
type DelegationQueryService interface {
	Grants(ctx context.Context, grantor string) ([]*delegationtypes.Grant, error)
	Permission(ctx context.Context, grantor, poolID, capability string) (*GrantView, error)
	UserPools(ctx context.Context, grantor string) ([]string, error)
	Actions(ctx context.Context, grantor string, limit int) ([]*delegationtypes.ActionRecord, error)
	Operators(ctx context.Context) ([]*delegationtypes.Operator, error)
	Registry(ctx context.Context) (delegationtypes.Params, error)
}

// DelegationService is the full delegation surface
type DelegationService interface {
	DelegationQueryService
	delegationtypes.MsgServer
}

// TreasuryService serves the treasury fund
type TreasuryService interface {
	treasurytypes.MsgServer
	Treasury(ctx context.Context) (*TreasuryView, error)
	TreasuryEvents(ctx context.Context, limit int) ([]*treasurytypes.Event, error)
}

// FaucetService hands out test funds in standalone mode
type FaucetService interface {
	Faucet(ctx context.Context, req *FaucetRequest) (*FaucetResponse, error)
}

// Service is everything the REST layer serves
type Service interface {
	PoolService
	DelegationService
	TreasuryService
	FaucetService
	Health() HealthView
}
