package types

import (
	delegationtypes "github.com/openalpha/hifi/x/delegation/types"
	treasurytypes "github.com/openalpha/hifi/x/treasury/types"
	yieldpooltypes "github.com/openalpha/hifi/x/yieldpool/types"
)

// PoolView is a pool refreshed to the service clock
type PoolView struct {
	*yieldpooltypes.Pool
	TotalAssets    string `json:"total_assets"`
	PnLBps         int64  `json:"pnl_bps"`
	WithdrawOpen   bool   `json:"withdraw_open"`
	NextWindowOpen int64  `json:"next_window_open,omitempty"`
	Holders        int    `json:"holders"`
}

// PositionView is one user's holding in one pool
type PositionView struct {
	PoolID string `json:"pool_id"`
	Tier   string `json:"tier"`
	Shares string `json:"shares"`
	Value  string `json:"value"`
}

// RankEntry orders pools by return on principal
type RankEntry struct {
	PoolID      string               `json:"pool_id"`
	Tier        string               `json:"tier"`
	Phase       yieldpooltypes.Phase `json:"phase"`
	PnLBps      int64                `json:"pnl_bps"`
	TotalAssets string               `json:"total_assets"`
}

// GrantView is a grant together with its validity at the service clock
type GrantView struct {
	delegationtypes.Grant
	Valid bool `json:"valid"`
}

// TreasuryView is the fund with its spendable amount
type TreasuryView struct {
	*treasurytypes.Fund
	MinBalance string `json:"min_balance"`
	Available  string `json:"available"`
}

// FaucetRequest asks for test funds
type FaucetRequest struct {
	Address string `json:"address"`
	Amount  string `json:"amount,omitempty"`
}

// FaucetResponse reports the recipient's new balance
type FaucetResponse struct {
	Address string `json:"address"`
	Minted  string `json:"minted"`
	Balance string `json:"balance"`
}

// HealthView is the /health payload
type HealthView struct {
	Status      string `json:"status"`
	Time        int64  `json:"time"`
	BlockHeight int64  `json:"block_height"`
	Pools       int    `json:"pools"`
	Clients     int    `json:"ws_clients"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error     string `json:"error"`
	Codespace string `json:"codespace,omitempty"`
	Code      string `json:"code,omitempty"`
}
