package handlers

import (
	"net/http"

	"cosmossdk.io/math"
	"github.com/gorilla/mux"

	apitypes "github.com/openalpha/hifi/api/types"
	yieldpooltypes "github.com/openalpha/hifi/x/yieldpool/types"
)

// PoolHandler handles pool API requests
type PoolHandler struct {
	service apitypes.PoolService
}

// NewPoolHandler creates a new PoolHandler
func NewPoolHandler(service apitypes.PoolService) *PoolHandler {
	return &PoolHandler{service: service}
}

// RegisterRoutes registers pool API routes
func (h *PoolHandler) RegisterRoutes(r *mux.Router) {
	// Queries
	r.HandleFunc("/v1/pools", h.ListPools).Methods("GET")
	r.HandleFunc("/v1/pools/ranking", h.Ranking).Methods("GET")
	r.HandleFunc("/v1/pools/{poolId}", h.GetPool).Methods("GET")
	r.HandleFunc("/v1/pools/{poolId}/metrics", h.RiskMetrics).Methods("GET")
	r.HandleFunc("/v1/pools/{poolId}/nav", h.NAVHistory).Methods("GET")
	r.HandleFunc("/v1/pools/{poolId}/preview", h.PreviewWithdraw).Methods("GET")
	r.HandleFunc("/v1/users/{address}/positions", h.Positions).Methods("GET")

	// Transactions
	r.HandleFunc("/v1/pools", msgHandler(h.service.CreatePool, nil)).Methods("POST")
	r.HandleFunc("/v1/pools/{poolId}/deposit", msgHandler(h.service.Deposit,
		func(r *http.Request, msg *yieldpooltypes.MsgDeposit) { msg.PoolID = pathVar(r, "poolId") })).Methods("POST")
	r.HandleFunc("/v1/pools/{poolId}/deploy", msgHandler(h.service.DeployToStrategy,
		func(r *http.Request, msg *yieldpooltypes.MsgDeployToStrategy) { msg.PoolID = pathVar(r, "poolId") })).Methods("POST")
	r.HandleFunc("/v1/pools/{poolId}/withdraw", msgHandler(h.service.Withdraw,
		func(r *http.Request, msg *yieldpooltypes.MsgWithdraw) { msg.PoolID = pathVar(r, "poolId") })).Methods("POST")
	r.HandleFunc("/v1/pools/{poolId}/withdraw-all", msgHandler(h.service.WithdrawAll,
		func(r *http.Request, msg *yieldpooltypes.MsgWithdrawAll) { msg.PoolID = pathVar(r, "poolId") })).Methods("POST")
	r.HandleFunc("/v1/pools/{poolId}/cap", msgHandler(h.service.SetCap,
		func(r *http.Request, msg *yieldpooltypes.MsgSetCap) { msg.PoolID = pathVar(r, "poolId") })).Methods("POST")
	r.HandleFunc("/v1/pools/{poolId}/owner", msgHandler(h.service.TransferOwnership,
		func(r *http.Request, msg *yieldpooltypes.MsgTransferOwnership) { msg.PoolID = pathVar(r, "poolId") })).Methods("POST")
	r.HandleFunc("/v1/pools/{poolId}/reset", msgHandler(h.service.ResetPool,
		func(r *http.Request, msg *yieldpooltypes.MsgResetPool) { msg.PoolID = pathVar(r, "poolId") })).Methods("POST")
}

// ListPools handles GET /v1/pools
func (h *PoolHandler) ListPools(w http.ResponseWriter, r *http.Request) {
	pools, err := h.service.ListPools(r.Context(), r.URL.Query().Get("tier"))
	if err != nil {
		WriteError(w, err)
		return
	}
	if pools == nil {
		pools = []*apitypes.PoolView{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"pools": pools,
		"total": len(pools),
	})
}

// GetPool handles GET /v1/pools/{poolId}
func (h *PoolHandler) GetPool(w http.ResponseWriter, r *http.Request) {
	pool, err := h.service.GetPool(r.Context(), pathVar(r, "poolId"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, pool)
}

// RiskMetrics handles GET /v1/pools/{poolId}/metrics
func (h *PoolHandler) RiskMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.service.RiskMetrics(r.Context(), pathVar(r, "poolId"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, metrics)
}

// NAVHistory handles GET /v1/pools/{poolId}/nav. The lower bound is taken
// from "from", or "since" when "from" is absent.
func (h *PoolHandler) NAVHistory(w http.ResponseWriter, r *http.Request) {
	from, err := queryInt(r, "from")
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	if from == 0 {
		if from, err = queryInt(r, "since"); err != nil {
			WriteBadRequest(w, err.Error())
			return
		}
	}
	to, err := queryInt(r, "to")
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	if to != 0 && to < from {
		WriteBadRequest(w, "to must not be before from")
		return
	}

	poolID := pathVar(r, "poolId")
	history, err := h.service.NAVHistory(r.Context(), poolID, from, to, int(limit))
	if err != nil {
		WriteError(w, err)
		return
	}
	if history == nil {
		history = []*yieldpooltypes.NAVHistory{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"pool_id": poolID,
		"history": history,
		"total":   len(history),
	})
}

// PreviewWithdraw handles GET /v1/pools/{poolId}/preview?shares=
func (h *PoolHandler) PreviewWithdraw(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("shares")
	shares, ok := math.NewIntFromString(raw)
	if !ok || shares.IsNegative() {
		WriteBadRequest(w, "invalid shares: "+raw)
		return
	}

	poolID := pathVar(r, "poolId")
	payout, err := h.service.PreviewWithdraw(r.Context(), poolID, shares)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"pool_id": poolID,
		"shares":  shares.String(),
		"payout":  payout.String(),
	})
}

// Ranking handles GET /v1/pools/ranking
func (h *PoolHandler) Ranking(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ranking": h.service.Ranking(r.Context(), int(limit)),
	})
}

// Positions handles GET /v1/users/{address}/positions
func (h *PoolHandler) Positions(w http.ResponseWriter, r *http.Request) {
	owner := pathVar(r, "address")
	positions, err := h.service.Positions(r.Context(), owner)
	if err != nil {
		WriteError(w, err)
		return
	}
	if positions == nil {
		positions = []apitypes.PositionView{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"owner":     owner,
		"positions": positions,
		"total":     len(positions),
	})
}
