package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	apitypes "github.com/openalpha/hifi/api/types"
	treasurytypes "github.com/openalpha/hifi/x/treasury/types"
)

// TreasuryHandler handles treasury and faucet requests
type TreasuryHandler struct {
	treasury apitypes.TreasuryService
	faucet   apitypes.FaucetService
}

// NewTreasuryHandler creates a new TreasuryHandler. A nil faucet leaves the
// faucet route unregistered.
func NewTreasuryHandler(treasury apitypes.TreasuryService, faucet apitypes.FaucetService) *TreasuryHandler {
	return &TreasuryHandler{treasury: treasury, faucet: faucet}
}

// RegisterRoutes registers treasury API routes
func (h *TreasuryHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/v1/treasury", h.Treasury).Methods("GET")
	r.HandleFunc("/v1/treasury/events", h.Events).Methods("GET")
	r.HandleFunc("/v1/treasury/fund", msgHandler(h.treasury.FundTreasury, nil)).Methods("POST")
	if h.faucet != nil {
		r.HandleFunc("/v1/faucet", msgHandler(h.faucet.Faucet, nil)).Methods("POST")
	}
}

// Treasury handles GET /v1/treasury
func (h *TreasuryHandler) Treasury(w http.ResponseWriter, r *http.Request) {
	view, err := h.treasury.Treasury(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, view)
}

// Events handles GET /v1/treasury/events?limit=
func (h *TreasuryHandler) Events(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	events, err := h.treasury.TreasuryEvents(r.Context(), int(limit))
	if err != nil {
		WriteError(w, err)
		return
	}
	if events == nil {
		events = []*treasurytypes.Event{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"total":  len(events),
	})
}
