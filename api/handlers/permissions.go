package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	apitypes "github.com/openalpha/hifi/api/types"
	delegationtypes "github.com/openalpha/hifi/x/delegation/types"
)

// DelegationHandler handles permission registry and delegated execution
// requests
type DelegationHandler struct {
	service apitypes.DelegationService
}

// NewDelegationHandler creates a new DelegationHandler
func NewDelegationHandler(service apitypes.DelegationService) *DelegationHandler {
	return &DelegationHandler{service: service}
}

// RegisterRoutes registers delegation API routes
func (h *DelegationHandler) RegisterRoutes(r *mux.Router) {
	// Grants
	r.HandleFunc("/v1/permissions", msgHandler(h.service.GrantPermission, nil)).Methods("POST")
	r.HandleFunc("/v1/permissions/revoke", msgHandler(h.service.RevokePermission, nil)).Methods("POST")
	r.HandleFunc("/v1/permissions/revoke-all", msgHandler(h.service.RevokeAllPermissions, nil)).Methods("POST")
	r.HandleFunc("/v1/permissions/extend", msgHandler(h.service.ExtendPermission, nil)).Methods("POST")
	r.HandleFunc("/v1/permissions/{grantor}", h.Grants).Methods("GET")
	r.HandleFunc("/v1/permissions/{grantor}/pools", h.UserPools).Methods("GET")
	r.HandleFunc("/v1/permissions/{grantor}/{poolId}/{capability}", h.Permission).Methods("GET")

	// Delegated execution
	r.HandleFunc("/v1/execute/withdraw", msgHandler(h.service.ExecuteWithdrawal, nil)).Methods("POST")
	r.HandleFunc("/v1/execute/stop-loss", msgHandler(h.service.ExecuteStopLoss, nil)).Methods("POST")
	r.HandleFunc("/v1/actions", h.Actions).Methods("GET")

	// Operators and registry
	r.HandleFunc("/v1/operators", h.Operators).Methods("GET")
	r.HandleFunc("/v1/operators", msgHandler(h.service.AddOperator, nil)).Methods("POST")
	r.HandleFunc("/v1/operators/remove", msgHandler(h.service.RemoveOperator, nil)).Methods("POST")
	r.HandleFunc("/v1/registry", h.Registry).Methods("GET")
	r.HandleFunc("/v1/registry/pause", msgHandler(h.service.SetPaused, nil)).Methods("POST")
	r.HandleFunc("/v1/registry/max-duration", msgHandler(h.service.SetMaxPermissionDuration, nil)).Methods("POST")
	r.HandleFunc("/v1/registry/owner", msgHandler(h.service.TransferRegistryOwnership, nil)).Methods("POST")
}

// Grants handles GET /v1/permissions/{grantor}
func (h *DelegationHandler) Grants(w http.ResponseWriter, r *http.Request) {
	grantor := pathVar(r, "grantor")
	grants, err := h.service.Grants(r.Context(), grantor)
	if err != nil {
		WriteError(w, err)
		return
	}
	if grants == nil {
		grants = []*delegationtypes.Grant{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"grantor": grantor,
		"grants":  grants,
		"total":   len(grants),
	})
}

// UserPools handles GET /v1/permissions/{grantor}/pools
func (h *DelegationHandler) UserPools(w http.ResponseWriter, r *http.Request) {
	grantor := pathVar(r, "grantor")
	pools, err := h.service.UserPools(r.Context(), grantor)
	if err != nil {
		WriteError(w, err)
		return
	}
	if pools == nil {
		pools = []string{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"grantor": grantor,
		"pools":   pools,
	})
}

// Permission handles GET /v1/permissions/{grantor}/{poolId}/{capability}
func (h *DelegationHandler) Permission(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	view, err := h.service.Permission(r.Context(), vars["grantor"], vars["poolId"], vars["capability"])
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, view)
}

// Actions handles GET /v1/actions?grantor=&limit=
func (h *DelegationHandler) Actions(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	records, err := h.service.Actions(r.Context(), r.URL.Query().Get("grantor"), int(limit))
	if err != nil {
		WriteError(w, err)
		return
	}
	if records == nil {
		records = []*delegationtypes.ActionRecord{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"actions": records,
		"total":   len(records),
	})
}

// Operators handles GET /v1/operators
func (h *DelegationHandler) Operators(w http.ResponseWriter, r *http.Request) {
	ops, err := h.service.Operators(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	if ops == nil {
		ops = []*delegationtypes.Operator{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"operators": ops,
		"total":     len(ops),
	})
}

// Registry handles GET /v1/registry
func (h *DelegationHandler) Registry(w http.ResponseWriter, r *http.Request) {
	params, err := h.service.Registry(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, params)
}
