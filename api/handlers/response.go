package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	errorsmod "cosmossdk.io/errors"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	apitypes "github.com/openalpha/hifi/api/types"
	"github.com/openalpha/hifi/metrics"
	delegationtypes "github.com/openalpha/hifi/x/delegation/types"
	treasurytypes "github.com/openalpha/hifi/x/treasury/types"
	yieldpooltypes "github.com/openalpha/hifi/x/yieldpool/types"
)

var (
	notFoundErrors = []error{
		yieldpooltypes.ErrPoolNotFound,
		delegationtypes.ErrPoolNotFound,
		delegationtypes.ErrNotGranted,
		delegationtypes.ErrOperatorNotFound,
	}
	forbiddenErrors = []error{
		yieldpooltypes.ErrUnauthorized,
		delegationtypes.ErrUnauthorized,
		delegationtypes.ErrNotOperator,
		delegationtypes.ErrPermissionInvalid,
		delegationtypes.ErrPermissionExhausted,
	}
	conflictErrors = []error{
		yieldpooltypes.ErrPoolAlreadyExists,
		yieldpooltypes.ErrInvalidState,
		yieldpooltypes.ErrWindowClosed,
		yieldpooltypes.ErrCapExceeded,
		yieldpooltypes.ErrCapNotReached,
		delegationtypes.ErrPaused,
		delegationtypes.ErrWindowClosed,
		delegationtypes.ErrOperatorExists,
	}
	unavailableErrors = []error{
		yieldpooltypes.ErrFundingInsufficient,
		yieldpooltypes.ErrVenueUnavailable,
		treasurytypes.ErrInsufficientFunds,
	}
)

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ErrorStatus maps a module error to an HTTP status. Registered errors not
// listed elsewhere are client errors; anything unregistered is a server error.
func ErrorStatus(err error) int {
	switch {
	case isAny(err, notFoundErrors):
		return http.StatusNotFound
	case isAny(err, forbiddenErrors):
		return http.StatusForbidden
	case isAny(err, conflictErrors):
		return http.StatusConflict
	case isAny(err, unavailableErrors):
		return http.StatusServiceUnavailable
	case errors.Is(err, sdkerrors.ErrPanic):
		return http.StatusInternalServerError
	}
	if codespace, _, _ := errorsmod.ABCIInfo(err, false); codespace != errorsmod.UndefinedCodespace {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// WriteJSON writes v with the given status
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes err as an ErrorResponse with its mapped status
func WriteError(w http.ResponseWriter, err error) {
	status := ErrorStatus(err)
	resp := apitypes.ErrorResponse{Error: err.Error()}
	if codespace, code, _ := errorsmod.ABCIInfo(err, false); codespace != errorsmod.UndefinedCodespace {
		resp.Codespace = codespace
		resp.Code = strconv.FormatUint(uint64(code), 10)
		metrics.GetCollector().RecordAPIError(codespace, resp.Code)
	} else {
		metrics.GetCollector().RecordAPIError("internal", "0")
	}
	WriteJSON(w, status, resp)
}

// WriteBadRequest reports a malformed request
func WriteBadRequest(w http.ResponseWriter, msg string) {
	metrics.GetCollector().RecordAPIError("request", "0")
	WriteJSON(w, http.StatusBadRequest, apitypes.ErrorResponse{Error: msg, Code: "bad_request"})
}

// decodeBody reads a JSON request body into v
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		WriteBadRequest(w, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// queryInt parses an optional integer query parameter
func queryInt(r *http.Request, name string) (int64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.New("invalid " + name + ": " + s)
	}
	if v < 0 {
		return 0, errors.New(name + " must be non-negative")
	}
	return v, nil
}
