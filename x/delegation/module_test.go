package delegation

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/grpc-ecosystem/grpc-gateway/runtime"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/hifi/x/delegation/keeper"
	"github.com/openalpha/hifi/x/delegation/types"
)

func TestStoreRoutesReadGrantsAndParams(t *testing.T) {
	stored := map[string][]byte{
		string(keeper.ParamsKey): []byte(`{"paused":false}`),
		string(keeper.GrantKey("alice", "p1", types.CapabilityWithdraw)): []byte(`{"grantor":"alice"}`),
	}
	query := func(key []byte, storeName string) ([]byte, int64, error) {
		require.Equal(t, types.StoreKey, storeName)
		return stored[string(key)], 3, nil
	}

	mux := runtime.NewServeMux()
	RegisterStoreRoutes(mux, query)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get("/hifi/delegation/v1/params")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"paused":false}`, rec.Body.String())

	rec = get("/hifi/delegation/v1/grants/alice/p1/WITHDRAW")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"grantor":"alice"}`, rec.Body.String())

	require.Equal(t, http.StatusNotFound, get("/hifi/delegation/v1/grants/alice/p1/STOP_LOSS").Code)
	require.Equal(t, http.StatusBadRequest, get("/hifi/delegation/v1/grants/alice/p1/TRADE").Code)
}
