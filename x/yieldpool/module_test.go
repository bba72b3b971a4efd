package yieldpool

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/grpc-ecosystem/grpc-gateway/runtime"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/hifi/x/yieldpool/keeper"
	"github.com/openalpha/hifi/x/yieldpool/types"
)

func TestStoreRoutesReadPoolKey(t *testing.T) {
	stored := map[string][]byte{string(keeper.PoolKey("stable-1")): []byte(`{"pool_id":"stable-1"}`)}
	var stores []string
	query := func(key []byte, storeName string) ([]byte, int64, error) {
		stores = append(stores, storeName)
		return stored[string(key)], 7, nil
	}

	mux := runtime.NewServeMux()
	RegisterStoreRoutes(mux, query)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hifi/yieldpool/v1/pools/stable-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"pool_id":"stable-1"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hifi/yieldpool/v1/pools/missing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, []string{types.StoreKey, types.StoreKey}, stores)
}
