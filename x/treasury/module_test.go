package treasury

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/grpc-ecosystem/grpc-gateway/runtime"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/hifi/x/treasury/keeper"
	"github.com/openalpha/hifi/x/treasury/types"
)

func TestStoreRoutesReadFund(t *testing.T) {
	query := func(key []byte, storeName string) ([]byte, int64, error) {
		require.Equal(t, types.StoreKey, storeName)
		require.Equal(t, keeper.FundKey(types.GlobalFundID), key)
		return []byte(`{"fund_id":"global"}`), 9, nil
	}

	mux := runtime.NewServeMux()
	RegisterStoreRoutes(mux, query)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hifi/treasury/v1/fund", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"fund_id":"global"}`, rec.Body.String())
	require.Equal(t, "9", rec.Header().Get("X-Cosmos-Block-Height"))
}
