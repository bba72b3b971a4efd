package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/hifi/api"
	apitypes "github.com/openalpha/hifi/api/types"
	"github.com/openalpha/hifi/pkg/apiclient"
)

// HTTP client -> router -> PoolService -> keepers on an in-memory store
func TestClientAgainstServer(t *testing.T) {
	config := api.DefaultConfig()
	config.DisableRateLimit = true

	server, err := api.NewServer(config, log.NewNopLogger())
	require.NoError(t, err)

	srv := httptest.NewServer(server.Handler())
	defer srv.Close()

	ctx := context.Background()
	client := apiclient.NewClient(&apiclient.Config{BaseURL: srv.URL, Timeout: 5 * time.Second})

	var health apitypes.HealthView
	require.NoError(t, client.Get(ctx, "/health", nil, &health))
	require.Equal(t, "ok", health.Status)
	require.Equal(t, 3, health.Pools)

	var list struct {
		Pools []apitypes.PoolView `json:"pools"`
		Total int                 `json:"total"`
	}
	require.NoError(t, client.Get(ctx, "/v1/pools", url.Values{"tier": {"aggressive"}}, &list))
	require.Equal(t, 1, list.Total)
	require.Equal(t, "aggressive-1", list.Pools[0].PoolID)

	user := sdk.AccAddress([]byte("e2e-user-address-20b")).String()
	var minted apitypes.FaucetResponse
	require.NoError(t, client.Post(ctx, "/v1/faucet", apitypes.FaucetRequest{Address: user, Amount: "5000"}, &minted))
	require.Equal(t, "5000", minted.Balance)

	var deposit struct {
		SharesMinted string `json:"shares_minted"`
		Deployed     bool   `json:"deployed"`
	}
	require.NoError(t, client.Post(ctx, "/v1/pools/stable-1/deposit",
		map[string]string{"depositor": user, "amount": "5000"}, &deposit))
	require.Equal(t, "5000", deposit.SharesMinted)
	require.False(t, deposit.Deployed)

	// Collecting pools cannot be withdrawn from
	err = client.Post(ctx, "/v1/pools/stable-1/withdraw", map[string]string{"owner": user, "shares": "1"}, nil)
	var apiErr *apiclient.Error
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusConflict, apiErr.Status)

	var positions struct {
		Positions []apitypes.PositionView `json:"positions"`
	}
	require.NoError(t, client.Get(ctx, "/v1/users/"+user+"/positions", nil, &positions))
	require.Len(t, positions.Positions, 1)
	require.Equal(t, "5000", positions.Positions[0].Shares)

	requests, failures := client.GetMetrics()
	require.Equal(t, uint64(6), requests)
	require.Equal(t, uint64(1), failures)
}
