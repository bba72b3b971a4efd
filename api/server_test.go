package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/hifi/api/websocket"
)

func newTestServer(t *testing.T, mutators ...func(*Config)) (*Server, *testEnv) {
	t.Helper()
	env := newTestEnv(t, mutators...)
	s := newServer(env.svc.config, env.svc, websocket.NewHub(nil, nil), log.NewNopLogger())
	t.Cleanup(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
	})
	return s, env
}

func doRequest(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestServerHealth(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	for _, path := range []string{"/health", "/v1/health"} {
		rec := doRequest(t, h, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		require.Equal(t, "ok", body["status"])
		require.EqualValues(t, 3, body["pools"])
	}
}

func TestServerPoolFlow(t *testing.T) {
	s, env := newTestServer(t)
	h := s.Handler()
	env.createPool(t, "p1", 1_000_000, 2)

	rec := doRequest(t, h, http.MethodGet, "/v1/pools", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 4, decode(t, rec)["total"])

	rec = doRequest(t, h, http.MethodPost, "/v1/faucet", map[string]string{"address": alice, "amount": "1000000"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "1000000", decode(t, rec)["balance"])

	rec = doRequest(t, h, http.MethodPost, "/v1/pools/p1/deposit", map[string]string{"depositor": alice, "amount": "1000000"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, true, decode(t, rec)["deployed"])

	rec = doRequest(t, h, http.MethodGet, "/v1/pools/p1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pool := decode(t, rec)
	require.Equal(t, "p1", pool["pool_id"])
	require.Equal(t, "deployed", pool["phase"])

	rec = doRequest(t, h, http.MethodPost, "/v1/pools/p1/withdraw", map[string]string{"owner": alice, "shares": "1"})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "yieldpool", decode(t, rec)["codespace"])

	env.clock.Advance(time.Minute)

	rec = doRequest(t, h, http.MethodGet, "/v1/pools/p1/preview?shares=1000000", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(t, h, http.MethodPost, "/v1/pools/p1/withdraw-all", map[string]string{"owner": alice})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, true, decode(t, rec)["pool_reset"])

	rec = doRequest(t, h, http.MethodGet, "/v1/users/"+alice+"/positions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestServerErrors(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	rec := doRequest(t, h, http.MethodGet, "/v1/pools/missing", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decode(t, rec)
	require.Equal(t, "yieldpool", body["codespace"])
	require.Equal(t, "1", body["code"])

	rec = doRequest(t, h, http.MethodPost, "/v1/pools/stable-1/deposit", map[string]string{"depositor": alice, "amount": "10", "memo": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "bad_request", decode(t, rec)["code"])

	rec = doRequest(t, h, http.MethodGet, "/v1/pools/stable-1/nav?from=abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/v1/pools/stable-1/nav?from=20&to=10", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/v1/nothing-here", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "not_found", decode(t, rec)["code"])

	rec = doRequest(t, h, http.MethodDelete, "/v1/pools", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/v1/execute/withdraw", map[string]string{
		"operator": bob,
		"grantor":  alice,
		"pool_id":  "stable-1",
		"shares":   "1",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "delegation", decode(t, rec)["codespace"])
}

func TestServerPermissions(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	path := "/v1/permissions/" + alice + "/stable-1/WITHDRAW"
	rec := doRequest(t, h, http.MethodGet, path, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/v1/permissions", map[string]interface{}{
		"grantor":          alice,
		"pool_id":          "stable-1",
		"capability":       "WITHDRAW",
		"duration_seconds": 3600,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.EqualValues(t, genesisTime.Unix()+3600, decode(t, rec)["expires_at"])

	rec = doRequest(t, h, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, decode(t, rec)["valid"])

	rec = doRequest(t, h, http.MethodPost, "/v1/permissions/revoke", map[string]string{
		"grantor":    alice,
		"pool_id":    "stable-1",
		"capability": "WITHDRAW",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(t, h, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, false, decode(t, rec)["valid"])

	rec = doRequest(t, h, http.MethodGet, "/v1/operators", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/v1/registry", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestServerTreasury(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	rec := doRequest(t, h, http.MethodGet, "/v1/treasury", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "50000000", decode(t, rec)["balance"])

	rec = doRequest(t, h, http.MethodGet, "/v1/treasury/events?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestServerFaucetDisabled(t *testing.T) {
	s, _ := newTestServer(t, func(c *Config) { c.FaucetAmount = math.ZeroInt() })

	rec := doRequest(t, s.Handler(), http.MethodPost, "/v1/faucet", map[string]string{"address": alice})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServerCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s.Handler(), http.MethodOptions, "/v1/pools", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServerRateLimit(t *testing.T) {
	s, _ := newTestServer(t, func(c *Config) {
		c.DisableRateLimit = false
		c.RateLimit = 1
		c.RateBurst = 1
	})
	h := s.Handler()

	rec := doRequest(t, h, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
	require.Equal(t, "rate_limit_exceeded", decode(t, rec)["code"])
}

func TestServerMetrics(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	doRequest(t, h, http.MethodGet, "/v1/pools", nil)
	rec := doRequest(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "/v1/pools")
}
