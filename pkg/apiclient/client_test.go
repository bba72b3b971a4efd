package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetDecodesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/pools", r.URL.Path)
		require.Equal(t, "stable", r.URL.Query().Get("tier"))
		_ = json.NewEncoder(w).Encode(map[string]string{"pool_id": "stable-1"})
	}))
	defer srv.Close()

	c := NewClient(&Config{BaseURL: srv.URL, Timeout: time.Second})
	var out map[string]string
	require.NoError(t, c.Get(context.Background(), "/v1/pools", url.Values{"tier": {"stable"}}, &out))
	require.Equal(t, "stable-1", out["pool_id"])
}

func TestClientErrorIsNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"window closed","code":"WINDOW_CLOSED"}`))
	}))
	defer srv.Close()

	c := NewClient(&Config{BaseURL: srv.URL, Timeout: time.Second, RetryAttempts: 3})
	err := c.Post(context.Background(), "/v1/pools/p1/withdraw", map[string]string{"shares": "1"}, nil)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusConflict, apiErr.Status)
	require.Equal(t, "WINDOW_CLOSED", apiErr.Code)
	require.Equal(t, 1, calls)

	requests, failures := c.GetMetrics()
	require.Equal(t, uint64(1), requests)
	require.Equal(t, uint64(1), failures)
}

func TestServerErrorIsRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(&Config{BaseURL: srv.URL, Timeout: time.Second, RetryAttempts: 2, RetryBackoff: time.Millisecond})
	var out map[string]bool
	require.NoError(t, c.Get(context.Background(), "/health", nil, &out))
	require.True(t, out["ok"])
	require.Equal(t, 3, calls)
}
