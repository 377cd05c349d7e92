package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTokenServer(hits *atomic.Int64) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": fmt.Sprintf("tok-%d", n),
			"token_type":   "bearer",
			"expires_in":   3600,
		})
	}))
}

func TestTokenSourceCachesUntilExpiry(t *testing.T) {
	var hits atomic.Int64
	srv := newTokenServer(&hits)
	defer srv.Close()

	ts := newTokenSource(srv.Client(), srv.URL, "id", "secret", "refresh", 5*time.Second, zap.NewNop())
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base
	ts.now = func() time.Time { return current }

	tok, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	// Well within the lifetime: cached token, no extra request.
	current = base.Add(30 * time.Minute)
	tok, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.EqualValues(t, 1, hits.Load())

	// Inside the leeway window before expiry: refreshed early.
	current = base.Add(time.Hour - 30*time.Second)
	tok, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
	assert.EqualValues(t, 2, hits.Load())
}

func TestTokenSourceInvalidate(t *testing.T) {
	var hits atomic.Int64
	srv := newTokenServer(&hits)
	defer srv.Close()

	ts := newTokenSource(srv.Client(), srv.URL, "id", "secret", "refresh", 5*time.Second, zap.NewNop())

	tok, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	// Invalidating a token that was already replaced must not discard the
	// current one.
	ts.Invalidate("tok-0")
	tok, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.EqualValues(t, 1, hits.Load())

	ts.Invalidate("tok-1")
	tok, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
	assert.EqualValues(t, 2, hits.Load())
}

func TestTokenSourceRefreshRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	ts := newTokenSource(srv.Client(), srv.URL, "id", "bad-secret", "refresh", 5*time.Second, zap.NewNop())

	_, err := ts.Token(context.Background())

	assert.ErrorIs(t, err, ErrPermissionDenied)
}
