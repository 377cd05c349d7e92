package platform_test

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

	"github.com/jordan/payment-capture-scheduler/pkg/config"
	"github.com/jordan/payment-capture-scheduler/pkg/models"
	"github.com/jordan/payment-capture-scheduler/pkg/platform"
)

func testConfig(baseURL string) config.PlatformConfig {
	return config.PlatformConfig{
		BaseURL:        baseURL,
		ClientID:       "client-id",
		ClientSecret:   "client-secret",
		RefreshToken:   "refresh-token",
		CaptureTimeout: 5 * time.Second,
		TokenTimeout:   5 * time.Second,
		ReadTimeout:    5 * time.Second,
		RequestsPerSec: 100,
		Burst:          100,
	}
}

// tokenEndpoint issues tok-1, tok-2, ... and counts how often it is hit.
func tokenEndpoint(t *testing.T, hits *atomic.Int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostFormValue("grant_type"))
		assert.Equal(t, "refresh-token", r.PostFormValue("refresh_token"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": fmt.Sprintf("tok-%d", n),
			"token_type":   "bearer",
			"expires_in":   3600,
		})
	}
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

func TestGetOrder(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var tokenHits atomic.Int64
		mux := http.NewServeMux()
		mux.HandleFunc("POST /oauth/token", tokenEndpoint(t, &tokenHits))
		mux.HandleFunc("GET /orders/1001", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"order": models.Order{
					ID:              "1001",
					FinancialStatus: "authorized",
					Attributes: []models.OrderAttribute{
						{Name: models.AttrPaymentIntent, Value: models.IntentValueDeferred},
					},
				},
			})
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		client := platform.NewRESTClient(testConfig(srv.URL), zap.NewNop())

		order, err := client.GetOrder(context.Background(), "1001")

		require.NoError(t, err)
		assert.Equal(t, "1001", order.ID)
		assert.Equal(t, models.IntentDeferred, order.CaptureIntent())
	})

	t.Run("NotFound", func(t *testing.T) {
		var tokenHits atomic.Int64
		mux := http.NewServeMux()
		mux.HandleFunc("POST /oauth/token", tokenEndpoint(t, &tokenHits))
		mux.HandleFunc("GET /orders/9999", func(w http.ResponseWriter, r *http.Request) {
			writeAPIError(w, http.StatusNotFound, "not_found", "order not found")
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		client := platform.NewRESTClient(testConfig(srv.URL), zap.NewNop())

		_, err := client.GetOrder(context.Background(), "9999")

		assert.ErrorIs(t, err, platform.ErrNotFound)
	})
}

func TestGetOrderTransactions(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var tokenHits atomic.Int64
		mux := http.NewServeMux()
		mux.HandleFunc("POST /oauth/token", tokenEndpoint(t, &tokenHits))
		mux.HandleFunc("GET /orders/1001/transactions", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"transactions": []models.Transaction{
					{ID: "tx-1", OrderID: "1001", Kind: models.KindAuthorization, Status: models.TxSuccess},
					{ID: "tx-2", OrderID: "1001", Kind: models.KindCapture, Status: models.TxSuccess, ParentID: "tx-1"},
				},
			})
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		client := platform.NewRESTClient(testConfig(srv.URL), zap.NewNop())

		txs, err := client.GetOrderTransactions(context.Background(), "1001")

		require.NoError(t, err)
		require.Len(t, txs, 2)
		assert.Equal(t, models.KindAuthorization, txs[0].Kind)
		assert.Equal(t, "tx-1", txs[1].ParentID)
	})
}

func TestCapture(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var tokenHits atomic.Int64
		mux := http.NewServeMux()
		mux.HandleFunc("POST /oauth/token", tokenEndpoint(t, &tokenHits))
		mux.HandleFunc("POST /orders/1001/transactions/tx-9/capture", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(models.CaptureResult{
				TransactionID: "tx-10",
				OrderID:       "1001",
				Status:        "success",
				CapturedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			})
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		client := platform.NewRESTClient(testConfig(srv.URL), zap.NewNop())

		result, err := client.Capture(context.Background(), "1001", "tx-9")

		require.NoError(t, err)
		assert.Equal(t, "tx-10", result.TransactionID)
		assert.Equal(t, "success", result.Status)
	})

	t.Run("AlreadyCaptured", func(t *testing.T) {
		var tokenHits atomic.Int64
		mux := http.NewServeMux()
		mux.HandleFunc("POST /oauth/token", tokenEndpoint(t, &tokenHits))
		mux.HandleFunc("POST /orders/1001/transactions/tx-9/capture", func(w http.ResponseWriter, r *http.Request) {
			writeAPIError(w, http.StatusUnprocessableEntity, "already_captured", "transaction has already been captured")
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		client := platform.NewRESTClient(testConfig(srv.URL), zap.NewNop())

		_, err := client.Capture(context.Background(), "1001", "tx-9")

		assert.ErrorIs(t, err, platform.ErrAlreadyCaptured)
	})

	t.Run("PermissionDenied", func(t *testing.T) {
		var tokenHits atomic.Int64
		mux := http.NewServeMux()
		mux.HandleFunc("POST /oauth/token", tokenEndpoint(t, &tokenHits))
		mux.HandleFunc("POST /orders/1001/transactions/tx-9/capture", func(w http.ResponseWriter, r *http.Request) {
			writeAPIError(w, http.StatusForbidden, "forbidden", "app lacks capture scope")
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		client := platform.NewRESTClient(testConfig(srv.URL), zap.NewNop())

		_, err := client.Capture(context.Background(), "1001", "tx-9")

		assert.ErrorIs(t, err, platform.ErrPermissionDenied)
	})
}

// An expired token comes back as a 401; the client must refresh once and
// retry with the new token rather than failing the call.
func TestRetriesOnceAfterUnauthorized(t *testing.T) {
	var tokenHits, orderHits atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/token", tokenEndpoint(t, &tokenHits))
	mux.HandleFunc("GET /orders/1001", func(w http.ResponseWriter, r *http.Request) {
		orderHits.Add(1)
		if r.Header.Get("Authorization") == "Bearer tok-1" {
			writeAPIError(w, http.StatusUnauthorized, "unauthorized", "token expired")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"order": models.Order{ID: "1001", FinancialStatus: "authorized"},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := platform.NewRESTClient(testConfig(srv.URL), zap.NewNop())

	order, err := client.GetOrder(context.Background(), "1001")

	require.NoError(t, err)
	assert.Equal(t, "1001", order.ID)
	assert.EqualValues(t, 2, tokenHits.Load())
	assert.EqualValues(t, 2, orderHits.Load())
}

func TestListAuthorizedOrders(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		since := time.Date(2025, 5, 25, 0, 0, 0, 0, time.UTC)

		var tokenHits atomic.Int64
		mux := http.NewServeMux()
		mux.HandleFunc("POST /oauth/token", tokenEndpoint(t, &tokenHits))
		mux.HandleFunc("GET /orders", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "authorized", r.URL.Query().Get("financial_status"))
			assert.Equal(t, since.Format(time.RFC3339), r.URL.Query().Get("updated_at_min"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"orders": []models.Order{{ID: "1001"}, {ID: "1002"}},
			})
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		client := platform.NewRESTClient(testConfig(srv.URL), zap.NewNop())

		orders, err := client.ListAuthorizedOrders(context.Background(), since)

		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, "1001", orders[0].ID)
	})
}
