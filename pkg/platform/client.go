package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jordan/payment-capture-scheduler/pkg/config"
	"github.com/jordan/payment-capture-scheduler/pkg/models"
)

// RESTClient talks to the commerce platform's admin REST API. All calls are
// rate limited with a shared token bucket and authenticated with a bearer
// token obtained through the refresh-token grant.
type RESTClient struct {
	baseURL        string
	httpClient     *http.Client
	tokens         *tokenSource
	limiter        *rate.Limiter
	logger         *zap.Logger
	captureTimeout time.Duration
	readTimeout    time.Duration
}

var _ Client = (*RESTClient)(nil)

// NewRESTClient builds a platform client from configuration. The zero-valued
// http.Client is fine here: per-call timeouts come from request contexts, not
// from the transport.
func NewRESTClient(cfg config.PlatformConfig, logger *zap.Logger) *RESTClient {
	httpClient := &http.Client{}
	return &RESTClient{
		baseURL:    cfg.BaseURL,
		httpClient: httpClient,
		tokens: newTokenSource(
			httpClient,
			cfg.BaseURL+"/oauth/token",
			cfg.ClientID,
			cfg.ClientSecret,
			cfg.RefreshToken,
			cfg.TokenTimeout,
			logger,
		),
		limiter:        rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		logger:         logger,
		captureTimeout: cfg.CaptureTimeout,
		readTimeout:    cfg.ReadTimeout,
	}
}

// GetOrder fetches a single order with its note attributes.
func (c *RESTClient) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, c.readTimeout)
	defer cancel()

	var out struct {
		Order models.Order `json:"order"`
	}
	path := fmt.Sprintf("/orders/%s", url.PathEscape(orderID))
	if err := c.doJSON(ctx, http.MethodGet, path, &out); err != nil {
		return nil, errors.Wrapf(err, "failed to get order %s", orderID)
	}
	return &out.Order, nil
}

// GetOrderTransactions fetches the full transaction history of an order,
// authorizations and captures included.
func (c *RESTClient) GetOrderTransactions(ctx context.Context, orderID string) ([]models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, c.readTimeout)
	defer cancel()

	var out struct {
		Transactions []models.Transaction `json:"transactions"`
	}
	path := fmt.Sprintf("/orders/%s/transactions", url.PathEscape(orderID))
	if err := c.doJSON(ctx, http.MethodGet, path, &out); err != nil {
		return nil, errors.Wrapf(err, "failed to get transactions for order %s", orderID)
	}
	return out.Transactions, nil
}

// Capture settles a previously authorized transaction for the full
// authorized amount.
func (c *RESTClient) Capture(ctx context.Context, orderID, transactionID string) (*models.CaptureResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.captureTimeout)
	defer cancel()

	var out models.CaptureResult
	path := fmt.Sprintf("/orders/%s/transactions/%s/capture",
		url.PathEscape(orderID), url.PathEscape(transactionID))
	if err := c.doJSON(ctx, http.MethodPost, path, &out); err != nil {
		return nil, errors.Wrapf(err, "failed to capture transaction %s on order %s", transactionID, orderID)
	}

	c.logger.Info("capture call succeeded",
		zap.String("order_id", orderID),
		zap.String("transaction_id", transactionID),
		zap.String("status", out.Status),
	)
	return &out, nil
}

// ListAuthorizedOrders returns orders still in the authorized financial state
// that were updated at or after the given time. Used by reconciliation to
// find orders whose webhooks never arrived.
func (c *RESTClient) ListAuthorizedOrders(ctx context.Context, updatedSince time.Time) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, c.readTimeout)
	defer cancel()

	var out struct {
		Orders []models.Order `json:"orders"`
	}
	q := url.Values{
		"financial_status": {"authorized"},
		"updated_at_min":   {updatedSince.UTC().Format(time.RFC3339)},
	}
	path := "/orders?" + q.Encode()
	if err := c.doJSON(ctx, http.MethodGet, path, &out); err != nil {
		return nil, errors.Wrap(err, "failed to list authorized orders")
	}
	return out.Orders, nil
}

// doJSON performs one rate-limited, authenticated request and decodes the
// response into out. A 401 invalidates the cached token and the request is
// retried once with a fresh one.
func (c *RESTClient) doJSON(ctx context.Context, method, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limiter wait interrupted")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, method, path, token)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		c.tokens.Invalidate(token)

		token, err = c.tokens.Token(ctx)
		if err != nil {
			return err
		}
		resp, err = c.do(ctx, method, path, token)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.mapError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "failed to decode response body")
	}
	return nil
}

func (c *RESTClient) do(ctx context.Context, method, path, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.Wrapf(ErrNetworkTimeout, "%s %s", method, path)
		}
		return nil, errors.Wrapf(err, "%s %s failed", method, path)
	}
	return resp, nil
}

// apiError is the platform's error envelope.
type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// mapError translates a non-2xx response into one of the package sentinels
// where the status is unambiguous, and a plain error otherwise. The body is
// consumed here; callers must not read it again.
func (c *RESTClient) mapError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var envelope apiError
	_ = json.Unmarshal(body, &envelope)
	code := envelope.Error.Code
	message := envelope.Error.Message

	switch resp.StatusCode {
	case http.StatusNotFound:
		return errors.Wrapf(ErrNotFound, "%s", message)
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.Wrapf(ErrPermissionDenied, "%s", message)
	case http.StatusConflict, http.StatusUnprocessableEntity:
		if code == "already_captured" {
			return errors.Wrapf(ErrAlreadyCaptured, "%s", message)
		}
	}

	if message == "" {
		message = string(body)
	}
	return errors.Newf("platform returned status %d: %s", resp.StatusCode, message)
}
