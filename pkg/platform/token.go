package platform

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// expiryLeeway is subtracted from the token lifetime so a token is refreshed
// before it can expire mid-request.
const expiryLeeway = 60 * time.Second

// tokenSource manages the OAuth access token for the platform API. It caches
// the current token and refreshes it with the refresh-token grant when it is
// missing or about to expire. Refreshes are single-flight: the mutex is held
// across the refresh call so concurrent requests wait for one refresh instead
// of racing their own.
type tokenSource struct {
	httpClient   *http.Client
	tokenURL     string
	clientID     string
	clientSecret string
	refreshToken string
	timeout      time.Duration
	logger       *zap.Logger
	now          func() time.Time

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

func newTokenSource(httpClient *http.Client, tokenURL, clientID, clientSecret, refreshToken string, timeout time.Duration, logger *zap.Logger) *tokenSource {
	return &tokenSource{
		httpClient:   httpClient,
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		refreshToken: refreshToken,
		timeout:      timeout,
		logger:       logger,
		now:          time.Now,
	}
}

// Token returns a valid access token, refreshing it first if needed.
func (t *tokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.accessToken != "" && t.now().Before(t.expiresAt.Add(-expiryLeeway)) {
		return t.accessToken, nil
	}

	if err := t.refresh(ctx); err != nil {
		return "", err
	}

	return t.accessToken, nil
}

// Invalidate drops the cached token if it is still the one the caller saw
// rejected. A token refreshed by another goroutine in the meantime survives.
func (t *tokenSource) Invalidate(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.accessToken == token {
		t.accessToken = ""
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// refresh performs the refresh-token grant. Callers must hold t.mu.
func (t *tokenSource) refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {t.refreshToken},
		"client_id":     {t.clientID},
		"client_secret": {t.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "failed to create token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return errors.Wrap(ErrNetworkTimeout, "token refresh")
		}
		return errors.Wrap(err, "token refresh request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.Wrapf(ErrPermissionDenied, "token refresh rejected (status %d)", resp.StatusCode)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Newf("token refresh returned status %d: %s", resp.StatusCode, string(body))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return errors.Wrap(err, "failed to decode token response")
	}
	if tr.AccessToken == "" {
		return errors.New("token response contained no access token")
	}

	t.accessToken = tr.AccessToken
	t.expiresAt = t.now().Add(time.Duration(tr.ExpiresIn) * time.Second)

	t.logger.Info("platform access token refreshed",
		zap.Time("expires_at", t.expiresAt),
	)

	return nil
}
