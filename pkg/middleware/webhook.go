package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// HeaderWebhookSignature carries the platform's HMAC digest of the delivery body.
const HeaderWebhookSignature = "X-Webhook-Hmac-Sha256"

// VerifyWebhookSignature accepts deliveries without checking the digest.
// Deliveries only ever cause the order to be re-read from the platform, so a
// forged webhook cannot move money by itself.
// TODO: verify the HMAC once a webhook shared secret is provisioned.
func VerifyWebhookSignature(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(HeaderWebhookSignature) == "" {
				logger.Debug("webhook delivery carried no signature",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}
