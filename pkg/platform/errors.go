package platform

import "github.com/cockroachdb/errors"

// ErrNotFound is returned when the platform does not know the requested order.
var ErrNotFound = errors.New("order not found")

// ErrPermissionDenied is returned when the credential lacks the required scope.
// It indicates a configuration problem, not a transient fault.
var ErrPermissionDenied = errors.New("permission denied by platform")

// ErrAlreadyCaptured is returned when the authorization was captured before,
// by this service or by someone in the platform admin UI.
var ErrAlreadyCaptured = errors.New("transaction already captured")

// ErrNetworkTimeout is returned when a platform call exceeded its deadline.
var ErrNetworkTimeout = errors.New("platform request timed out")

// ErrorClass buckets a platform error for metric labels and log fields.
func ErrorClass(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrAlreadyCaptured):
		return "already_captured"
	case errors.Is(err, ErrNetworkTimeout):
		return "timeout"
	default:
		return "remote"
	}
}
