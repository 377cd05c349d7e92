package platform

import (
	"context"
	"time"

	"github.com/jordan/payment-capture-scheduler/pkg/models"
)

// OrderReader defines the interface for reading order data off the platform.
type OrderReader interface {
	// GetOrder retrieves a single order by its ID.
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)

	// GetOrderTransactions retrieves the payment transactions recorded
	// against an order, newest first.
	GetOrderTransactions(ctx context.Context, orderID string) ([]models.Transaction, error)
}

// PaymentCapturer defines the interface for converting a held authorization
// into an actual funds transfer.
type PaymentCapturer interface {
	// Capture captures the given authorization transaction. The call is
	// bounded by the configured capture timeout.
	Capture(ctx context.Context, orderID, transactionID string) (*models.CaptureResult, error)
}

// OrderSearcher defines the interface used by the reconciliation pass to
// re-derive pending work from the platform.
type OrderSearcher interface {
	// ListAuthorizedOrders returns orders still in the authorized financial
	// state that were updated at or after the given time.
	ListAuthorizedOrders(ctx context.Context, updatedSince time.Time) ([]models.Order, error)
}

// Client composes the full platform surface this service consumes. Components
// should depend on the granular interfaces instead of this one.
type Client interface {
	OrderReader
	PaymentCapturer
	OrderSearcher
}
