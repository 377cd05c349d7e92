package scheduler

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/jordan/payment-capture-scheduler/pkg/models"
)

// ErrValidation is returned when a schedule request is missing required fields.
var ErrValidation = errors.New("invalid schedule request")

// ErrStopped is returned when scheduling is attempted after shutdown began.
var ErrStopped = errors.New("scheduler is stopped")

// Scheduler defines the interface for a component that holds deferred capture
// jobs and executes them when they come due.
type Scheduler interface {
	// Schedule registers a capture for the order at dueAt. A live job already
	// registered for the order is cancelled first; the most recent intent wins.
	// A dueAt in the past is valid and means "capture as soon as possible".
	Schedule(ctx context.Context, orderID, transactionID string, dueAt time.Time) (*models.ScheduledCapture, error)

	// Cancel invalidates the live job for the order, reporting whether one
	// existed. Cancelling an order with no live job is a valid no-op. A job
	// whose capture call is already in flight is removed from the registry
	// but the call itself is not interrupted.
	Cancel(ctx context.Context, orderID string) bool

	// List returns a summary of every live job, soonest due first.
	List(ctx context.Context) []models.ScheduledCaptureSummary
}
