package processor

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/jordan/payment-capture-scheduler/pkg/models"
	"github.com/jordan/payment-capture-scheduler/pkg/platform"
	"github.com/jordan/payment-capture-scheduler/pkg/scheduler"
)

// ErrNoAuthorizedTransaction is returned when an order flagged for capture
// has no open authorization to capture against. The order never gets a job;
// this is a data condition, not a scheduler fault.
var ErrNoAuthorizedTransaction = errors.New("order has no capturable authorization")

// Financial states in which there is nothing left to capture.
var settledStatuses = map[string]bool{
	"paid":     true,
	"voided":   true,
	"refunded": true,
}

// Processor turns an order into scheduler intent: read the payment-intent
// flag off the order, find the open authorization, and schedule its capture
// for now or later. It is driven by webhook deliveries and by reconciliation.
type Processor struct {
	orders       platform.OrderReader
	scheduler    scheduler.Scheduler
	defaultDelay time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// New creates a Processor. defaultDelay is used when an order asks for
// deferred capture without naming a time.
func New(orders platform.OrderReader, sched scheduler.Scheduler, defaultDelay time.Duration, logger *zap.Logger) *Processor {
	return &Processor{
		orders:       orders,
		scheduler:    sched,
		defaultDelay: defaultDelay,
		logger:       logger,
		now:          time.Now,
	}
}

// ProcessOrder classifies the order and updates the schedule to match its
// current intent. Safe to call repeatedly for the same order: scheduling
// replaces, absence of the flag cancels.
func (p *Processor) ProcessOrder(ctx context.Context, orderID string) error {
	order, err := p.orders.GetOrder(ctx, orderID)
	if err != nil {
		return errors.Wrapf(err, "failed to load order %s", orderID)
	}

	if settledStatuses[order.FinancialStatus] {
		if p.scheduler.Cancel(ctx, orderID) {
			p.logger.Info("order already settled, cancelled scheduled capture",
				zap.String("order_id", orderID),
				zap.String("financial_status", order.FinancialStatus),
			)
		}
		return nil
	}

	intent := order.CaptureIntent()
	if intent == models.IntentNone {
		if p.scheduler.Cancel(ctx, orderID) {
			p.logger.Info("capture flag removed, cancelled scheduled capture",
				zap.String("order_id", orderID),
			)
		}
		return nil
	}

	transactionID, err := p.authorizedTransaction(ctx, orderID)
	if err != nil {
		return err
	}

	dueAt := p.dueTime(order, intent)
	if _, err := p.scheduler.Schedule(ctx, orderID, transactionID, dueAt); err != nil {
		return errors.Wrapf(err, "failed to schedule capture for order %s", orderID)
	}

	p.logger.Info("order classified",
		zap.String("order_id", orderID),
		zap.String("intent", string(intent)),
		zap.String("transaction_id", transactionID),
		zap.Time("due_at", dueAt),
	)
	return nil
}

// CancelOrder drops any scheduled capture for the order. Used for cancelled
// order deliveries, where no platform lookup is needed.
func (p *Processor) CancelOrder(ctx context.Context, orderID string) bool {
	cancelled := p.scheduler.Cancel(ctx, orderID)
	if cancelled {
		p.logger.Info("order cancelled, dropped scheduled capture",
			zap.String("order_id", orderID),
		)
	}
	return cancelled
}

func (p *Processor) dueTime(order *models.Order, intent models.CaptureIntent) time.Time {
	if intent == models.IntentImmediate {
		return p.now()
	}
	if at, ok := order.CaptureAt(); ok {
		return at
	}
	return p.now().Add(p.defaultDelay)
}

// authorizedTransaction returns the most recent successful authorization that
// has not been consumed by a capture or void. Consumption is tracked through
// the child transaction's parent id.
func (p *Processor) authorizedTransaction(ctx context.Context, orderID string) (string, error) {
	txs, err := p.orders.GetOrderTransactions(ctx, orderID)
	if err != nil {
		return "", errors.Wrapf(err, "failed to load transactions for order %s", orderID)
	}

	consumed := make(map[string]bool)
	for _, tx := range txs {
		if tx.ParentID == "" {
			continue
		}
		if (tx.Kind == models.KindCapture || tx.Kind == models.KindVoid) && tx.Status == models.TxSuccess {
			consumed[tx.ParentID] = true
		}
	}

	var candidate string
	for _, tx := range txs {
		if tx.Kind == models.KindAuthorization && tx.Status == models.TxSuccess && !consumed[tx.ID] {
			candidate = tx.ID
		}
	}
	if candidate == "" {
		return "", errors.Wrapf(ErrNoAuthorizedTransaction, "order %s", orderID)
	}
	return candidate, nil
}
