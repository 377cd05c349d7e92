package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/jordan/payment-capture-scheduler/pkg/config"
	"github.com/jordan/payment-capture-scheduler/pkg/metrics"
	"github.com/jordan/payment-capture-scheduler/pkg/platform"
)

// passTimeout bounds one reconciliation pass. A pass walks every authorized
// order through the rate-limited platform client and can take minutes.
const passTimeout = 10 * time.Minute

// OrderProcessor is the slice of the order processor reconciliation needs.
type OrderProcessor interface {
	ProcessOrder(ctx context.Context, orderID string) error
}

// Reconciler periodically re-derives capture intent from the platform, the
// source of truth. Scheduled jobs live only in memory, so a restart loses
// them; webhooks can also be missed entirely. Each pass lists orders still
// sitting in the authorized state and runs them through the processor, which
// reschedules, replaces or cancels as the order's current flags dictate.
type Reconciler struct {
	search    platform.OrderSearcher
	processor OrderProcessor
	metrics   *metrics.Metrics
	logger    *zap.Logger
	cfg       config.ReconcileConfig

	now    func() time.Time
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Reconciler.
func New(cfg config.ReconcileConfig, search platform.OrderSearcher, proc OrderProcessor, m *metrics.Metrics, logger *zap.Logger) *Reconciler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Reconciler{
		search:    search,
		processor: proc,
		metrics:   m,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the periodic pass. An interval of zero disables it.
func (r *Reconciler) Start() {
	if r.cfg.Interval <= 0 {
		r.logger.Info("reconciliation disabled")
		return
	}

	r.wg.Add(1)
	go r.loop()
	r.logger.Info("reconciliation started",
		zap.Duration("interval", r.cfg.Interval),
		zap.Duration("lookback", r.cfg.Lookback),
	)
}

// Stop cancels any in-progress pass and waits for the loop to exit.
func (r *Reconciler) Stop() {
	r.cancel()
	r.wg.Wait()
}

func (r *Reconciler) loop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(r.ctx, passTimeout)
			if err := r.RunOnce(ctx); err != nil {
				r.logger.Error("reconciliation pass failed", zap.Error(err))
			}
			cancel()
		}
	}
}

// RunOnce executes a single reconciliation pass. One unprocessable order must
// not stop the batch; per-order failures are logged and skipped.
func (r *Reconciler) RunOnce(ctx context.Context) error {
	r.metrics.ReconcileRuns.Inc()

	since := r.now().Add(-r.cfg.Lookback)
	orders, err := r.search.ListAuthorizedOrders(ctx, since)
	if err != nil {
		return errors.Wrap(err, "failed to list authorized orders")
	}

	if len(orders) == 0 {
		r.logger.Debug("reconciliation found no authorized orders")
		return nil
	}

	r.logger.Info("reconciliation examining authorized orders",
		zap.Int("count", len(orders)),
		zap.Time("updated_since", since),
	)

	for _, order := range orders {
		if err := r.processor.ProcessOrder(ctx, order.ID); err != nil {
			r.logger.Warn("reconciliation skipped order",
				zap.String("order_id", order.ID),
				zap.Error(err),
			)
			continue
		}
		r.metrics.ReconcileResubmitted.Inc()
	}

	r.logger.Info("reconciliation pass finished")
	return nil
}
