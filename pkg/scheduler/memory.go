package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jordan/payment-capture-scheduler/pkg/config"
	"github.com/jordan/payment-capture-scheduler/pkg/events"
	"github.com/jordan/payment-capture-scheduler/pkg/metrics"
	"github.com/jordan/payment-capture-scheduler/pkg/models"
	"github.com/jordan/payment-capture-scheduler/pkg/platform"
)

// Dispatch trigger labels.
const (
	triggerTimer = "timer"
	triggerSweep = "sweep"
)

// job is one registry entry. After a dispatch claims it, only the executing
// goroutine touches its fields; until then every mutation happens under the
// scheduler mutex.
type job struct {
	capture models.ScheduledCapture
	timer   *time.Timer
}

// MemoryScheduler holds deferred captures in an in-process registry keyed by
// order ID. Each job is dispatched by a one-shot timer, with a periodic sweep
// as the safety net for timers that never fire (host suspend, clock jumps).
// Jobs do not survive a restart; reconciliation rebuilds them from the
// platform on the next pass.
type MemoryScheduler struct {
	capturer  platform.PaymentCapturer
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	cfg       config.SchedulerConfig

	now func() time.Time

	mu      sync.Mutex
	jobs    map[string]*job
	stopped bool

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// Make sure we conform to the interface
var _ Scheduler = (*MemoryScheduler)(nil)

// NewMemoryScheduler creates a scheduler. Call Start to begin sweeping and
// Stop to drain in-flight captures on shutdown.
func NewMemoryScheduler(cfg config.SchedulerConfig, capturer platform.PaymentCapturer, publisher events.Publisher, m *metrics.Metrics, logger *zap.Logger) *MemoryScheduler {
	return &MemoryScheduler{
		capturer:  capturer,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		jobs:      make(map[string]*job),
		stopCh:    make(chan struct{}),
	}
}

// Schedule registers a capture for the order at dueAt, replacing any live job
// for the same order. No network call happens here; capture runs at dispatch.
func (s *MemoryScheduler) Schedule(ctx context.Context, orderID, transactionID string, dueAt time.Time) (*models.ScheduledCapture, error) {
	if orderID == "" {
		return nil, errors.Wrap(ErrValidation, "order id is required")
	}
	if transactionID == "" {
		return nil, errors.Wrap(ErrValidation, "transaction id is required")
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil, ErrStopped
	}

	replaced := false
	if prior, ok := s.jobs[orderID]; ok {
		replaced = true
		if prior.capture.State == models.StatePending {
			if prior.timer != nil {
				prior.timer.Stop()
				prior.timer = nil
			}
			prior.capture.State = models.StateCancelled
			prior.capture.UpdatedAt = s.now()
		}
		// An executing prior job keeps its in-flight call; it only loses
		// its registry slot so the newer intent wins.
		delete(s.jobs, orderID)
	}

	now := s.now()
	j := &job{
		capture: models.ScheduledCapture{
			ID:            uuid.NewString(),
			OrderID:       orderID,
			TransactionID: transactionID,
			DueAt:         dueAt,
			State:         models.StatePending,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}
	s.jobs[orderID] = j

	delay := dueAt.Sub(now)
	if delay < 0 {
		delay = 0
	}
	j.timer = time.AfterFunc(delay, func() { s.onTimer(j) })

	s.metrics.LiveJobs.Set(float64(len(s.jobs)))
	snapshot := j.capture
	s.mu.Unlock()

	s.metrics.CapturesScheduled.Inc()
	if replaced {
		s.metrics.CapturesReplaced.Inc()
	}
	s.logger.Info("capture scheduled",
		zap.String("order_id", orderID),
		zap.String("transaction_id", transactionID),
		zap.Time("due_at", dueAt),
		zap.Bool("replaced_prior", replaced),
	)
	_ = s.publisher.Publish(ctx, events.Message{
		Type: events.MessageTypeCaptureScheduled,
		Payload: events.CapturePayload{
			OrderID:       snapshot.OrderID,
			TransactionID: snapshot.TransactionID,
			State:         snapshot.State,
			DueAt:         snapshot.DueAt,
		},
	})

	return &snapshot, nil
}

// Cancel invalidates the live job for the order. It reports false when no
// live job exists, which is the common case for orders never flagged for
// deferred capture.
func (s *MemoryScheduler) Cancel(ctx context.Context, orderID string) bool {
	s.mu.Lock()
	j, ok := s.jobs[orderID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if j.capture.State == models.StatePending {
		if j.timer != nil {
			j.timer.Stop()
			j.timer = nil
		}
		j.capture.State = models.StateCancelled
		j.capture.UpdatedAt = s.now()
	}
	delete(s.jobs, orderID)
	s.metrics.LiveJobs.Set(float64(len(s.jobs)))
	transactionID := j.capture.TransactionID
	dueAt := j.capture.DueAt
	s.mu.Unlock()

	s.metrics.CapturesCancelled.Inc()
	s.logger.Info("scheduled capture cancelled",
		zap.String("order_id", orderID),
		zap.String("transaction_id", transactionID),
	)
	_ = s.publisher.Publish(ctx, events.Message{
		Type: events.MessageTypeCaptureCancelled,
		Payload: events.CapturePayload{
			OrderID:       orderID,
			TransactionID: transactionID,
			State:         models.StateCancelled,
			DueAt:         dueAt,
		},
	})

	return true
}

// List returns a summary of every live job, soonest due first.
func (s *MemoryScheduler) List(ctx context.Context) []models.ScheduledCaptureSummary {
	s.mu.Lock()
	now := s.now()
	summaries := make([]models.ScheduledCaptureSummary, 0, len(s.jobs))
	for _, j := range s.jobs {
		remaining := j.capture.DueAt.Sub(now)
		if remaining < 0 {
			remaining = 0
		}
		summaries = append(summaries, models.ScheduledCaptureSummary{
			OrderID:       j.capture.OrderID,
			TransactionID: j.capture.TransactionID,
			DueAt:         j.capture.DueAt,
			TimeRemaining: remaining,
			State:         j.capture.State,
			Attempts:      j.capture.Attempts,
		})
	}
	s.mu.Unlock()

	sort.Slice(summaries, func(i, k int) bool {
		return summaries[i].DueAt.Before(summaries[k].DueAt)
	})
	return summaries
}

// Start launches the periodic sweep.
func (s *MemoryScheduler) Start() {
	s.wg.Add(1)
	go s.sweepLoop()
	s.logger.Info("capture scheduler started",
		zap.Duration("sweep_interval", s.cfg.SweepInterval),
		zap.Int("max_attempts", s.cfg.MaxAttempts),
	)
}

// Stop rejects further scheduling, invalidates pending timers and waits for
// in-flight captures to finish, bounded by ctx.
func (s *MemoryScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	for _, j := range s.jobs {
		if j.capture.State == models.StatePending && j.timer != nil {
			j.timer.Stop()
			j.timer = nil
		}
	}
	s.mu.Unlock()
	close(s.stopCh)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("capture scheduler stopped")
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "scheduler shutdown timed out waiting for in-flight captures")
	}
}

func (s *MemoryScheduler) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweepOnce()
		}
	}
}

// sweepOnce claims every overdue pending job and dispatches it. Jobs whose
// timers fired normally are already Executing or gone, so the sweep skips
// them; the Pending check makes timer and sweep converge on one dispatch.
func (s *MemoryScheduler) sweepOnce() {
	s.metrics.SweepRuns.Inc()

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	now := s.now()
	var claimed []*job
	for _, j := range s.jobs {
		if j.capture.State == models.StatePending && !j.capture.DueAt.After(now) {
			s.claimLocked(j, triggerSweep)
			claimed = append(claimed, j)
		}
	}
	s.mu.Unlock()

	if len(claimed) > 0 {
		s.logger.Info("sweep dispatching overdue captures", zap.Int("count", len(claimed)))
	}
	for _, j := range claimed {
		go s.execute(j)
	}
}

// onTimer is the per-job timer callback. The registry may have moved on since
// the timer was armed (cancel, replacement, a sweep that got there first), so
// the job must still be the current entry and still Pending to be claimed.
func (s *MemoryScheduler) onTimer(j *job) {
	s.mu.Lock()
	cur, ok := s.jobs[j.capture.OrderID]
	if !ok || cur != j || j.capture.State != models.StatePending || s.stopped {
		s.mu.Unlock()
		return
	}
	s.claimLocked(j, triggerTimer)
	s.mu.Unlock()

	s.execute(j)
}

// claimLocked marks the exclusive Pending -> Executing transition. Callers
// must hold s.mu and have verified the job is Pending.
func (s *MemoryScheduler) claimLocked(j *job, trigger string) {
	j.capture.State = models.StateExecuting
	j.capture.Attempts++
	j.capture.UpdatedAt = s.now()
	if j.timer != nil {
		j.timer.Stop()
		j.timer = nil
	}
	s.wg.Add(1)
	s.metrics.CapturesDispatched.WithLabelValues(trigger).Inc()
}

// execute runs the capture call outside the registry lock and records the
// terminal state afterwards.
func (s *MemoryScheduler) execute(j *job) {
	defer s.wg.Done()

	orderID := j.capture.OrderID
	transactionID := j.capture.TransactionID

	start := time.Now()
	result, err := s.capturer.Capture(context.Background(), orderID, transactionID)
	s.metrics.CaptureDuration.Observe(time.Since(start).Seconds())

	if err != nil && errors.Is(err, platform.ErrAlreadyCaptured) {
		// Someone settled the funds before us, through the admin UI or a
		// duplicate webhook. The goal state is reached either way.
		s.logger.Info("authorization already captured",
			zap.String("order_id", orderID),
			zap.String("transaction_id", transactionID),
		)
		s.complete(j, nil)
		return
	}
	if err != nil {
		s.fail(j, err)
		return
	}

	s.complete(j, result)
}

func (s *MemoryScheduler) complete(j *job, result *models.CaptureResult) {
	s.mu.Lock()
	j.capture.State = models.StateCompleted
	j.capture.UpdatedAt = s.now()
	if cur, ok := s.jobs[j.capture.OrderID]; ok && cur == j {
		delete(s.jobs, j.capture.OrderID)
		s.metrics.LiveJobs.Set(float64(len(s.jobs)))
	}
	snapshot := j.capture
	s.mu.Unlock()

	captureTransactionID := ""
	if result != nil {
		captureTransactionID = result.TransactionID
	}

	s.metrics.CapturesCompleted.Inc()
	s.logger.Info("capture completed",
		zap.String("order_id", snapshot.OrderID),
		zap.String("transaction_id", snapshot.TransactionID),
		zap.String("capture_transaction_id", captureTransactionID),
		zap.Int("attempts", snapshot.Attempts),
	)
	_ = s.publisher.Publish(context.Background(), events.Message{
		Type: events.MessageTypeCaptureCompleted,
		Payload: events.CapturePayload{
			OrderID:       snapshot.OrderID,
			TransactionID: snapshot.TransactionID,
			State:         snapshot.State,
			DueAt:         snapshot.DueAt,
			Attempts:      snapshot.Attempts,
		},
	})
}

// fail records a capture failure. Timeouts and generic remote errors are
// retried with exponential backoff while attempts remain; permission and
// not-found errors are terminal because retrying cannot fix them.
func (s *MemoryScheduler) fail(j *job, captureErr error) {
	class := platform.ErrorClass(captureErr)
	retryable := class == "timeout" || class == "remote"

	s.mu.Lock()
	cur, ok := s.jobs[j.capture.OrderID]
	current := ok && cur == j

	if current && retryable && j.capture.Attempts < s.cfg.MaxAttempts && !s.stopped {
		delay := retryDelay(s.cfg.RetryBaseDelay, s.cfg.RetryMaxDelay, j.capture.Attempts)
		j.capture.State = models.StatePending
		j.capture.DueAt = s.now().Add(delay)
		j.capture.UpdatedAt = s.now()
		j.timer = time.AfterFunc(delay, func() { s.onTimer(j) })
		snapshot := j.capture
		s.mu.Unlock()

		s.metrics.CapturesRetried.Inc()
		s.logger.Warn("capture failed, retry scheduled",
			zap.String("order_id", snapshot.OrderID),
			zap.String("transaction_id", snapshot.TransactionID),
			zap.Int("attempts", snapshot.Attempts),
			zap.Time("next_attempt_at", snapshot.DueAt),
			zap.Error(captureErr),
		)
		return
	}

	j.capture.State = models.StateFailed
	j.capture.UpdatedAt = s.now()
	if current {
		delete(s.jobs, j.capture.OrderID)
		s.metrics.LiveJobs.Set(float64(len(s.jobs)))
	}
	snapshot := j.capture
	s.mu.Unlock()

	s.metrics.CapturesFailed.WithLabelValues(class).Inc()
	s.logger.Error("capture failed",
		zap.String("order_id", snapshot.OrderID),
		zap.String("transaction_id", snapshot.TransactionID),
		zap.String("error_class", class),
		zap.Int("attempts", snapshot.Attempts),
		zap.Error(captureErr),
	)
	_ = s.publisher.Publish(context.Background(), events.Message{
		Type: events.MessageTypeCaptureFailed,
		Payload: events.CapturePayload{
			OrderID:       snapshot.OrderID,
			TransactionID: snapshot.TransactionID,
			State:         snapshot.State,
			DueAt:         snapshot.DueAt,
			Attempts:      snapshot.Attempts,
			Error:         captureErr.Error(),
		},
	})
}

func retryDelay(base, max time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d > max || d <= 0 {
		d = max
	}
	return d
}
