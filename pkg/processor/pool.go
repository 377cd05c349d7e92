package processor

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/jordan/payment-capture-scheduler/pkg/config"
	"github.com/jordan/payment-capture-scheduler/pkg/platform"
)

// processTimeout bounds one task: two platform reads plus the registry update.
const processTimeout = 45 * time.Second

// Task is one unit of webhook-driven work.
type Task struct {
	OrderID string
	Topic   string
	Cancel  bool
}

// Submitter enqueues webhook work for asynchronous processing.
type Submitter interface {
	Submit(task Task) bool
}

// Pool runs order processing off the webhook request path. Handlers submit a
// task and acknowledge immediately; workers do the platform round-trips.
// Tasks still queued at shutdown are dropped; the platform redelivers
// webhooks and reconciliation picks up whatever slips through.
type Pool struct {
	processor *Processor
	logger    *zap.Logger

	workers         int
	shutdownTimeout time.Duration
	tasks           chan Task

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Make sure we conform to the interface
var _ Submitter = (*Pool)(nil)

// NewPool creates a worker pool around the processor.
func NewPool(cfg config.ProcessorConfig, proc *Processor, logger *zap.Logger) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		processor:       proc,
		logger:          logger,
		workers:         cfg.Workers,
		shutdownTimeout: cfg.ShutdownTimeout,
		tasks:           make(chan Task, cfg.QueueSize),
		ctx:             ctx,
		cancel:          cancel,
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	p.logger.Info("starting order processor pool",
		zap.Int("workers", p.workers),
		zap.Int("queue_size", cap(p.tasks)),
	)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Stop halts the workers and waits up to the configured shutdown timeout.
func (p *Pool) Stop() error {
	p.logger.Info("stopping order processor pool",
		zap.Duration("timeout", p.shutdownTimeout),
		zap.Int("queued", len(p.tasks)),
	)

	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("order processor pool stopped")
		return nil
	case <-time.After(p.shutdownTimeout):
		return errors.New("processor pool shutdown timeout exceeded")
	}
}

// Submit queues a task without blocking. It reports false when the queue is
// full, so the webhook handler can signal the platform to redeliver.
func (p *Pool) Submit(task Task) bool {
	select {
	case p.tasks <- task:
		return true
	default:
		p.logger.Warn("task queue full, rejecting webhook work",
			zap.String("order_id", task.OrderID),
			zap.String("topic", task.Topic),
		)
		return false
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case task := <-p.tasks:
			p.handle(task)
		}
	}
}

func (p *Pool) handle(task Task) {
	ctx, cancel := context.WithTimeout(p.ctx, processTimeout)
	defer cancel()

	if task.Cancel {
		p.processor.CancelOrder(ctx, task.OrderID)
		return
	}

	err := p.processor.ProcessOrder(ctx, task.OrderID)
	switch {
	case err == nil:
	case errors.Is(err, ErrNoAuthorizedTransaction), errors.Is(err, platform.ErrNotFound):
		p.logger.Warn("order not processable",
			zap.String("order_id", task.OrderID),
			zap.String("topic", task.Topic),
			zap.Error(err),
		)
	default:
		p.logger.Error("order processing failed",
			zap.String("order_id", task.OrderID),
			zap.String("topic", task.Topic),
			zap.Error(err),
		)
	}
}
