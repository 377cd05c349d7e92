package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/jordan/payment-capture-scheduler/pkg/config"
	"github.com/jordan/payment-capture-scheduler/pkg/events"
	"github.com/jordan/payment-capture-scheduler/pkg/handlers"
	"github.com/jordan/payment-capture-scheduler/pkg/metrics"
	"github.com/jordan/payment-capture-scheduler/pkg/platform"
	"github.com/jordan/payment-capture-scheduler/pkg/processor"
	"github.com/jordan/payment-capture-scheduler/pkg/reconcile"
	"github.com/jordan/payment-capture-scheduler/pkg/scheduler"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting payment capture scheduler",
		zap.String("address", cfg.Server.Address()),
		zap.String("platform_url", cfg.Platform.BaseURL),
	)

	m := metrics.New(prometheus.DefaultRegisterer)

	// Platform client shared by the scheduler, the order processor and
	// reconciliation. OAuth token refresh lives inside the client.
	client := platform.NewRESTClient(cfg.Platform, logger)

	// The hub streams capture lifecycle events to websocket subscribers.
	hub := events.NewHub(logger)
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	sched := scheduler.NewMemoryScheduler(cfg.Scheduler, client, hub, m, logger)
	sched.Start()

	proc := processor.New(client, sched, cfg.Scheduler.DefaultDelay, logger)

	pool := processor.NewPool(cfg.Processor, proc, logger)
	pool.Start()

	reconciler := reconcile.New(cfg.Reconcile, client, proc, m, logger)
	reconciler.Start()

	handler := handlers.NewApiHandler(sched, pool, hub, m, logger)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handlers.NewRouter(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("HTTP server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop intake first (HTTP, webhook workers, reconciliation), then the
	// scheduler, so in-flight captures can finish before the process exits.
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
	}
	if err := pool.Stop(); err != nil {
		logger.Error("Failed to stop processor pool", zap.Error(err))
	}
	reconciler.Stop()
	if err := sched.Stop(ctx); err != nil {
		logger.Error("Failed to stop scheduler", zap.Error(err))
	}
	stopHub()

	logger.Info("Shutdown complete")
}

// initLogger initializes the logger based on configuration
func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapConfig zap.Config

	if cfg.Format == "console" {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	switch cfg.Level {
	case "debug":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return zapConfig.Build()
}
