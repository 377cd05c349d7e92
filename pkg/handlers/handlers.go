package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jordan/payment-capture-scheduler/pkg/events"
	"github.com/jordan/payment-capture-scheduler/pkg/metrics"
	"github.com/jordan/payment-capture-scheduler/pkg/middleware"
	"github.com/jordan/payment-capture-scheduler/pkg/processor"
	"github.com/jordan/payment-capture-scheduler/pkg/scheduler"
)

// ApiHandler holds the application's dependencies for the HTTP surface:
// webhook intake, the diagnostics API and the capture event stream.
type ApiHandler struct {
	Scheduler scheduler.Scheduler
	Tasks     processor.Submitter
	Hub       *events.Hub
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// NewApiHandler creates a new ApiHandler.
func NewApiHandler(sched scheduler.Scheduler, tasks processor.Submitter, hub *events.Hub, m *metrics.Metrics, logger *zap.Logger) *ApiHandler {
	return &ApiHandler{
		Scheduler: sched,
		Tasks:     tasks,
		Hub:       hub,
		Metrics:   m,
		Logger:    logger,
	}
}

// NewRouter mounts the handler on a chi router.
func NewRouter(h *ApiHandler) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.NewStructuredLogger(h.Logger))
	router.Use(middleware.RequestMetrics(h.Metrics))

	router.Route("/webhooks/orders", func(r chi.Router) {
		r.Use(middleware.VerifyWebhookSignature(h.Logger))
		r.Post("/created", h.OrderCreated)
		r.Post("/updated", h.OrderUpdated)
		r.Post("/cancelled", h.OrderCancelled)
	})

	router.Route("/api/v1/scheduled", func(r chi.Router) {
		r.Get("/", h.ListScheduled)
		r.Post("/", h.ScheduleCapture)
		r.Delete("/{orderID}", h.CancelScheduled)
	})

	router.Get("/health", h.Health)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/ws/captures", h.Hub.ServeWS)

	return router
}

// Health reports process liveness. The scheduler is in-memory, so a healthy
// process is a healthy service.
func (h *ApiHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	body := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}
