package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"

	"github.com/jordan/payment-capture-scheduler/pkg/scheduler"
)

// scheduleRequest is the body of a manual schedule request.
type scheduleRequest struct {
	OrderID       string    `json:"order_id"`
	TransactionID string    `json:"transaction_id"`
	DueAt         time.Time `json:"due_at"`
}

// ListScheduled returns every live capture job, soonest due first.
func (h *ApiHandler) ListScheduled(w http.ResponseWriter, r *http.Request) {
	summaries := h.Scheduler.List(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(summaries); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// ScheduleCapture registers a capture directly, bypassing webhook intake.
// Operators use it to re-arm a job after a failed capture is resolved with
// the customer. An omitted or past due_at means "capture as soon as possible".
func (h *ApiHandler) ScheduleCapture(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	job, err := h.Scheduler.Schedule(r.Context(), req.OrderID, req.TransactionID, req.DueAt)
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrValidation):
			http.Error(w, fmt.Sprintf("Invalid schedule request: %v", err), http.StatusBadRequest)
		case errors.Is(err, scheduler.ErrStopped):
			http.Error(w, "Scheduler is shutting down", http.StatusServiceUnavailable)
		default:
			http.Error(w, fmt.Sprintf("Failed to schedule capture: %v", err), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(job); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// CancelScheduled invalidates the live job for an order.
func (h *ApiHandler) CancelScheduled(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	if !h.Scheduler.Cancel(r.Context(), orderID) {
		http.Error(w, "No scheduled capture for this order", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
