package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/jordan/payment-capture-scheduler/pkg/processor"
)

// orderWebhook is the slice of a delivery body this service reads. The
// platform sends the full order resource, but deliveries only name an order;
// the worker re-reads the order from the API before acting on it.
type orderWebhook struct {
	ID string `json:"id"`
}

// OrderCreated handles order creation deliveries.
func (h *ApiHandler) OrderCreated(w http.ResponseWriter, r *http.Request) {
	h.enqueue(w, r, "orders/created", false)
}

// OrderUpdated handles order update deliveries. Updates carry settlement and
// payment-intent changes, so one can schedule, replace or cancel a capture.
func (h *ApiHandler) OrderUpdated(w http.ResponseWriter, r *http.Request) {
	h.enqueue(w, r, "orders/updated", false)
}

// OrderCancelled handles order cancellation deliveries.
func (h *ApiHandler) OrderCancelled(w http.ResponseWriter, r *http.Request) {
	h.enqueue(w, r, "orders/cancelled", true)
}

// enqueue acknowledges the delivery once the order is queued for processing.
// The platform's delivery timeout is far shorter than a capture round-trip,
// so no platform call happens on this path.
func (h *ApiHandler) enqueue(w http.ResponseWriter, r *http.Request, topic string, cancel bool) {
	var payload orderWebhook
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, fmt.Sprintf("Invalid webhook body: %v", err), http.StatusBadRequest)
		return
	}
	if payload.ID == "" {
		http.Error(w, "Webhook body has no order id", http.StatusBadRequest)
		return
	}

	h.Metrics.WebhooksReceived.WithLabelValues(topic).Inc()

	if !h.Tasks.Submit(processor.Task{OrderID: payload.ID, Topic: topic, Cancel: cancel}) {
		// A 503 makes the platform redeliver once there is room again.
		http.Error(w, "Processing queue is full, retry later", http.StatusServiceUnavailable)
		return
	}

	h.Logger.Debug("webhook accepted",
		zap.String("topic", topic),
		zap.String("order_id", payload.ID),
	)
	w.WriteHeader(http.StatusOK)
}
