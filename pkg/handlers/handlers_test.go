package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/jordan/payment-capture-scheduler/pkg/events"
	"github.com/jordan/payment-capture-scheduler/pkg/metrics"
	"github.com/jordan/payment-capture-scheduler/pkg/models"
	"github.com/jordan/payment-capture-scheduler/pkg/processor"
	processormocks "github.com/jordan/payment-capture-scheduler/pkg/processor/mocks"
	"github.com/jordan/payment-capture-scheduler/pkg/scheduler"
	schedulermocks "github.com/jordan/payment-capture-scheduler/pkg/scheduler/mocks"
)

// newTestRouter wires a handler with mock collaborators behind the real
// router, so URL params and middleware run the same way they do in the app.
func newTestRouter(sched scheduler.Scheduler, tasks processor.Submitter) (*ApiHandler, http.Handler) {
	h := NewApiHandler(sched, tasks, events.NewHub(zap.NewNop()), metrics.New(prometheus.NewRegistry()), zap.NewNop())
	return h, NewRouter(h)
}

func TestOrderUpdatedWebhook(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		mockTasks := new(processormocks.Submitter)
		mockTasks.On("Submit", processor.Task{OrderID: "1001", Topic: "orders/updated"}).Return(true)

		h, router := newTestRouter(new(schedulermocks.Scheduler), mockTasks)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/updated", strings.NewReader(`{"id": "1001"}`))
		rr := httptest.NewRecorder()

		// Act
		router.ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, float64(1), testutil.ToFloat64(h.Metrics.WebhooksReceived.WithLabelValues("orders/updated")))
		mockTasks.AssertExpectations(t)
	})

	t.Run("Queue Full", func(t *testing.T) {
		// Arrange
		mockTasks := new(processormocks.Submitter)
		mockTasks.On("Submit", mock.Anything).Return(false)

		_, router := newTestRouter(new(schedulermocks.Scheduler), mockTasks)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/updated", strings.NewReader(`{"id": "1001"}`))
		rr := httptest.NewRecorder()

		// Act
		router.ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		mockTasks.AssertExpectations(t)
	})

	t.Run("Bad Request - Invalid JSON", func(t *testing.T) {
		// Arrange
		mockTasks := new(processormocks.Submitter)
		_, router := newTestRouter(new(schedulermocks.Scheduler), mockTasks)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/updated", strings.NewReader("not-json"))
		rr := httptest.NewRecorder()

		// Act
		router.ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockTasks.AssertNotCalled(t, "Submit", mock.Anything)
	})

	t.Run("Bad Request - Missing Order ID", func(t *testing.T) {
		// Arrange
		mockTasks := new(processormocks.Submitter)
		_, router := newTestRouter(new(schedulermocks.Scheduler), mockTasks)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/updated", strings.NewReader(`{"note": "no id here"}`))
		rr := httptest.NewRecorder()

		// Act
		router.ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockTasks.AssertNotCalled(t, "Submit", mock.Anything)
	})
}

func TestOrderCreatedWebhook(t *testing.T) {
	// Arrange
	mockTasks := new(processormocks.Submitter)
	mockTasks.On("Submit", processor.Task{OrderID: "2001", Topic: "orders/created"}).Return(true)

	_, router := newTestRouter(new(schedulermocks.Scheduler), mockTasks)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/created", strings.NewReader(`{"id": "2001"}`))
	rr := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rr, req)

	// Assert
	assert.Equal(t, http.StatusOK, rr.Code)
	mockTasks.AssertExpectations(t)
}

func TestOrderCancelledWebhook(t *testing.T) {
	// Arrange
	mockTasks := new(processormocks.Submitter)
	mockTasks.On("Submit", processor.Task{OrderID: "3001", Topic: "orders/cancelled", Cancel: true}).Return(true)

	_, router := newTestRouter(new(schedulermocks.Scheduler), mockTasks)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/cancelled", strings.NewReader(`{"id": "3001"}`))
	rr := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rr, req)

	// Assert
	assert.Equal(t, http.StatusOK, rr.Code)
	mockTasks.AssertExpectations(t)
}

func TestListScheduled(t *testing.T) {
	// Arrange
	due := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	summaries := []models.ScheduledCaptureSummary{
		{OrderID: "1001", TransactionID: "tx-1", DueAt: due, TimeRemaining: 48 * time.Hour, State: models.StatePending},
		{OrderID: "1002", TransactionID: "tx-2", DueAt: due.Add(time.Hour), TimeRemaining: 49 * time.Hour, State: models.StatePending},
	}

	mockScheduler := new(schedulermocks.Scheduler)
	mockScheduler.On("List", mock.Anything).Return(summaries)

	_, router := newTestRouter(mockScheduler, new(processormocks.Submitter))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scheduled", nil)
	rr := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rr, req)

	// Assert
	assert.Equal(t, http.StatusOK, rr.Code)

	var returned []models.ScheduledCaptureSummary
	json.Unmarshal(rr.Body.Bytes(), &returned)
	assert.Len(t, returned, 2)
	assert.Equal(t, "1001", returned[0].OrderID)
	assert.Equal(t, "1002", returned[1].OrderID)

	mockScheduler.AssertExpectations(t)
}

func TestScheduleCapture(t *testing.T) {
	due := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	body := scheduleRequest{OrderID: "1001", TransactionID: "tx-1", DueAt: due}

	t.Run("Success", func(t *testing.T) {
		// Arrange
		scheduled := &models.ScheduledCapture{
			ID:            "job-1",
			OrderID:       "1001",
			TransactionID: "tx-1",
			DueAt:         due,
			State:         models.StatePending,
		}

		mockScheduler := new(schedulermocks.Scheduler)
		mockScheduler.On("Schedule", mock.Anything, "1001", "tx-1", mock.MatchedBy(func(at time.Time) bool {
			return at.Equal(due)
		})).Return(scheduled, nil)

		_, router := newTestRouter(mockScheduler, new(processormocks.Submitter))

		raw, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/scheduled", bytes.NewReader(raw))
		rr := httptest.NewRecorder()

		// Act
		router.ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusCreated, rr.Code)

		var returned models.ScheduledCapture
		json.Unmarshal(rr.Body.Bytes(), &returned)
		assert.Equal(t, "1001", returned.OrderID)
		assert.Equal(t, models.StatePending, returned.State)

		mockScheduler.AssertExpectations(t)
	})

	t.Run("Invalid Request", func(t *testing.T) {
		// Arrange
		mockScheduler := new(schedulermocks.Scheduler)
		mockScheduler.On("Schedule", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, scheduler.ErrValidation)

		_, router := newTestRouter(mockScheduler, new(processormocks.Submitter))

		raw, _ := json.Marshal(scheduleRequest{OrderID: "", TransactionID: "tx-1"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/scheduled", bytes.NewReader(raw))
		rr := httptest.NewRecorder()

		// Act
		router.ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockScheduler.AssertExpectations(t)
	})

	t.Run("Scheduler Stopped", func(t *testing.T) {
		// Arrange
		mockScheduler := new(schedulermocks.Scheduler)
		mockScheduler.On("Schedule", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, scheduler.ErrStopped)

		_, router := newTestRouter(mockScheduler, new(processormocks.Submitter))

		raw, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/scheduled", bytes.NewReader(raw))
		rr := httptest.NewRecorder()

		// Act
		router.ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		mockScheduler.AssertExpectations(t)
	})

	t.Run("Bad Request - Invalid JSON", func(t *testing.T) {
		// Arrange
		mockScheduler := new(schedulermocks.Scheduler)
		_, router := newTestRouter(mockScheduler, new(processormocks.Submitter))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/scheduled", strings.NewReader("not-json"))
		rr := httptest.NewRecorder()

		// Act
		router.ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockScheduler.AssertNotCalled(t, "Schedule", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCancelScheduled(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		// Arrange
		mockScheduler := new(schedulermocks.Scheduler)
		mockScheduler.On("Cancel", mock.Anything, "1001").Return(true)

		_, router := newTestRouter(mockScheduler, new(processormocks.Submitter))

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/scheduled/1001", nil)
		rr := httptest.NewRecorder()

		// Act
		router.ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusNoContent, rr.Code)
		mockScheduler.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		// Arrange
		mockScheduler := new(schedulermocks.Scheduler)
		mockScheduler.On("Cancel", mock.Anything, "9999").Return(false)

		_, router := newTestRouter(mockScheduler, new(processormocks.Submitter))

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/scheduled/9999", nil)
		rr := httptest.NewRecorder()

		// Act
		router.ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusNotFound, rr.Code)
		mockScheduler.AssertExpectations(t)
	})
}

func TestHealth(t *testing.T) {
	// Arrange
	_, router := newTestRouter(new(schedulermocks.Scheduler), new(processormocks.Submitter))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rr, req)

	// Assert
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "healthy")
}
