package models

import (
	"time"
)

// CaptureState defines the possible states of a scheduled capture job.
type CaptureState string

const (
	StatePending   CaptureState = "PENDING"
	StateExecuting CaptureState = "EXECUTING"
	StateCompleted CaptureState = "COMPLETED"
	StateCancelled CaptureState = "CANCELLED"
	StateFailed    CaptureState = "FAILED"
)

// Live reports whether a job in this state still occupies the registry.
// Terminal jobs (completed, cancelled, failed) are removed immediately.
func (s CaptureState) Live() bool {
	return s == StatePending || s == StateExecuting
}

// ScheduledCapture is the internal domain model for one deferred capture.
// At most one live ScheduledCapture exists per order; scheduling again for
// the same order replaces the prior job (most recent intent wins).
type ScheduledCapture struct {
	ID            string       `json:"id"`
	OrderID       string       `json:"order_id"`
	TransactionID string       `json:"transaction_id"`
	DueAt         time.Time    `json:"due_at"`
	State         CaptureState `json:"state"`
	Attempts      int          `json:"attempts"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// ScheduledCaptureSummary is the diagnostics view of a live job.
type ScheduledCaptureSummary struct {
	OrderID       string        `json:"order_id"`
	TransactionID string        `json:"transaction_id"`
	DueAt         time.Time     `json:"due_at"`
	TimeRemaining time.Duration `json:"time_remaining"`
	State         CaptureState  `json:"state"`
	Attempts      int           `json:"attempts"`
}

// CaptureRecord is the observable outcome of a finished capture attempt.
// Records are emitted to logs, metrics and the event stream; they are not
// persisted (durable audit logging is out of scope).
type CaptureRecord struct {
	OrderID       string       `json:"order_id"`
	TransactionID string       `json:"transaction_id"`
	State         CaptureState `json:"state"`
	Attempts      int          `json:"attempts"`
	CompletedAt   time.Time    `json:"completed_at"`
	Error         string       `json:"error,omitempty"`
}

// TransactionKind is the platform's classification of a payment transaction.
type TransactionKind string

const (
	KindAuthorization TransactionKind = "authorization"
	KindCapture       TransactionKind = "capture"
	KindSale          TransactionKind = "sale"
	KindVoid          TransactionKind = "void"
	KindRefund        TransactionKind = "refund"
)

// TransactionStatus is the platform's status of a payment transaction.
type TransactionStatus string

const (
	TxSuccess TransactionStatus = "success"
	TxPending TransactionStatus = "pending"
	TxFailure TransactionStatus = "failure"
	TxError   TransactionStatus = "error"
)

// Transaction is a payment transaction as reported by the commerce platform.
type Transaction struct {
	ID        string            `json:"id"`
	OrderID   string            `json:"order_id"`
	Kind      TransactionKind   `json:"kind"`
	Status    TransactionStatus `json:"status"`
	ParentID  string            `json:"parent_id,omitempty"`
	Amount    string            `json:"amount"`
	Currency  string            `json:"currency"`
	CreatedAt time.Time         `json:"created_at"`
}

// OrderAttribute is one name/value pair of order metadata. The payment
// intent flag and the optional capture time travel in these.
type OrderAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Order is the subset of the platform's order resource this service reads.
type Order struct {
	ID              string           `json:"id"`
	Number          string           `json:"number"`
	FinancialStatus string           `json:"financial_status"`
	Attributes      []OrderAttribute `json:"attributes"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Attribute metadata keys written by the storefront at checkout.
const (
	AttrPaymentIntent = "payment_intent"
	AttrCaptureAt     = "capture_at"

	IntentValueImmediate = "capture_now"
	IntentValueDeferred  = "capture_later"
)

// CaptureIntent is the payment-intent classification of an order.
type CaptureIntent string

const (
	IntentImmediate CaptureIntent = "immediate"
	IntentDeferred  CaptureIntent = "deferred"
	IntentNone      CaptureIntent = "none"
)

// Attribute returns the value of the named order attribute, if present.
func (o *Order) Attribute(name string) (string, bool) {
	for _, a := range o.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// CaptureIntent classifies the order from its payment-intent attribute.
// Unknown values are treated as no intent, so a storefront typo never
// triggers a capture.
func (o *Order) CaptureIntent() CaptureIntent {
	v, ok := o.Attribute(AttrPaymentIntent)
	if !ok {
		return IntentNone
	}
	switch v {
	case IntentValueImmediate:
		return IntentImmediate
	case IntentValueDeferred:
		return IntentDeferred
	default:
		return IntentNone
	}
}

// CaptureAt returns the requested capture time from order metadata.
// The second return is false when the attribute is absent or unparsable;
// callers fall back to the configured default delay.
func (o *Order) CaptureAt() (time.Time, bool) {
	v, ok := o.Attribute(AttrCaptureAt)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// CaptureResult is the platform's response to a capture call.
type CaptureResult struct {
	TransactionID string    `json:"transaction_id"`
	OrderID       string    `json:"order_id"`
	Status        string    `json:"status"`
	CapturedAt    time.Time `json:"captured_at"`
}
