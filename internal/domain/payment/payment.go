package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus mirrors the payment provider's settlement states.
type PaymentStatus string

const (
	StatusPending    PaymentStatus = "pending"
	StatusProcessing PaymentStatus = "processing"
	StatusSucceeded  PaymentStatus = "succeeded"
	StatusFailed     PaymentStatus = "failed"
	StatusCancelled  PaymentStatus = "cancelled"
	StatusRefunded   PaymentStatus = "refunded"
)

// IsValid returns true if the payment status is recognized.
func (s PaymentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusSucceeded, StatusFailed, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of the status.
func (s PaymentStatus) String() string { return string(s) }

// Payment is an immutable record of a single payment-verification attempt.
// A booking may accumulate several records across retries; records are
// append-only and the latest by creation time is authoritative.
type Payment struct {
	ID              uuid.UUID
	BookingID       uuid.UUID
	PaymentIntentID string
	Amount          decimal.Decimal
	Currency        string
	Status          PaymentStatus
	Method          string
	Provider        string
	FailureReason   string
	Metadata        map[string]string
	CreatedAt       time.Time
}

// NewSucceeded creates a succeeded payment record for a verified intent.
func NewSucceeded(bookingID uuid.UUID, intentID string, amount decimal.Decimal, currency string, metadata map[string]string) *Payment {
	return newRecord(bookingID, intentID, amount, currency, StatusSucceeded, "", metadata)
}

// NewFailed creates a failed payment record carrying the provider's reason.
func NewFailed(bookingID uuid.UUID, intentID string, amount decimal.Decimal, currency string, reason string, metadata map[string]string) *Payment {
	return newRecord(bookingID, intentID, amount, currency, StatusFailed, reason, metadata)
}

func newRecord(bookingID uuid.UUID, intentID string, amount decimal.Decimal, currency string, status PaymentStatus, reason string, metadata map[string]string) *Payment {
	return &Payment{
		ID:              uuid.New(),
		BookingID:       bookingID,
		PaymentIntentID: intentID,
		Amount:          amount,
		Currency:        currency,
		Status:          status,
		Method:          "card",
		Provider:        "stripe",
		FailureReason:   reason,
		Metadata:        metadata,
		CreatedAt:       time.Now().UTC(),
	}
}
