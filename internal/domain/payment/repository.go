package payment

import (
	"context"

	"github.com/google/uuid"
)

// PaymentRepository defines the persistence contract for payment records.
type PaymentRepository interface {
	// Save persists a new payment record.
	Save(ctx context.Context, payment *Payment) error

	// FindByBookingID retrieves all payment records for a booking, ordered
	// by creation time ascending (latest record last).
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*Payment, error)
}
