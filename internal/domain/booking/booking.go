package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stayloop/service-booking/internal/domain"
)

// GuestContact holds the guest's contact details. The booking core never
// interprets these fields; they are stored and echoed back as-is.
type GuestContact struct {
	Email           string `json:"email"`
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	SpecialRequests string `json:"special_requests"`
}

// Booking is the aggregate root for the booking domain.
type Booking struct {
	id              uuid.UUID
	propertyID      string
	propertyName    string
	stay            DateRange
	guests          int
	totalAmount     decimal.Decimal
	status          BookingStatus
	paymentIntentID string
	contact         GuestContact

	cancelReason string
	cancelledAt  *time.Time

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a new Booking aggregate with status=pending.
func NewBooking(
	propertyID string,
	propertyName string,
	stay DateRange,
	guests int,
	totalAmount decimal.Decimal,
	paymentIntentID string,
	contact GuestContact,
) (*Booking, error) {
	if propertyID == "" {
		return nil, domain.NewValidationError("property ID is required")
	}
	if guests <= 0 {
		return nil, domain.NewValidationError("guest count must be positive")
	}
	if totalAmount.IsNegative() {
		return nil, domain.NewValidationError("total amount cannot be negative")
	}

	now := time.Now().UTC()
	return &Booking{
		id:              uuid.New(),
		propertyID:      propertyID,
		propertyName:    propertyName,
		stay:            stay,
		guests:          guests,
		totalAmount:     totalAmount,
		status:          StatusPending,
		paymentIntentID: paymentIntentID,
		contact:         contact,
		version:         1,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	propertyID string,
	propertyName string,
	stay DateRange,
	guests int,
	totalAmount decimal.Decimal,
	status BookingStatus,
	paymentIntentID string,
	contact GuestContact,
	cancelReason string,
	cancelledAt *time.Time,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:              id,
		propertyID:      propertyID,
		propertyName:    propertyName,
		stay:            stay,
		guests:          guests,
		totalAmount:     totalAmount,
		status:          status,
		paymentIntentID: paymentIntentID,
		contact:         contact,
		cancelReason:    cancelReason,
		cancelledAt:     cancelledAt,
		version:         version,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// PropertyID returns the catalog identifier of the booked property.
func (b *Booking) PropertyID() string { return b.propertyID }

// PropertyName returns the property display name snapshot taken at creation.
func (b *Booking) PropertyName() string { return b.propertyName }

// Stay returns the booked date range.
func (b *Booking) Stay() DateRange { return b.stay }

// StartDate returns the check-in date.
func (b *Booking) StartDate() Date { return b.stay.Start }

// EndDate returns the checkout date.
func (b *Booking) EndDate() Date { return b.stay.End }

// Guests returns the number of guests.
func (b *Booking) Guests() int { return b.guests }

// TotalAmount returns the total booking amount.
func (b *Booking) TotalAmount() decimal.Decimal { return b.totalAmount }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// PaymentIntentID returns the payment-provider intent ID, or "" if payment
// was never initiated.
func (b *Booking) PaymentIntentID() string { return b.paymentIntentID }

// Contact returns the guest contact details.
func (b *Booking) Contact() GuestContact { return b.contact }

// CancelReason returns the cancellation reason.
func (b *Booking) CancelReason() string { return b.cancelReason }

// CancelledAt returns the time the booking was cancelled.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// ConfirmPayment transitions the booking from pending to confirmed.
func (b *Booking) ConfirmPayment() error {
	if !b.status.CanTransitionTo(StatusConfirmed) {
		return domain.NewInvalidStateError(string(b.status), string(StatusConfirmed))
	}
	b.status = StatusConfirmed
	b.updatedAt = time.Now().UTC()
	return nil
}

// FailPayment transitions the booking from pending to payment_failed.
func (b *Booking) FailPayment() error {
	if !b.status.CanTransitionTo(StatusPaymentFailed) {
		return domain.NewInvalidStateError(string(b.status), string(StatusPaymentFailed))
	}
	b.status = StatusPaymentFailed
	b.updatedAt = time.Now().UTC()
	return nil
}

// Cancel transitions the booking to cancelled if it is not in a terminal state.
func (b *Booking) Cancel(reason string) error {
	if !b.status.CanBeCancelled() {
		return domain.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}
	now := time.Now().UTC()
	b.status = StatusCancelled
	b.cancelReason = reason
	b.cancelledAt = &now
	b.updatedAt = now
	return nil
}

// ConflictsWith reports whether this booking blocks the candidate range.
// Only confirmed bookings for the same property participate in conflict
// detection.
func (b *Booking) ConflictsWith(propertyID string, candidate DateRange) bool {
	if b.propertyID != propertyID || !b.status.CountsTowardConflicts() {
		return false
	}
	return b.stay.Overlaps(candidate)
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
