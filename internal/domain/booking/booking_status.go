package booking

import "fmt"

// BookingStatus represents the current state of a booking in its lifecycle.
type BookingStatus string

const (
	StatusPending       BookingStatus = "pending"
	StatusConfirmed     BookingStatus = "confirmed"
	StatusPaymentFailed BookingStatus = "payment_failed"
	StatusCancelled     BookingStatus = "cancelled"
)

// validTransitions defines the state machine for booking status transitions.
// A booking leaves pending exactly once, at creation time, based on payment
// verification; cancellation is a separate operation.
var validTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:       {StatusConfirmed, StatusPaymentFailed, StatusCancelled},
	StatusConfirmed:     {StatusCancelled},
	StatusPaymentFailed: {},
	StatusCancelled:     {},
}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s BookingStatus) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// CountsTowardConflicts returns true if bookings in this status block other
// bookings for overlapping date ranges. Only confirmed bookings do.
func (s BookingStatus) CountsTowardConflicts() bool {
	return s == StatusConfirmed
}

// CanBeCancelled returns true if the booking can be cancelled from this status.
func (s BookingStatus) CanBeCancelled() bool {
	return s.CanTransitionTo(StatusCancelled)
}

// String returns the string representation of the status.
func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a string to a BookingStatus, returning an error if invalid.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}
