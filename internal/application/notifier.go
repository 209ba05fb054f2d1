package application

import (
	"context"

	"github.com/google/uuid"
)

// ReservationSyncNotifier pushes booking outcomes to the external
// reservation-sync channel. Calls are fire-and-forget from the booking
// core's perspective: a notify failure never fails the booking.
type ReservationSyncNotifier interface {
	Notify(ctx context.Context, bookingID uuid.UUID, propertyID string) error
}
