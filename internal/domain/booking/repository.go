package booking

import (
	"context"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindConfirmedByProperty retrieves all confirmed bookings for a property.
	FindConfirmedByProperty(ctx context.Context, propertyID string) ([]*Booking, error)

	// Create persists a new pending booking. The insert must re-check for
	// overlapping confirmed bookings inside the same transaction and return
	// a conflict error if one exists, closing the window between the
	// caller's availability check and the insert.
	Create(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error

	// ListAll retrieves all bookings with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)
}
