package application

import (
	"context"
	"fmt"

	"github.com/stayloop/service-booking/internal/domain"
	bookingDomain "github.com/stayloop/service-booking/internal/domain/booking"
	"github.com/stayloop/service-booking/internal/domain/property"
)

// conflictReasonBooked is the fixed reason returned when a candidate range
// overlaps an existing confirmed booking.
const conflictReasonBooked = "Property already booked for selected dates"

// AvailabilityResult is the outcome of an availability check.
type AvailabilityResult struct {
	Available      bool    `json:"available"`
	ConflictReason *string `json:"conflict_reason"`
}

// AvailabilityChecker answers whether a candidate date range overlaps any
// confirmed booking for a property. It is read-only and has no side effects.
type AvailabilityChecker struct {
	catalog property.Catalog
	repo    bookingDomain.BookingRepository
}

// NewAvailabilityChecker creates an AvailabilityChecker.
func NewAvailabilityChecker(catalog property.Catalog, repo bookingDomain.BookingRepository) *AvailabilityChecker {
	return &AvailabilityChecker{catalog: catalog, repo: repo}
}

// Check determines whether the property is available for [start, end).
// Unknown properties fail with a not-found error; zero-length and inverted
// ranges are rejected as validation errors.
func (c *AvailabilityChecker) Check(ctx context.Context, propertyID string, start, end bookingDomain.Date) (*AvailabilityResult, error) {
	if c.catalog.GetByID(propertyID) == nil {
		return nil, domain.NewNotFoundError("Property", propertyID)
	}

	stay, err := bookingDomain.NewDateRange(start, end)
	if err != nil {
		return nil, err
	}

	confirmed, err := c.repo.FindConfirmedByProperty(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load confirmed bookings: %w", err)
	}

	if hasConflict(confirmed, propertyID, stay) {
		reason := conflictReasonBooked
		return &AvailabilityResult{Available: false, ConflictReason: &reason}, nil
	}
	return &AvailabilityResult{Available: true}, nil
}

// hasConflict scans confirmed bookings for a half-open interval overlap with
// the candidate range. Back-to-back stays sharing only a boundary date do
// not conflict.
func hasConflict(confirmed []*bookingDomain.Booking, propertyID string, stay bookingDomain.DateRange) bool {
	for _, b := range confirmed {
		if b.ConflictsWith(propertyID, stay) {
			return true
		}
	}
	return false
}
