package property

import "github.com/shopspring/decimal"

// ListingDetails carries the channel-manager fields that ride along with a
// property but play no part in booking logic.
type ListingDetails struct {
	Beds         int     `json:"beds"`
	Baths        int     `json:"baths"`
	PropertyType string  `json:"property_type"`
	ListingType  string  `json:"listing_type"`
	MinStay      int     `json:"min_stay"`
	MaxStay      int     `json:"max_stay"`
	Rating       float64 `json:"rating"`
	ReviewCount  int     `json:"review_count"`
	InstantBook  bool    `json:"instant_book"`
	FullAddress  string  `json:"full_address"`
}

// Property is a catalog listing. Catalog entries are read-only and immutable
// for the lifetime of the process; bookings reference them by ID.
type Property struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Image         string          `json:"image"`
	PricePerNight decimal.Decimal `json:"price_per_night"`
	Location      string          `json:"location"`
	Description   string          `json:"description"`
	MaxGuests     int             `json:"max_guests"`
	Amenities     []string        `json:"amenities"`
	IsActive      bool            `json:"is_active"`
	Details       ListingDetails  `json:"details"`
}

// Catalog is the read-only property catalog the booking core depends on.
// Implementations are injected; the core never reaches for ambient state.
type Catalog interface {
	// GetByID returns the property with the given ID, or nil if unknown.
	GetByID(id string) *Property

	// ListActive returns all active properties.
	ListActive() []Property
}
