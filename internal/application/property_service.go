package application

import (
	"github.com/stayloop/service-booking/internal/domain"
	"github.com/stayloop/service-booking/internal/domain/property"
)

// PropertyService exposes read-only catalog lookups to the transport layer.
type PropertyService struct {
	catalog property.Catalog
}

// NewPropertyService creates a new PropertyService.
func NewPropertyService(catalog property.Catalog) *PropertyService {
	return &PropertyService{catalog: catalog}
}

// ListProperties returns all active properties.
func (s *PropertyService) ListProperties() []property.Property {
	return s.catalog.ListActive()
}

// GetProperty returns a single property by ID.
func (s *PropertyService) GetProperty(id string) (*property.Property, error) {
	prop := s.catalog.GetByID(id)
	if prop == nil {
		return nil, domain.NewNotFoundError("Property", id)
	}
	return prop, nil
}
