// Package catalog provides the static property catalog. The data mimics a
// Guesty channel-manager export and is embedded at build time; in a real
// deployment this would be replaced by a live channel-manager client.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/stayloop/service-booking/internal/domain/property"
)

//go:embed properties.json
var propertiesJSON []byte

// StaticCatalog is an in-memory, read-only property catalog.
type StaticCatalog struct {
	byID  map[string]property.Property
	order []string
}

// NewStaticCatalog loads the embedded catalog data.
func NewStaticCatalog() (*StaticCatalog, error) {
	return newFromJSON(propertiesJSON)
}

func newFromJSON(data []byte) (*StaticCatalog, error) {
	var props []property.Property
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, fmt.Errorf("failed to parse property catalog: %w", err)
	}

	c := &StaticCatalog{
		byID:  make(map[string]property.Property, len(props)),
		order: make([]string, 0, len(props)),
	}
	for _, p := range props {
		if p.ID == "" {
			return nil, fmt.Errorf("property catalog entry missing id")
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate property id in catalog: %s", p.ID)
		}
		c.byID[p.ID] = p
		c.order = append(c.order, p.ID)
	}
	return c, nil
}

// GetByID returns the property with the given ID, or nil if unknown.
func (c *StaticCatalog) GetByID(id string) *property.Property {
	p, ok := c.byID[id]
	if !ok {
		return nil
	}
	return &p
}

// ListActive returns all active properties in catalog order.
func (c *StaticCatalog) ListActive() []property.Property {
	out := make([]property.Property, 0, len(c.order))
	for _, id := range c.order {
		if p := c.byID[id]; p.IsActive {
			out = append(out, p)
		}
	}
	return out
}
