package model

import (
	"fmt"
	"os"

	"github.com/flcore/flquery/internal/filter"
	json "github.com/goccy/go-json"
)

// Catalog lists the queryable resources and the class hierarchy used by
// references filters.
type Catalog struct {
	Resources []Resource     `json:"resources"`
	Classes   filter.Classes `json:"classes,omitempty"`
}

// LoadCatalog reads a catalog from a JSON file and validates it.
func LoadCatalog(file string) (*Catalog, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, err
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return &catalog, nil
}

func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Resources))
	for i := range c.Resources {
		r := &c.Resources[i]
		if err := r.Validate(); err != nil {
			return fmt.Errorf("resource %q: %w", r.Name, err)
		}
		if seen[r.Name] {
			return fmt.Errorf("resource %q is defined twice", r.Name)
		}
		seen[r.Name] = true
	}
	return nil
}
