package model

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/flcore/flquery/internal/filter"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

var (
	resourceNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)
	identifierRegex   = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)
)

// Resource is a table that can be queried with filter specifications.
type Resource struct {
	Name         string                       `json:"name"`
	Table        string                       `json:"table"`
	Columns      []string                     `json:"columns"`
	DefaultSort  string                       `json:"default_sort,omitempty"`
	Filters      map[string]filter.Descriptor `json:"filters"`
	Restrictions map[string][]interface{}     `json:"restrictions,omitempty"`
}

// Record is one row of a search result keyed by column name.
type Record map[string]interface{}

type QueryOptions struct {
	SortBy       string    `json:"sort_by,omitempty"`
	SortOrder    SortOrder `json:"sort_order,omitempty"`
	IncludeCount bool      `json:"include_count,omitempty"`
}

// DefaultSortOrder returns desc if empty, otherwise validates and returns the order.
func (o *QueryOptions) DefaultSortOrder() SortOrder {
	if o == nil {
		return SortDesc
	}
	order := SortOrder(strings.ToLower(string(o.SortOrder)))
	if order != SortAsc && order != SortDesc {
		return SortDesc
	}
	return order
}

type Page struct {
	Data       []Record `json:"data"`
	TotalCount *int64   `json:"total_count,omitempty"`
	Limit      int      `json:"limit"`
	Offset     int      `json:"offset"`
}

func (r *Resource) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.Match(resourceNameRegex)),
		validation.Field(&r.Table, validation.Required, validation.Match(identifierRegex)),
		validation.Field(&r.Columns, validation.Required, validation.Each(validation.Match(identifierRegex))),
		validation.Field(&r.DefaultSort, validation.By(func(value interface{}) error {
			sortBy, _ := value.(string)
			if sortBy != "" && !r.HasColumn(sortBy) {
				return fmt.Errorf("%q is not a column of %s", sortBy, r.Table)
			}
			return nil
		})),
		validation.Field(&r.Filters, validation.Required),
		validation.Field(&r.Restrictions, validation.By(func(value interface{}) error {
			for name := range r.Restrictions {
				d, ok := r.Filters[name]
				if !ok {
					return fmt.Errorf("restriction on unknown filter %q", name)
				}
				if d.Type == filter.TypeTimestamp || d.Type == filter.TypeCustom {
					return fmt.Errorf("filter %q of type %s cannot be restricted", name, d.Type)
				}
			}
			return nil
		})),
	)
}

// HasColumn reports whether name is one of the resource's columns.
func (r *Resource) HasColumn(name string) bool {
	for _, c := range r.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// SortColumn resolves a requested sort field to a column of the resource.
// An empty sortBy falls back to the default sort, then to the first column.
func (r *Resource) SortColumn(sortBy string) (string, error) {
	sortBy = strings.TrimSpace(sortBy)
	if sortBy == "" {
		if r.DefaultSort != "" {
			return r.DefaultSort, nil
		}
		return r.Columns[0], nil
	}
	for _, c := range r.Columns {
		if strings.EqualFold(c, sortBy) {
			return c, nil
		}
	}
	return "", fmt.Errorf("cannot sort by '%s' for resource '%s': not a column", sortBy, r.Name)
}
