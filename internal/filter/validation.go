package filter

import (
	"regexp"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pkg/errors"
)

// columnRegex accepts a column, optionally qualified by a table alias.
var columnRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

// Validate checks a descriptor's static shape. The field is inserted into SQL
// verbatim, so it must be a plain column name.
func (d Descriptor) Validate() error {
	err := validation.ValidateStruct(&d,
		validation.Field(&d.Type, validation.Required),
		validation.Field(&d.Field,
			validation.When(d.Type != TypeCustom, validation.Required),
			validation.Match(columnRegex).Error("must be a column name"),
		),
		validation.Field(&d.ClassName,
			validation.When(d.Type != TypeReferences, validation.Empty.Error("is only used by references filters")),
		),
	)
	if err != nil {
		return err
	}
	if d.Type == TypeCustom && d.Generator == nil {
		return errors.Wrap(ErrMissingGenerator, "custom filters need a generator")
	}
	return nil
}

// Validate checks every configured descriptor and that its type is
// registered, so configuration mistakes surface before the first Generate.
func (e *Engine) Validate() error {
	names := make([]string, 0, len(e.filters))
	for name := range e.filters {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		d := e.filters[name]
		if err := d.Validate(); err != nil {
			return errors.Wrapf(ErrInvalidDescriptor, "filter %q: %v", name, err)
		}
		if _, err := e.registry.lookup(name, d); err != nil {
			return err
		}
	}
	return nil
}
