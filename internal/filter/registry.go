package filter

import (
	"sort"

	"github.com/pkg/errors"
)

type registry map[string]Generator

func newRegistry(custom map[string]GeneratorFactory) (registry, error) {
	r := registry(builtinGenerators())

	names := make([]string, 0, len(custom))
	for name := range custom {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := r.register(name, custom[name]); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// register resolves factory right away so a broken registration fails at
// configuration time instead of on first use.
func (r registry) register(name string, factory GeneratorFactory) error {
	if _, exists := r[name]; exists {
		return errors.Wrapf(ErrDuplicateGeneratorRegistration, "filter type %q", name)
	}
	if name == "" || factory == nil {
		return errors.Wrapf(ErrUnresolvableGenerator, "filter type %q", name)
	}
	g := factory()
	if g == nil {
		return errors.Wrapf(ErrUnresolvableGenerator, "filter type %q: factory returned nil", name)
	}
	r[name] = g
	return nil
}

func (r registry) lookup(filterName string, d Descriptor) (Generator, error) {
	g, ok := r[d.Type]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownFilterType, "%q for filter %q", d.Type, filterName)
	}
	return g, nil
}
