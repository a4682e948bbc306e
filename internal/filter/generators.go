package filter

import (
	"github.com/pkg/errors"
)

// Generator emits the WHERE fragment of one filter type.
//
// GenerateSimpleClause returns the fragment for a leaf value, or an empty
// string when the value places no restriction. NormalizeValue returns the
// canonical form of a leaf value; Adjust hands that form to its rewrite
// callback.
type Generator interface {
	GenerateSimpleClause(e *Engine, name string, d Descriptor, value interface{}) (string, error)
	NormalizeValue(e *Engine, name string, d Descriptor, value interface{}) (interface{}, error)
}

// GeneratorFactory builds the Generator registered under a filter type.
type GeneratorFactory func() Generator

// IdentityNormalizer is embedded by generators whose values need no normalization.
type IdentityNormalizer struct{}

// NormalizeValue returns value unchanged.
func (IdentityNormalizer) NormalizeValue(_ *Engine, _ string, _ Descriptor, value interface{}) (interface{}, error) {
	return value, nil
}

func builtinGenerators() map[string]Generator {
	return map[string]Generator{
		TypeReferences:            referencesGenerator{},
		TypePolymorphicReferences: polymorphicReferencesGenerator{},
		TypeBlockList:             blockListGenerator{},
		TypeTimestamp:             timestampGenerator{},
		TypeCustom:                customGenerator{},
	}
}

// referencesGenerator filters a column of bare identifiers.
type referencesGenerator struct{}

func (g referencesGenerator) NormalizeValue(e *Engine, name string, d Descriptor, value interface{}) (interface{}, error) {
	p, err := asPartition(name, value)
	if err != nil {
		return nil, err
	}
	return Partition{
		Only:   resolveIdentifiers(p.Only, d.ClassName, e.classes),
		Except: resolveIdentifiers(p.Except, d.ClassName, e.classes),
	}, nil
}

func (g referencesGenerator) GenerateSimpleClause(e *Engine, name string, d Descriptor, value interface{}) (string, error) {
	p, err := g.NormalizeValue(e, name, d, value)
	if err != nil {
		return "", err
	}
	return PartitionedClause(e, d.Field, p.(Partition)), nil
}

// polymorphicReferencesGenerator filters a column of "Class/id" fingerprints.
type polymorphicReferencesGenerator struct{}

func (g polymorphicReferencesGenerator) NormalizeValue(_ *Engine, name string, _ Descriptor, value interface{}) (interface{}, error) {
	p, err := asPartition(name, value)
	if err != nil {
		return nil, err
	}
	return Partition{
		Only:   resolveFingerprints(p.Only),
		Except: resolveFingerprints(p.Except),
	}, nil
}

func (g polymorphicReferencesGenerator) GenerateSimpleClause(e *Engine, name string, d Descriptor, value interface{}) (string, error) {
	p, err := g.NormalizeValue(e, name, d, value)
	if err != nil {
		return "", err
	}
	return PartitionedClause(e, d.Field, p.(Partition)), nil
}

// blockListGenerator hands each list to the descriptor's Convert callback.
// Without one, lists are used as given.
type blockListGenerator struct{}

func (g blockListGenerator) NormalizeValue(e *Engine, name string, d Descriptor, value interface{}) (interface{}, error) {
	p, err := asPartition(name, value)
	if err != nil {
		return nil, err
	}
	if d.Convert == nil {
		return p, nil
	}
	if p.Only != nil {
		p.Only = nonNil(d.Convert(e, p.Only, ListOnly))
	}
	if p.Except != nil {
		p.Except = nonNil(d.Convert(e, p.Except, ListExcept))
	}
	return p, nil
}

func (g blockListGenerator) GenerateSimpleClause(e *Engine, name string, d Descriptor, value interface{}) (string, error) {
	p, err := g.NormalizeValue(e, name, d, value)
	if err != nil {
		return "", err
	}
	return PartitionedClause(e, d.Field, p.(Partition)), nil
}

// nonNil keeps a converted list present even when the callback returned nil.
func nonNil(list []interface{}) []interface{} {
	if list == nil {
		return []interface{}{}
	}
	return list
}

// customGenerator delegates everything to the descriptor's Generator callback.
type customGenerator struct {
	IdentityNormalizer
}

func (customGenerator) GenerateSimpleClause(e *Engine, name string, d Descriptor, value interface{}) (string, error) {
	if d.Generator == nil {
		return "", errors.Wrapf(ErrMissingGenerator, "custom filter %q", name)
	}
	if value == nil {
		return "", nil
	}
	return d.Generator(e, name, d, value)
}
