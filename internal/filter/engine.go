package filter

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Engine turns specification trees into WHERE clauses with named bind
// parameters (":p1", ":p2", ...).
//
// An Engine carries a parameter counter and table across one Generate walk,
// so nested trees share a single parameter namespace. It is not safe for
// concurrent use; call Reset (or Compile) before starting an unrelated pass.
type Engine struct {
	filters  map[string]Descriptor
	classes  Classes
	registry registry

	counter    int
	parameters map[string]interface{}
}

// Result is the output of Compile.
type Result struct {
	Clause     string
	Parameters map[string]interface{}
}

// NewEngine registers the built-in filter types plus cfg.Generators.
func NewEngine(cfg Config) (*Engine, error) {
	r, err := newRegistry(cfg.Generators)
	if err != nil {
		return nil, err
	}
	filters := make(map[string]Descriptor, len(cfg.Filters))
	for name, d := range cfg.Filters {
		filters[name] = d
	}
	return &Engine{
		filters:    filters,
		classes:    cfg.Classes,
		registry:   r,
		parameters: make(map[string]interface{}),
	}, nil
}

// Register adds a filter type after construction.
func (e *Engine) Register(name string, factory GeneratorFactory) error {
	return e.registry.register(name, factory)
}

// Descriptor returns the configuration of a filter.
func (e *Engine) Descriptor(name string) (Descriptor, bool) {
	d, ok := e.filters[name]
	return d, ok
}

// Classes returns the class hierarchy used for class restrictions.
func (e *Engine) Classes() Classes {
	return e.classes
}

// AllocateParameter returns a fresh parameter name and binds value to it
// unless value is nil or an empty collection. Names are never reused until Reset.
func (e *Engine) AllocateParameter(value interface{}) string {
	e.counter++
	name := "p" + strconv.Itoa(e.counter)
	if !isBlank(value) {
		e.parameters[name] = value
	}
	return name
}

// Parameters returns a copy of the bound parameters.
func (e *Engine) Parameters() map[string]interface{} {
	out := make(map[string]interface{}, len(e.parameters))
	for k, v := range e.parameters {
		out[k] = v
	}
	return out
}

// Counter returns the number of parameters allocated since the last Reset.
func (e *Engine) Counter() int {
	return e.counter
}

// Reset clears the counter and the parameter table.
func (e *Engine) Reset() {
	e.counter = 0
	e.parameters = make(map[string]interface{})
}

// Compile resets the engine, generates the clause for tree and returns it
// with its parameters.
func (e *Engine) Compile(tree interface{}) (*Result, error) {
	e.Reset()
	clause, err := e.Generate(tree)
	if err != nil {
		return nil, err
	}
	return &Result{Clause: clause, Parameters: e.Parameters()}, nil
}

// Generate returns the clause for tree, whose top level is an implicit "all".
// An empty string means the tree places no restriction.
func (e *Engine) Generate(tree interface{}) (string, error) {
	return e.GenerateJoined(tree, JoinAnd)
}

// GenerateJoined returns the clause for tree with sibling fragments joined by op.
//
// A single fragment is returned as it is. Two or more are joined and wrapped
// in one pair of parentheses.
func (e *Engine) GenerateJoined(tree interface{}, op JoinOperator) (string, error) {
	spec, ok := asMapping(tree)
	if !ok {
		return "", errors.Wrapf(ErrMalformedSpecification, "expected a mapping, got %T", tree)
	}

	var fragments []string
	for _, entry := range spec {
		var fragment string
		var err error

		if join, ok := connectives[entry.Key]; ok {
			fragment, err = e.GenerateJoined(entry.Value, join)
			if entry.Key == KeyNot && fragment != "" {
				fragment = "(NOT " + fragment + ")"
			}
		} else {
			fragment, err = e.simpleClause(entry.Key, entry.Value)
		}
		if err != nil {
			return "", err
		}
		if fragment != "" {
			fragments = append(fragments, fragment)
		}
	}

	switch len(fragments) {
	case 0:
		return "", nil
	case 1:
		return fragments[0], nil
	}
	return "(" + strings.Join(fragments, " "+string(op)+" ") + ")", nil
}

func (e *Engine) simpleClause(name string, value interface{}) (string, error) {
	d, ok := e.filters[name]
	if !ok {
		return "", unknownFilterError(name, e.filters)
	}
	g, err := e.registry.lookup(name, d)
	if err != nil {
		return "", err
	}
	if d.Generator != nil && d.Type != TypeCustom {
		return d.Generator(e, name, d, value)
	}
	return g.GenerateSimpleClause(e, name, d, value)
}

// Adjust returns a copy of tree in which the value of every configured leaf
// is normalized and then replaced by what rewrite returns for it. A nil
// rewrite only normalizes.
//
// Leaves that are not configured are copied unchanged, and a tree that is
// not a mapping is returned as it is. This lets a partial configuration
// adjust part of a larger tree; Generate still rejects unknown filters.
func (e *Engine) Adjust(tree interface{}, rewrite RewriteFunc) (interface{}, error) {
	spec, ok := asMapping(tree)
	if !ok {
		return tree, nil
	}

	out := make(Spec, 0, len(spec))
	for _, entry := range spec {
		if isConnective(entry.Key) {
			sub, err := e.Adjust(entry.Value, rewrite)
			if err != nil {
				return nil, err
			}
			out = append(out, Entry{Key: entry.Key, Value: sub})
			continue
		}

		d, configured := e.filters[entry.Key]
		if !configured {
			out = append(out, entry)
			continue
		}
		g, err := e.registry.lookup(entry.Key, d)
		if err != nil {
			return nil, err
		}
		value, err := g.NormalizeValue(e, entry.Key, d, entry.Value)
		if err != nil {
			return nil, err
		}
		if rewrite != nil {
			value, err = rewrite(e, entry.Key, value)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, Entry{Key: entry.Key, Value: value})
	}
	return out, nil
}
