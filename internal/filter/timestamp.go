package filter

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// timestampGenerator compares a column against points in time.
//
// Its value is a mapping holding at most one comparison (see
// timestampOperators) and an optional null check. Range bounds are stored in
// ascending order whatever order they were given in.
type timestampGenerator struct{}

func (g timestampGenerator) NormalizeValue(_ *Engine, name string, _ Descriptor, value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	spec, ok := asMapping(value)
	if !ok {
		return nil, errors.Wrapf(ErrMalformedSpecification, "timestamp filter %q expects a mapping, got %T", name, value)
	}

	out := make(Spec, 0, len(spec))
	for _, entry := range spec {
		v := entry.Value
		op := Operator(entry.Key)
		switch {
		case v == nil:
		case op.IsRange():
			bounds, err := orderedRange(name, op, v)
			if err != nil {
				return nil, err
			}
			v = bounds
		case op.SQL() != "":
			v = timestampValue(v)
		case entry.Key == keyNull:
			if b, ok := boolValue(v); ok {
				v = b
			}
		}
		out = append(out, Entry{Key: entry.Key, Value: v})
	}
	return out, nil
}

func orderedRange(name string, op Operator, value interface{}) ([]interface{}, error) {
	list, ok := asList(value)
	if !ok || len(list) != 2 {
		return nil, errors.Wrapf(ErrInvalidRange, "timestamp filter %q: %s needs [start, end]", name, op)
	}
	start, end := timestampValue(list[0]), timestampValue(list[1])
	if start == nil || end == nil {
		return nil, errors.Wrapf(ErrInvalidRange, "timestamp filter %q: %s bounds cannot be null", name, op)
	}
	if compareValues(start, end) > 0 {
		start, end = end, start
	}
	return []interface{}{start, end}, nil
}

func (g timestampGenerator) GenerateSimpleClause(e *Engine, name string, d Descriptor, value interface{}) (string, error) {
	normalized, err := g.NormalizeValue(e, name, d, value)
	if err != nil || normalized == nil {
		return "", err
	}
	spec := normalized.(Spec)

	var parts []string
	for _, op := range timestampOperators {
		v, ok := spec.Get(string(op))
		if !ok || v == nil {
			continue
		}
		if op.IsRange() {
			bounds := v.([]interface{})
			start := e.AllocateParameter(bounds[0])
			end := e.AllocateParameter(bounds[1])
			parts = append(parts, fmt.Sprintf("%s %s :%s AND :%s", d.Field, op.SQL(), start, end))
		} else {
			parts = append(parts, fmt.Sprintf("%s %s :%s", d.Field, op.SQL(), e.AllocateParameter(v)))
		}
		break
	}

	if v, ok := spec.Get(keyNull); ok {
		if isNull, ok := v.(bool); ok {
			if isNull {
				parts = append(parts, fmt.Sprintf("%s IS NULL", d.Field))
			} else {
				parts = append(parts, fmt.Sprintf("%s IS NOT NULL", d.Field))
			}
		}
	}

	if len(parts) == 0 {
		return "", nil
	}
	return "(" + strings.Join(parts, " OR ") + ")", nil
}
