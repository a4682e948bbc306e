package filter

import (
	"github.com/pkg/errors"
)

// ErrRestrictedAway is returned by the rewrite built by Restrict when a
// restriction leaves a partition with nothing it may match. An empty only
// list would otherwise read as "no restriction".
var ErrRestrictedAway = errors.New("restriction excludes every value")

// Restrict builds a RewriteFunc for Adjust that confines partition filters to
// allowed values. For each restricted filter an only list is intersected
// with the allowed values; a partition without one is replaced by the
// allowed values minus its except list. Filters not named in restrictions
// and values that are not partitions pass through.
//
// Allowed values are compared with normalized leaf values, so they should be
// given in canonical form (bare identifiers for references filters,
// "Class/id" fingerprints for polymorphic ones).
func Restrict(restrictions map[string][]interface{}) RewriteFunc {
	return func(e *Engine, name string, value interface{}) (interface{}, error) {
		allowed, restricted := restrictions[name]
		if !restricted {
			return value, nil
		}
		p, ok := value.(Partition)
		if !ok {
			return value, nil
		}

		var only []interface{}
		if p.Only != nil {
			only = intersect(p.Only, allowed)
		} else {
			only = append([]interface{}(nil), allowed...)
		}
		if p.Except != nil {
			only = subtract(only, p.Except)
		}
		if len(only) == 0 {
			return nil, errors.Wrapf(ErrRestrictedAway, "filter %q", name)
		}
		return Partition{Only: only}, nil
	}
}
