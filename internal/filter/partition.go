package filter

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	keyOnly   = "only"
	keyExcept = "except"
)

// MarshalJSON writes only the keys that are present, so an empty except
// list survives a round trip.
func (p Partition) MarshalJSON() ([]byte, error) {
	spec := Spec{}
	if p.Only != nil {
		spec = append(spec, Entry{Key: keyOnly, Value: p.Only})
	}
	if p.Except != nil {
		spec = append(spec, Entry{Key: keyExcept, Value: p.Except})
	}
	return spec.MarshalJSON()
}

// asPartition reads an {only, except} value. A nil value is a partition with
// neither list. A scalar under only or except is read as a one element list.
func asPartition(name string, value interface{}) (Partition, error) {
	switch p := value.(type) {
	case Partition:
		return p, nil
	case *Partition:
		if p == nil {
			return Partition{}, nil
		}
		return *p, nil
	case nil:
		return Partition{}, nil
	}

	spec, ok := asMapping(value)
	if !ok {
		return Partition{}, errors.Wrapf(ErrMalformedSpecification, "filter %q expects {only, except}, got %T", name, value)
	}

	var p Partition
	if v, ok := spec.Get(keyOnly); ok {
		p.Only = partitionList(v)
	}
	if v, ok := spec.Get(keyExcept); ok {
		p.Except = partitionList(v)
	}
	return p, nil
}

func partitionList(v interface{}) []interface{} {
	if v == nil {
		return nil
	}
	if list, ok := asList(v); ok {
		if list == nil {
			return []interface{}{}
		}
		return list
	}
	return []interface{}{v}
}

// subtract returns the members of list that are not in remove, in list order.
func subtract(list, remove []interface{}) []interface{} {
	drop := make(map[interface{}]bool, len(remove))
	for _, v := range remove {
		drop[memberKey(v)] = true
	}
	out := make([]interface{}, 0, len(list))
	for _, v := range list {
		if !drop[memberKey(v)] {
			out = append(out, v)
		}
	}
	return out
}

// intersect returns the members of list that are also in keep, in list order.
func intersect(list, keep []interface{}) []interface{} {
	allowed := make(map[interface{}]bool, len(keep))
	for _, v := range keep {
		allowed[memberKey(v)] = true
	}
	out := make([]interface{}, 0, len(list))
	for _, v := range list {
		if allowed[memberKey(v)] {
			out = append(out, v)
		}
	}
	return out
}

// PartitionedClause emits the IN / NOT IN fragment of a normalized partition.
//
// When both lists are present the except list is subtracted from only first.
// An empty only list and an empty except list both mean no restriction, so
// neither emits a fragment.
func PartitionedClause(e *Engine, field string, p Partition) string {
	only := p.Only
	if only != nil && p.Except != nil {
		only = subtract(only, p.Except)
	}

	switch {
	case only != nil:
		if len(only) == 0 {
			return ""
		}
		return fmt.Sprintf("(%s IN (:%s))", field, e.AllocateParameter(only))
	case len(p.Except) > 0:
		return fmt.Sprintf("(%s NOT IN (:%s))", field, e.AllocateParameter(p.Except))
	}
	return ""
}
