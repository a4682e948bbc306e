package filter

import (
	"fmt"
	"reflect"
)

func isStringArray(values []interface{}) bool {
	for _, v := range values {
		if _, ok := v.(string); !ok {
			return false
		}
	}
	return true
}

func isInt64Array(values []interface{}) bool {
	for _, v := range values {
		if _, ok := v.(int64); !ok {
			return false
		}
	}
	return true
}

func convertToStringArray(values []interface{}) []string {
	result := make([]string, len(values))
	for i, v := range values {
		result[i] = fmt.Sprintf("%v", v)
	}
	return result
}

func convertToInt64Array(values []interface{}) []int64 {
	result := make([]int64, len(values))
	for i, v := range values {
		result[i] = v.(int64)
	}
	return result
}

// isBlank reports whether a parameter value counts as absent: nil, or an
// empty slice or map.
func isBlank(value interface{}) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// numericMember is the set key of a number, so 1, int64(1) and 1.0 are one member.
type numericMember string

// memberKey makes a map key for set operations on list members.
func memberKey(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	if d, ok := toDecimal(v); ok {
		return numericMember(d.String())
	}
	if hashable(v) {
		return v
	}
	return fmt.Sprintf("%T:%#v", v, v)
}

// hashable reports whether v can be used as a map key. A comparable struct
// type still panics when an interface field holds a slice or map.
func hashable(v interface{}) (ok bool) {
	if !reflect.TypeOf(v).Comparable() {
		return false
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	_ = map[interface{}]struct{}{v: {}}
	return true
}
