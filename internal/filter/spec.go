package filter

import (
	"bytes"
	"reflect"
	"sort"

	json "github.com/goccy/go-json"
)

// Connective keys of a specification tree.
const (
	KeyAll = "all"
	KeyAny = "any"
	KeyNot = "not"
)

// Entry is one key/value pair of a Spec.
type Entry struct {
	Key   string
	Value interface{}
}

// Spec is an ordered mapping. It is the tree shape Generate and Adjust walk,
// and also the shape of mapping-valued leaves such as {only, except}.
type Spec []Entry

// Get returns the value stored under key.
func (s Spec) Get(key string) (interface{}, bool) {
	for _, e := range s {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Has reports whether key is present.
func (s Spec) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Set replaces the value under key, or appends the pair when key is absent.
func (s Spec) Set(key string, value interface{}) Spec {
	for i, e := range s {
		if e.Key == key {
			s[i].Value = value
			return s
		}
	}
	return append(s, Entry{Key: key, Value: value})
}

// Keys returns the keys in order.
func (s Spec) Keys() []string {
	keys := make([]string, len(s))
	for i, e := range s {
		keys[i] = e.Key
	}
	return keys
}

// MarshalJSON writes the pairs in order.
func (s Spec) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object keeping key order. null decodes to a nil Spec.
func (s *Spec) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = nil
		return nil
	}
	parsed, err := ParseSpec(data)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// asMapping views v as an ordered mapping. Go maps with string keys are
// accepted and visited in sorted key order.
func asMapping(v interface{}) (Spec, bool) {
	switch m := v.(type) {
	case Spec:
		return m, true
	case *Spec:
		if m == nil {
			return nil, false
		}
		return *m, true
	case map[string]interface{}:
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(Spec, 0, len(m))
		for _, k := range keys {
			out = append(out, Entry{Key: k, Value: m[k]})
		}
		return out, true
	case nil:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	keys := make([]string, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	out := make(Spec, 0, len(keys))
	for _, k := range keys {
		out = append(out, Entry{Key: k, Value: rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface()})
	}
	return out, true
}

// asList views v as a list. The second result is false when v is not list-shaped.
func asList(v interface{}) ([]interface{}, bool) {
	switch l := v.(type) {
	case []interface{}:
		return l, true
	case nil:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
