package filter

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ReferenceKind tells which form a reference was written in.
type ReferenceKind int

const (
	KindInvalid ReferenceKind = iota
	KindBareID
	KindCompositeKey
	KindTypedURI
	KindObject
)

const typedURIScheme = "gid://"

// Referent is implemented by domain objects that can be used as filter references.
type Referent interface {
	FilterClass() string
	FilterID() interface{}
}

// Reference is a parsed reference. Class is empty for bare identifiers.
type Reference struct {
	Kind  ReferenceKind
	Class string
	ID    interface{}
}

// Fingerprint returns the "Class/id" form of the reference. Bare identifiers
// carry no class and have no fingerprint.
func (r Reference) Fingerprint() (string, bool) {
	if r.Kind == KindInvalid || r.Kind == KindBareID || r.Class == "" {
		return "", false
	}
	return fmt.Sprintf("%s/%v", r.Class, r.ID), true
}

// ParseReference recognizes the accepted reference forms:
//
//	42, "42", "3f0c...-uuid"   bare identifier
//	"Widget/42"                composite key
//	"gid://app/Widget/42"      typed URI
//	Referent                   object
func ParseReference(v interface{}) (Reference, bool) {
	switch r := v.(type) {
	case Referent:
		if r.FilterClass() == "" {
			return Reference{}, false
		}
		id, ok := canonicalID(r.FilterID())
		if !ok {
			return Reference{}, false
		}
		return Reference{Kind: KindObject, Class: r.FilterClass(), ID: id}, true
	case string:
		return parseReferenceString(strings.TrimSpace(r))
	}

	id, ok := canonicalID(v)
	if !ok {
		return Reference{}, false
	}
	return Reference{Kind: KindBareID, ID: id}, true
}

func parseReferenceString(s string) (Reference, bool) {
	if s == "" {
		return Reference{}, false
	}

	if strings.HasPrefix(s, typedURIScheme) {
		path := strings.TrimPrefix(s, typedURIScheme)
		if i := strings.IndexAny(path, "?#"); i >= 0 {
			path = path[:i]
		}
		parts := strings.Split(path, "/")
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
			return Reference{}, false
		}
		id, ok := canonicalID(parts[2])
		if !ok {
			return Reference{}, false
		}
		return Reference{Kind: KindTypedURI, Class: parts[1], ID: id}, true
	}

	if class, rawID, found := strings.Cut(s, "/"); found {
		if class == "" {
			return Reference{}, false
		}
		id, ok := canonicalID(rawID)
		if !ok {
			return Reference{}, false
		}
		return Reference{Kind: KindCompositeKey, Class: class, ID: id}, true
	}

	id, ok := canonicalID(s)
	if !ok {
		return Reference{}, false
	}
	return Reference{Kind: KindBareID, ID: id}, true
}

// canonicalID normalizes an identifier: integers of any kind become int64,
// UUIDs their lowercase hyphenated form, other non-empty strings are kept.
// Values outside the int64 range are rejected.
func canonicalID(v interface{}) (interface{}, bool) {
	switch id := v.(type) {
	case nil:
		return nil, false
	case uuid.UUID:
		return id.String(), true
	case string:
		id = strings.TrimSpace(id)
		if id == "" || strings.Contains(id, "/") {
			return nil, false
		}
		if n, err := strconv.ParseInt(id, 10, 64); err == nil {
			return n, true
		}
		if u, err := uuid.Parse(id); err == nil {
			return u.String(), true
		}
		return id, true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if rv.Uint() > math.MaxInt64 {
			return nil, false
		}
		return int64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || math.IsInf(f, 0) || f >= maxInt64Float || f < -maxInt64Float {
			return nil, false
		}
		return int64(f), true
	case reflect.String:
		return canonicalID(rv.String())
	}
	return nil, false
}

// maxInt64Float is 2^63, the first float64 past math.MaxInt64.
const maxInt64Float = 9.223372036854775808e18

// ResolveIdentifier resolves a reference to its bare identifier. With a
// non-empty className, references of another class are rejected; bare
// identifiers carry no class and are accepted as they are.
func ResolveIdentifier(v interface{}, className string, classes Classes) (interface{}, bool) {
	ref, ok := ParseReference(v)
	if !ok {
		return nil, false
	}
	if className != "" && ref.Kind != KindBareID && !classes.IsA(ref.Class, className) {
		return nil, false
	}
	return ref.ID, true
}

// ResolveFingerprint resolves a reference to its "Class/id" fingerprint.
func ResolveFingerprint(v interface{}) (string, bool) {
	ref, ok := ParseReference(v)
	if !ok {
		return "", false
	}
	return ref.Fingerprint()
}

func resolveIdentifiers(list []interface{}, className string, classes Classes) []interface{} {
	if list == nil {
		return nil
	}
	out := make([]interface{}, 0, len(list))
	for _, item := range list {
		if id, ok := ResolveIdentifier(item, className, classes); ok {
			out = append(out, id)
		}
	}
	return out
}

func resolveFingerprints(list []interface{}) []interface{} {
	if list == nil {
		return nil
	}
	out := make([]interface{}, 0, len(list))
	for _, item := range list {
		if fp, ok := ResolveFingerprint(item); ok {
			out = append(out, fp)
		}
	}
	return out
}
