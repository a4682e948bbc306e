package filter

import (
	"bytes"
	"io"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// ParseSpec decodes a JSON object into a Spec. Object key order is preserved
// at every level, since fragment order follows it. Numbers become int64 when
// they are integral and float64 otherwise.
func ParseSpec(data []byte) (Spec, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedSpecification, err.Error())
	}
	spec, ok := v.(Spec)
	if !ok {
		return nil, errors.Wrap(ErrMalformedSpecification, "top level is not an object")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.Wrap(ErrMalformedSpecification, "trailing data after object")
	}
	return spec, nil
}

func decodeValue(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
		return nil, errors.Errorf("unexpected delimiter %q", rune(t))
	case json.Number:
		return numberValue(string(t)), nil
	case float64:
		return numberValue(strconv.FormatFloat(t, 'f', -1, 64)), nil
	default:
		return t, nil
	}
}

func decodeObject(dec *json.Decoder) (Spec, error) {
	spec := Spec{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.Errorf("object key is %T, not a string", tok)
		}
		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		spec = append(spec, Entry{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return spec, nil
}

func decodeArray(dec *json.Decoder) ([]interface{}, error) {
	list := []interface{}{}
	for dec.More() {
		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		list = append(list, value)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return list, nil
}
