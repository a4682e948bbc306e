package filter

import "strconv"

func numberValue(value string) interface{} {
	if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
		return intVal
	}

	if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
		return floatVal
	}

	return value
}

// timestampValue turns date strings into time.Time and leaves everything else alone.
func timestampValue(value interface{}) interface{} {
	s, ok := value.(string)
	if !ok {
		return value
	}
	if t, err := ParseDateTime(s); err == nil {
		return t
	}
	return value
}

// boolValue accepts booleans and their string spellings.
func boolValue(value interface{}) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, false
		}
		return b, true
	}
	return false, false
}
