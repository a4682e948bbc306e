package filter

// Operator is a comparison key of a timestamp filter value.
type Operator string

const (
	OpAt         Operator = "at"
	OpNotAt      Operator = "not_at"
	OpAfter      Operator = "after"
	OpAtOrAfter  Operator = "at_or_after"
	OpBefore     Operator = "before"
	OpAtOrBefore Operator = "at_or_before"
	OpBetween    Operator = "between"
	OpNotBetween Operator = "not_between"

	// keyNull is the null check that may accompany any comparison.
	keyNull = "null"
)

// timestampOperators lists the comparison keys in priority order. When a
// value carries more than one, the first in this list wins.
var timestampOperators = []Operator{
	OpAt,
	OpNotAt,
	OpAfter,
	OpAtOrAfter,
	OpBefore,
	OpAtOrBefore,
	OpBetween,
	OpNotBetween,
}

// SQL returns the comparison the operator emits.
func (o Operator) SQL() string {
	switch o {
	case OpAt:
		return "="
	case OpNotAt:
		return "!="
	case OpAfter:
		return ">"
	case OpAtOrAfter:
		return ">="
	case OpBefore:
		return "<"
	case OpAtOrBefore:
		return "<="
	case OpBetween:
		return "BETWEEN"
	case OpNotBetween:
		return "NOT BETWEEN"
	default:
		return ""
	}
}

// IsRange reports whether the operator takes a [start, end] pair.
func (o Operator) IsRange() bool {
	return o == OpBetween || o == OpNotBetween
}
