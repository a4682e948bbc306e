package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lib/pq"
)

// Dialect selects the positional placeholder style produced by Bind.
type Dialect int

const (
	// DialectPostgres numbers placeholders ($1, $2, ...) and binds lists as
	// arrays, turning IN / NOT IN into = ANY / <> ALL.
	DialectPostgres Dialect = iota
	// DialectQuestion uses "?" placeholders and expands lists (MySQL, SQLite).
	DialectQuestion
)

// BindResult is a clause rewritten for database/sql.
type BindResult struct {
	Clause     string
	Args       []interface{}
	NextArgPos int
}

var placeholderRegex = regexp.MustCompile(`\b(NOT IN|IN) \(:(p\d+)\)|:(p\d+)\b`)

// Bind rewrites the named placeholders of a generated clause into positional
// ones and lays out the matching arguments. startArgPos is the first $n used
// by DialectPostgres, so the clause can follow arguments already in a query.
// A placeholder without a bound parameter receives a nil argument.
func Bind(clause string, params map[string]interface{}, startArgPos int, dialect Dialect) *BindResult {
	result := &BindResult{
		Args:       []interface{}{},
		NextArgPos: startArgPos,
	}
	if clause == "" {
		return result
	}

	var b strings.Builder
	last := 0
	for _, m := range placeholderRegex.FindAllStringSubmatchIndex(clause, -1) {
		b.WriteString(clause[last:m[0]])
		last = m[1]

		if m[2] >= 0 {
			negated := clause[m[2]:m[3]] == "NOT IN"
			b.WriteString(result.bindMembership(params[clause[m[4]:m[5]]], negated, dialect))
			continue
		}
		b.WriteString(result.bindValue(params[clause[m[6]:m[7]]], dialect))
	}
	b.WriteString(clause[last:])

	result.Clause = b.String()
	return result
}

func (r *BindResult) placeholder(arg interface{}, dialect Dialect) string {
	r.Args = append(r.Args, arg)
	pos := r.NextArgPos
	r.NextArgPos++
	if dialect == DialectQuestion {
		return "?"
	}
	return fmt.Sprintf("$%d", pos)
}

func (r *BindResult) bindMembership(value interface{}, negated bool, dialect Dialect) string {
	list, ok := asList(value)
	if !ok {
		list = []interface{}{value}
	}

	if dialect == DialectPostgres {
		if negated {
			return fmt.Sprintf("<> ALL(%s)", r.placeholder(pgArray(list), dialect))
		}
		return fmt.Sprintf("= ANY(%s)", r.placeholder(pgArray(list), dialect))
	}

	op := "IN"
	if negated {
		op = "NOT IN"
	}
	return fmt.Sprintf("%s (%s)", op, r.expand(list, dialect))
}

func (r *BindResult) bindValue(value interface{}, dialect Dialect) string {
	list, ok := asList(value)
	if !ok {
		return r.placeholder(value, dialect)
	}
	if dialect == DialectPostgres {
		return r.placeholder(pgArray(list), dialect)
	}
	return r.expand(list, dialect)
}

func (r *BindResult) expand(list []interface{}, dialect Dialect) string {
	if len(list) == 0 {
		return "NULL"
	}
	placeholders := make([]string, len(list))
	for i, v := range list {
		placeholders[i] = r.placeholder(v, dialect)
	}
	return strings.Join(placeholders, ", ")
}

func pgArray(list []interface{}) interface{} {
	switch {
	case isStringArray(list):
		return pq.Array(convertToStringArray(list))
	case isInt64Array(list):
		return pq.Array(convertToInt64Array(list))
	default:
		return pq.Array(list)
	}
}
