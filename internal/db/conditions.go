package db

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Conditions accumulates predicates that are joined with AND. Each clause
// marks its parameters with "?"; Build numbers them $1..$n in the order the
// clauses were added, so callers never track placeholder indexes.
//
// A literal "?" cannot appear inside a clause.
type Conditions struct {
	clauses []string
	args    []any
	err     error
}

// Add appends a clause and the values bound to its placeholders.
func (c *Conditions) Add(clause string, args ...any) *Conditions {
	if n := strings.Count(clause, "?"); n != len(args) && c.err == nil {
		c.err = eris.Errorf("db: clause %q has %d placeholders but %d values", clause, n, len(args))
	}
	c.clauses = append(c.clauses, clause)
	c.args = append(c.args, args...)
	return c
}

// Len returns the number of clauses added so far.
func (c *Conditions) Len() int {
	return len(c.clauses)
}

// Build renders the conjunction and its ordered parameter list. With no
// clauses the predicate is TRUE.
func (c *Conditions) Build() (string, []any, error) {
	return c.BuildFrom(1)
}

// BuildFrom is Build with numbering starting at first, for predicates that
// follow other parameters in the same statement.
func (c *Conditions) BuildFrom(first int) (string, []any, error) {
	if c.err != nil {
		return "", nil, c.err
	}
	if len(c.clauses) == 0 {
		return "TRUE", []any{}, nil
	}

	joined := strings.Join(c.clauses, " AND ")
	var b strings.Builder
	b.Grow(len(joined) + 2*len(c.args))
	n := first
	for _, r := range joined {
		if r == '?' {
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			n++
			continue
		}
		b.WriteRune(r)
	}

	args := make([]any, len(c.args))
	copy(args, c.args)
	return b.String(), args, nil
}
