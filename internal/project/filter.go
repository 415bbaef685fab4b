package project

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/restoration-db/internal/db"
	"github.com/sells-group/restoration-db/internal/factor"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// BuildFilter turns criteria into a WHERE predicate over projects p.
// Clauses are added in a fixed order: case name, the categories in
// factor.All order, then the geographic filter.
//
// Out-of-range coordinates or a non-positive radius fail with a
// *ValidationError before any lookup runs.
//
// A factor name that resolves to nothing drops its clause, unless the
// resolver is strict, in which case the predicate matches nothing.
func BuildFilter(ctx context.Context, resolver *factor.Resolver, c Criteria) (*db.Conditions, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	cond := &db.Conditions{}

	if term := strings.TrimSpace(c.CaseName); term != "" {
		cond.Add(`p."case" ILIKE ?`, "%"+escapeLike(term)+"%")
	}

	for _, cat := range factor.All {
		name := strings.TrimSpace(c.Factors[cat.Key])
		if name == "" {
			continue
		}
		id, found, err := resolver.ResolveID(ctx, cat, name)
		if err != nil {
			return nil, eris.Wrap(err, "project: build filter")
		}
		switch {
		case found:
			cond.Add(fmt.Sprintf(`? = ANY(p.%s)`, cat.Column), id)
		case resolver.Strict():
			cond.Add(`FALSE`)
		}
	}

	if g, ok := c.Geo(); ok {
		clause, args := g.predicate()
		cond.Add(clause, args...)
	}

	return cond, nil
}

// MatchIDs returns the IDs of projects satisfying cond, newest first.
func MatchIDs(ctx context.Context, pool db.Pool, cond *db.Conditions) ([]int, error) {
	where, args, err := cond.Build()
	if err != nil {
		return nil, eris.Wrap(err, "project: build predicate")
	}

	rows, err := pool.Query(ctx, `SELECT p.id FROM projects p WHERE `+where+` ORDER BY p.created_at DESC, p.id DESC`, args...)
	if err != nil {
		return nil, eris.Wrap(err, "project: match ids")
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "project: scan id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "project: iterate ids")
	}
	return ids, nil
}
