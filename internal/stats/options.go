package stats

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/restoration-db/internal/db"
	"github.com/sells-group/restoration-db/internal/factor"
)

// CasesKey is the Options key holding distinct project names.
const CasesKey = "cases"

// Options maps an option key to the selectable names: "cases" plus one
// entry per category option key.
type Options map[string][]string

// CaseNames returns the distinct project case names, alphabetically.
func CaseNames(ctx context.Context, pool db.Pool) ([]string, error) {
	rows, err := pool.Query(ctx, `SELECT DISTINCT "case" FROM projects ORDER BY "case"`)
	if err != nil {
		return nil, eris.Wrap(err, "stats: case names")
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "stats: scan case name")
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "stats: iterate case names")
	}
	return names, nil
}

// FilterOptions fetches the case names and every category's factor names
// concurrently.
func FilterOptions(ctx context.Context, pool db.Pool) (Options, error) {
	g, gctx := errgroup.WithContext(ctx)

	results := make([][]string, len(factor.All))
	for i, cat := range factor.All {
		g.Go(func() error {
			names, err := factor.Names(gctx, pool, cat)
			results[i] = names
			return err
		})
	}
	var cases []string
	g.Go(func() error {
		names, err := CaseNames(gctx, pool)
		cases = names
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "stats: filter options")
	}

	out := make(Options, len(factor.All)+1)
	out[CasesKey] = cases
	for i, cat := range factor.All {
		out[cat.OptionKey] = results[i]
	}
	return out, nil
}
