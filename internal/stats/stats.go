// Package stats computes factor usage counts, dashboard statistics, the
// footer totals and the filter option lists.
package stats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/restoration-db/internal/db"
	"github.com/sells-group/restoration-db/internal/factor"
)

// Usage is a factor with the number of projects referencing it.
type Usage struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	ProjectCount int64  `json:"project_count"`
}

// NameCount is the compact form of Usage used by Summary.
type NameCount struct {
	Name         string `json:"name"`
	ProjectCount int64  `json:"project_count"`
}

// Summary holds per-category usage keyed by the category's JSON field
// plus the project total. It marshals flat:
// {"issues": [...], ..., "total_projects": n}.
type Summary struct {
	Categories    map[string][]NameCount
	TotalProjects int64
}

// MarshalJSON flattens the categories next to total_projects.
func (s Summary) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Categories)+1)
	for k, v := range s.Categories {
		out[k] = v
	}
	out["total_projects"] = s.TotalProjects
	return json.Marshal(out)
}

// UsageCounts returns every factor in the category, unused ones included,
// ordered by descending usage then name.
func UsageCounts(ctx context.Context, pool db.Pool, cat factor.Category) ([]Usage, error) {
	sql := fmt.Sprintf(`
		SELECT f.id, f.name, f.description, COUNT(p.id) AS project_count
		FROM %s f
		LEFT JOIN projects p ON f.id = ANY(p.%s)
		GROUP BY f.id, f.name, f.description
		ORDER BY project_count DESC, f.name
	`, cat.Table, cat.Column)

	rows, err := pool.Query(ctx, sql)
	if err != nil {
		return nil, eris.Wrapf(err, "stats: usage counts for %s", cat.Table)
	}
	defer rows.Close()

	out := []Usage{}
	for rows.Next() {
		var u Usage
		if err := rows.Scan(&u.ID, &u.Name, &u.Description, &u.ProjectCount); err != nil {
			return nil, eris.Wrapf(err, "stats: scan %s usage", cat.Table)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "stats: iterate %s usage", cat.Table)
	}
	return out, nil
}

// CountProjects returns the number of stored projects.
func CountProjects(ctx context.Context, pool db.Pool) (int64, error) {
	var n int64
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM projects`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "stats: count projects")
	}
	return n, nil
}

// usageByCategory runs UsageCounts for every category concurrently.
func usageByCategory(ctx context.Context, g *errgroup.Group, pool db.Pool) [][]Usage {
	results := make([][]Usage, len(factor.All))
	for i, cat := range factor.All {
		g.Go(func() error {
			u, err := UsageCounts(ctx, pool, cat)
			if err != nil {
				return err
			}
			results[i] = u
			return nil
		})
	}
	return results
}

// Statistics gathers usage for all seven categories and the project total.
// Any failing query fails the whole call.
func Statistics(ctx context.Context, pool db.Pool) (*Summary, error) {
	g, gctx := errgroup.WithContext(ctx)
	results := usageByCategory(gctx, g, pool)

	var total int64
	g.Go(func() error {
		n, err := CountProjects(gctx, pool)
		total = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "stats: statistics")
	}

	out := &Summary{Categories: make(map[string][]NameCount, len(factor.All)), TotalProjects: total}
	for i, cat := range factor.All {
		counts := make([]NameCount, 0, len(results[i]))
		for _, u := range results[i] {
			counts = append(counts, NameCount{Name: u.Name, ProjectCount: u.ProjectCount})
		}
		out.Categories[cat.Field] = counts
	}
	return out, nil
}

// Factors returns the full usage records of every category keyed by the
// category's JSON field.
func Factors(ctx context.Context, pool db.Pool) (map[string][]Usage, error) {
	g, gctx := errgroup.WithContext(ctx)
	results := usageByCategory(gctx, g, pool)
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "stats: factors")
	}

	out := make(map[string][]Usage, len(factor.All))
	for i, cat := range factor.All {
		out[cat.Field] = results[i]
	}
	return out, nil
}
