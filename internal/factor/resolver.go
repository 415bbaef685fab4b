package factor

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/restoration-db/internal/db"
)

// UnresolvedError lists submitted factor names that matched no reference
// row, keyed by category key. Only returned in strict mode.
type UnresolvedError struct {
	Names map[string][]string
}

func (e *UnresolvedError) Error() string {
	var parts []string
	for _, c := range All {
		if names := e.Names[c.Key]; len(names) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", c.Key, strings.Join(names, ", ")))
		}
	}
	return "factor: unknown names (" + strings.Join(parts, "; ") + ")"
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithStrict makes unknown names an error on create and an empty match on
// filter, instead of being ignored.
func WithStrict(strict bool) ResolverOption {
	return func(r *Resolver) {
		r.strict = strict
	}
}

// Resolver maps factor names to reference IDs. Matching is
// case-insensitive. An unknown name is an absence, not an error.
type Resolver struct {
	pool   db.Pool
	strict bool
}

// NewResolver creates a Resolver.
func NewResolver(pool db.Pool, opts ...ResolverOption) *Resolver {
	r := &Resolver{pool: pool}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Strict reports whether unknown names are rejected.
func (r *Resolver) Strict() bool {
	return r.strict
}

// ResolveID returns the ID of the named factor. found is false when no row
// matches; err is reserved for storage failures.
func (r *Resolver) ResolveID(ctx context.Context, cat Category, name string) (id int, found bool, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, false, nil
	}

	sql := fmt.Sprintf(`SELECT id FROM %s WHERE LOWER(name) = LOWER($1) ORDER BY id LIMIT 1`, cat.Table)
	if err := r.pool.QueryRow(ctx, sql, name).Scan(&id); err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, eris.Wrapf(err, "factor: resolve %s %q", cat.Key, name)
	}
	return id, true, nil
}

// ResolveIDs returns the IDs of the names that matched, in submission
// order. Unmatched names are dropped; in strict mode they are also
// reported as *UnresolvedError alongside the matched IDs.
func (r *Resolver) ResolveIDs(ctx context.Context, cat Category, names []string) ([]int, error) {
	ids, missing, err := r.resolve(ctx, cat, names)
	if err != nil {
		return nil, err
	}
	if r.strict && len(missing) > 0 {
		return ids, &UnresolvedError{Names: map[string][]string{cat.Key: missing}}
	}
	return ids, nil
}

// ResolveAll resolves every category's names concurrently. The result has
// an entry (possibly empty) for every category key. Any storage failure
// fails the whole call.
func (r *Resolver) ResolveAll(ctx context.Context, names map[string][]string) (map[string][]int, error) {
	type result struct {
		ids     []int
		missing []string
	}
	results := make([]result, len(All))

	g, gctx := errgroup.WithContext(ctx)
	for i, cat := range All {
		g.Go(func() error {
			ids, missing, err := r.resolve(gctx, cat, names[cat.Key])
			if err != nil {
				return err
			}
			results[i] = result{ids: ids, missing: missing}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "factor: resolve all")
	}

	out := make(map[string][]int, len(All))
	unresolved := make(map[string][]string)
	for i, cat := range All {
		out[cat.Key] = results[i].ids
		if len(results[i].missing) > 0 {
			unresolved[cat.Key] = results[i].missing
		}
	}

	if len(unresolved) > 0 {
		if r.strict {
			return out, &UnresolvedError{Names: unresolved}
		}
		zap.L().Debug("factor: dropped unknown names", zap.Any("names", unresolved))
	}
	return out, nil
}

// resolve looks up all names in one round trip, keeping submission order
// and duplicates.
func (r *Resolver) resolve(ctx context.Context, cat Category, names []string) ([]int, []string, error) {
	cleaned := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			cleaned = append(cleaned, n)
		}
	}
	if len(cleaned) == 0 {
		return []int{}, nil, nil
	}

	sql := fmt.Sprintf(`
		SELECT DISTINCT ON (n.ord) n.ord, COALESCE(f.id, 0)
		FROM unnest($1::text[]) WITH ORDINALITY AS n(name, ord)
		LEFT JOIN %s f ON LOWER(f.name) = LOWER(n.name)
		ORDER BY n.ord, f.id
	`, cat.Table)

	rows, err := r.pool.Query(ctx, sql, cleaned)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "factor: resolve %s names", cat.Key)
	}
	defer rows.Close()

	ids := make([]int, 0, len(cleaned))
	var missing []string
	for rows.Next() {
		var (
			ord int64
			id  int
		)
		if err := rows.Scan(&ord, &id); err != nil {
			return nil, nil, eris.Wrapf(err, "factor: scan %s id", cat.Key)
		}
		// SERIAL ids start at 1; 0 marks a name with no match.
		if id == 0 {
			if ord >= 1 && int(ord) <= len(cleaned) {
				missing = append(missing, cleaned[ord-1])
			}
			continue
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, eris.Wrapf(err, "factor: iterate %s ids", cat.Key)
	}
	return ids, missing, nil
}
