package project

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/restoration-db/internal/db"
	"github.com/sells-group/restoration-db/internal/factor"
	"github.com/sells-group/restoration-db/internal/geo"
)

// factorsExpr expands one ID array into a JSON array of factor objects,
// keeping array order. Missing reference rows are skipped.
func factorsExpr(cat factor.Category) string {
	return fmt.Sprintf(`COALESCE((
		SELECT json_agg(json_build_object('id', f.id, 'name', f.name, 'description', f.description) ORDER BY u.ord)
		FROM unnest(p.%s) WITH ORDINALITY AS u(id, ord)
		JOIN %s f ON f.id = u.id
	), '[]'::json)`, cat.Column, cat.Table)
}

var expandQuery = buildExpandQuery()

func buildExpandQuery() string {
	var b strings.Builder
	b.WriteString(`SELECT p.id, p."case", ST_Y(p.location::geometry), ST_X(p.location::geometry), p.created_at`)
	for _, cat := range factor.All {
		b.WriteString(",\n\t")
		b.WriteString(factorsExpr(cat))
		b.WriteString(" AS ")
		b.WriteString(cat.Field)
	}
	b.WriteString("\nFROM projects p\nWHERE p.id = ANY($1)\nORDER BY p.created_at DESC, p.id DESC")
	return b.String()
}

func decodeFactors(raw []byte) ([]factor.Factor, error) {
	out := []factor.Factor{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []factor.Factor{}
	}
	return out, nil
}

// Expand loads full records for ids, newest first. An empty ID list
// returns an empty slice without a query.
func Expand(ctx context.Context, pool db.Pool, ids []int) ([]Project, error) {
	projects := []Project{}
	if len(ids) == 0 {
		return projects, nil
	}

	rows, err := pool.Query(ctx, expandQuery, ids)
	if err != nil {
		return nil, eris.Wrap(err, "project: expand")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p   Project
			raw = make([][]byte, len(factor.All))
		)
		dest := []any{&p.ID, &p.Case, &p.Latitude, &p.Longitude, &p.CreatedAt}
		for i := range raw {
			dest = append(dest, &raw[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, eris.Wrap(err, "project: scan expanded row")
		}

		for i, cat := range factor.All {
			fs, err := decodeFactors(raw[i])
			if err != nil {
				return nil, eris.Wrapf(err, "project: decode %s for project %d", cat.Field, p.ID)
			}
			*p.Factors(cat.Key) = fs
		}

		if p.Location, err = geo.PointGeoJSON(p.Latitude, p.Longitude); err != nil {
			return nil, eris.Wrapf(err, "project: location for project %d", p.ID)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "project: iterate expanded rows")
	}
	return projects, nil
}

// ExpandOne loads a single project or returns ErrNotFound.
func ExpandOne(ctx context.Context, pool db.Pool, id int) (*Project, error) {
	projects, err := Expand(ctx, pool, []int{id})
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return nil, eris.Wrapf(ErrNotFound, "project %d", id)
	}
	return &projects[0], nil
}

var nearQuery = func() string {
	issues, _ := factor.ByKey(factor.Issue)
	ideas, _ := factor.ByKey(factor.Idea)
	return `SELECT p.id, p."case", ST_X(p.location::geometry), ST_Y(p.location::geometry),
	ST_Distance(p.location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) AS distance_meters,
	` + factorsExpr(issues) + ` AS issues,
	` + factorsExpr(ideas) + ` AS ideas
FROM projects p
WHERE ST_DWithin(p.location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
ORDER BY distance_meters, p.id`
}()

// FindNear returns projects within radiusKM of the point, nearest first.
// Equal distances are ordered by ID.
func FindNear(ctx context.Context, pool db.Pool, lat, lng, radiusKM float64) ([]NearbyProject, error) {
	if !geo.ValidCoordinates(lat, lng) {
		return nil, &ValidationError{Fields: []string{"lat", "lng"}, Reason: "coordinates out of range"}
	}
	if !(radiusKM > 0) {
		return nil, &ValidationError{Fields: []string{"radius"}, Reason: "radius must be a positive number of kilometers"}
	}

	rows, err := pool.Query(ctx, nearQuery, lng, lat, radiusKM*1000)
	if err != nil {
		return nil, eris.Wrap(err, "project: find near")
	}
	defer rows.Close()

	out := []NearbyProject{}
	for rows.Next() {
		var (
			n                 NearbyProject
			rawIssue, rawIdea []byte
		)
		if err := rows.Scan(&n.ID, &n.Case, &n.Longitude, &n.Latitude, &n.DistanceMeters, &rawIssue, &rawIdea); err != nil {
			return nil, eris.Wrap(err, "project: scan nearby row")
		}
		if n.Issues, err = decodeFactors(rawIssue); err != nil {
			return nil, eris.Wrapf(err, "project: decode issues for project %d", n.ID)
		}
		if n.Ideas, err = decodeFactors(rawIdea); err != nil {
			return nil, eris.Wrapf(err, "project: decode ideas for project %d", n.ID)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "project: iterate nearby rows")
	}
	return out, nil
}
