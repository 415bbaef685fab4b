package project

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/restoration-db/internal/db"
	"github.com/sells-group/restoration-db/internal/factor"
	"github.com/sells-group/restoration-db/internal/geo"
)

var insertQuery = func() string {
	cols := []string{`"case"`, "location"}
	vals := []string{"$1", "ST_GeomFromEWKB($2)::geography"}
	for i, cat := range factor.All {
		cols = append(cols, cat.Column)
		vals = append(vals, fmt.Sprintf("$%d", i+3))
	}
	return fmt.Sprintf(`INSERT INTO projects (%s) VALUES (%s) RETURNING id, created_at`,
		strings.Join(cols, ", "), strings.Join(vals, ", "))
}()

// Validate checks the required fields of a submission.
func (in CreateInput) Validate() error {
	var missing []string
	if strings.TrimSpace(in.CaseName) == "" {
		missing = append(missing, "case_name")
	}
	if in.Latitude == nil {
		missing = append(missing, "latitude")
	}
	if in.Longitude == nil {
		missing = append(missing, "longitude")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing, Reason: "missing required fields"}
	}
	if !geo.ValidCoordinates(*in.Latitude, *in.Longitude) {
		return &ValidationError{Fields: []string{"latitude", "longitude"}, Reason: "coordinates out of range"}
	}
	return nil
}

// Create validates the submission, resolves its factor names and inserts
// one project. The database assigns id and created_at.
func Create(ctx context.Context, pool db.Pool, resolver *factor.Resolver, in CreateInput) (*Created, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	ids, err := resolver.ResolveAll(ctx, in.Names)
	if err != nil {
		return nil, err
	}

	point, err := geo.EncodePoint(*in.Latitude, *in.Longitude)
	if err != nil {
		return nil, eris.Wrap(err, "project: create")
	}

	args := []any{strings.TrimSpace(in.CaseName), point}
	for _, cat := range factor.All {
		args = append(args, ids[cat.Key])
	}

	var out Created
	if err := pool.QueryRow(ctx, insertQuery, args...).Scan(&out.ID, &out.CreatedAt); err != nil {
		return nil, eris.Wrap(err, "project: insert")
	}

	zap.L().Info("project created",
		zap.String("component", "project.writer"),
		zap.Int("id", out.ID),
		zap.String("case", args[0].(string)),
	)
	return &out, nil
}
