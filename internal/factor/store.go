package factor

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/restoration-db/internal/db"
)

// Names returns every factor name in a category, alphabetically.
func Names(ctx context.Context, pool db.Pool, cat Category) ([]string, error) {
	rows, err := pool.Query(ctx, fmt.Sprintf(`SELECT name FROM %s ORDER BY name`, cat.Table))
	if err != nil {
		return nil, eris.Wrapf(err, "factor: list %s names", cat.Key)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrapf(err, "factor: scan %s name", cat.Key)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "factor: iterate %s names", cat.Key)
	}
	return names, nil
}

// List returns every factor record in a category, alphabetically.
func List(ctx context.Context, pool db.Pool, cat Category) ([]Factor, error) {
	rows, err := pool.Query(ctx, fmt.Sprintf(`SELECT id, name, description FROM %s ORDER BY name`, cat.Table))
	if err != nil {
		return nil, eris.Wrapf(err, "factor: list %s", cat.Key)
	}
	defer rows.Close()

	factors := []Factor{}
	for rows.Next() {
		var f Factor
		if err := rows.Scan(&f.ID, &f.Name, &f.Description); err != nil {
			return nil, eris.Wrapf(err, "factor: scan %s", cat.Key)
		}
		factors = append(factors, f)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "factor: iterate %s", cat.Key)
	}
	return factors, nil
}
