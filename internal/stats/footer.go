package stats

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/restoration-db/internal/db"
	"github.com/sells-group/restoration-db/internal/geo"
)

// Footer holds the site-wide totals.
type Footer struct {
	TotalProjects  int64 `json:"totalProjects"`
	TotalCountries int   `json:"totalCountries"`
}

// FooterStats counts projects and the distinct countries their locations
// fall in. Locations the classifier cannot place are not counted.
func FooterStats(ctx context.Context, pool db.Pool) (*Footer, error) {
	return footerStats(ctx, pool, geo.Classify)
}

func footerStats(ctx context.Context, pool db.Pool, classify func(lat, lng float64) string) (*Footer, error) {
	var (
		out       Footer
		countries = make(map[string]struct{})
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := CountProjects(gctx, pool)
		out.TotalProjects = n
		return err
	})
	g.Go(func() error {
		rows, err := pool.Query(gctx, `
			SELECT ST_Y(location::geometry), ST_X(location::geometry)
			FROM projects
			WHERE location IS NOT NULL
		`)
		if err != nil {
			return eris.Wrap(err, "stats: project locations")
		}
		defer rows.Close()

		for rows.Next() {
			var lat, lng float64
			if err := rows.Scan(&lat, &lng); err != nil {
				return eris.Wrap(err, "stats: scan location")
			}
			if label := classify(lat, lng); label != geo.Unknown {
				countries[label] = struct{}{}
			}
		}
		return eris.Wrap(rows.Err(), "stats: iterate locations")
	})
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "stats: footer")
	}

	out.TotalCountries = len(countries)
	return &out, nil
}
