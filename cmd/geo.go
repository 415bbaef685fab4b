package main

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/restoration-db/internal/config"
	"github.com/sells-group/restoration-db/internal/geo"
)

// useBoundaries swaps in the configured country boundaries. It is a no-op
// when none are configured.
func useBoundaries(ctx context.Context, gc config.GeoConfig) error {
	if gc.Boundaries == "" {
		return nil
	}
	client := &http.Client{Timeout: 2 * time.Minute}
	c, err := geo.LoadBoundaries(ctx, client, gc.Boundaries, gc.NameField)
	if err != nil {
		return err
	}
	geo.SetDefault(c)
	zap.L().Info("using country boundaries", zap.String("source", gc.Boundaries))
	return nil
}
