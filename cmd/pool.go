package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/sells-group/restoration-db/internal/db"
	"github.com/sells-group/restoration-db/internal/resilience"
)

// openPool connects to the configured PostGIS database, retrying while the
// server is unreachable or still starting.
func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	policy := resilience.Policy{
		Attempts:   cfg.Store.ConnectAttempts,
		Backoff:    time.Second,
		MaxBackoff: 15 * time.Second,
		Jitter:     0.2,
		OnRetry:    resilience.LogRetry("connect database"),
	}
	pool, err := resilience.Value(ctx, policy, func(ctx context.Context) (*pgxpool.Pool, error) {
		return db.Connect(ctx, cfg.Store.DatabaseURL, &db.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	})
	if err != nil {
		return nil, err
	}
	zap.L().Debug("connected to database")
	return pool, nil
}
