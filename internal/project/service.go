package project

import (
	"context"

	"github.com/sells-group/restoration-db/internal/db"
	"github.com/sells-group/restoration-db/internal/factor"
)

// Service bundles the pool and resolver for request handlers.
type Service struct {
	pool     db.Pool
	resolver *factor.Resolver
}

// NewService creates a Service.
func NewService(pool db.Pool, resolver *factor.Resolver) *Service {
	return &Service{pool: pool, resolver: resolver}
}

// Search filters projects and expands the matches. ID matching completes
// before expansion starts.
func (s *Service) Search(ctx context.Context, c Criteria) ([]Project, error) {
	cond, err := BuildFilter(ctx, s.resolver, c)
	if err != nil {
		return nil, err
	}
	ids, err := MatchIDs(ctx, s.pool, cond)
	if err != nil {
		return nil, err
	}
	return Expand(ctx, s.pool, ids)
}

// Get returns one project or ErrNotFound.
func (s *Service) Get(ctx context.Context, id int) (*Project, error) {
	return ExpandOne(ctx, s.pool, id)
}

// Near returns projects within radiusKM of a point.
func (s *Service) Near(ctx context.Context, lat, lng, radiusKM float64) ([]NearbyProject, error) {
	return FindNear(ctx, s.pool, lat, lng, radiusKM)
}

// Create inserts a new project.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Created, error) {
	return Create(ctx, s.pool, s.resolver, in)
}
