// Package api exposes projects, statistics and the legacy catalog over
// HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/restoration-db/internal/catalog"
	"github.com/sells-group/restoration-db/internal/config"
	"github.com/sells-group/restoration-db/internal/db"
	"github.com/sells-group/restoration-db/internal/factor"
	"github.com/sells-group/restoration-db/internal/project"
)

// Deps are the handler dependencies. Catalog may be nil, in which case
// the catalog routes are not mounted.
type Deps struct {
	Pool    db.Pool
	Catalog *catalog.Store
	Config  config.APIConfig
}

// Server holds the handlers.
type Server struct {
	pool     db.Pool
	projects *project.Service
	catalog  *catalog.Store
	cfg      config.APIConfig
}

// NewServer wires a Server from its dependencies.
func NewServer(d Deps) *Server {
	resolver := factor.NewResolver(d.Pool, factor.WithStrict(d.Config.StrictFactors))
	return &Server{
		pool:     d.Pool,
		projects: project.NewService(d.Pool, resolver),
		catalog:  d.Catalog,
		cfg:      d.Config,
	}
}

// NewRouter builds the HTTP handler.
func NewRouter(d Deps) http.Handler {
	return NewServer(d).Routes()
}

// Routes returns the chi router with middleware applied.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))
	if s.cfg.RateLimit > 0 {
		r.Use(rateLimit(s.cfg.RateLimit, s.cfg.RateBurst))
	}

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/projects", s.handleListProjects)
		r.Post("/projects", s.handleCreateProject)
		r.Get("/projects/near/{lat}/{lng}", s.handleNearProjects)
		r.Get("/projects/{id}", s.handleGetProject)

		r.Get("/filter-options", s.handleFilterOptions)
		r.Get("/statistics", s.handleStatistics)
		r.Get("/factors", s.handleFactors)
		r.Get("/factors/{category}", s.handleFactorList)
		r.Get("/footer-stats", s.handleFooterStats)

		if s.catalog != nil {
			r.Route("/catalog", func(r chi.Router) {
				r.Get("/", s.handleListCatalog)
				r.Post("/", s.handleCreateCatalog)
				r.Get("/{id}", s.handleGetCatalog)
				r.Put("/{id}", s.handleUpdateCatalog)
				r.Delete("/{id}", s.handleDeleteCatalog)
			})
		}
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
