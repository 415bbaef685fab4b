package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/restoration-db/internal/factor"
	"github.com/sells-group/restoration-db/internal/stats"
)

func (s *Server) handleFilterOptions(w http.ResponseWriter, r *http.Request) {
	out, err := stats.FilterOptions(r.Context(), s.pool)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	out, err := stats.Statistics(r.Context(), s.pool)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleFactors(w http.ResponseWriter, r *http.Request) {
	out, err := stats.Factors(r.Context(), s.pool)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleFactorList lists one category's records. The category is named by
// its response field ("issues") or its key ("issue").
func (s *Server) handleFactorList(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "category")
	cat, ok := factor.ByField(name)
	if !ok {
		cat, ok = factor.ByKey(name)
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown factor category", name)
		return
	}

	out, err := factor.List(r.Context(), s.pool, cat)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleFooterStats(w http.ResponseWriter, r *http.Request) {
	out, err := stats.FooterStats(r.Context(), s.pool)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
