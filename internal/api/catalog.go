package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/restoration-db/internal/catalog"
)

func catalogID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func decodeItem(w http.ResponseWriter, r *http.Request) (catalog.Item, bool) {
	var it catalog.Item
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&it); err != nil || it == nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "expected a JSON object")
		return nil, false
	}
	return it, true
}

func (s *Server) handleListCatalog(w http.ResponseWriter, r *http.Request) {
	items, err := s.catalog.List(r.Context())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	id, ok := catalogID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Entry not found", "")
		return
	}
	it, err := s.catalog.Get(r.Context(), id)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) handleCreateCatalog(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeItem(w, r)
	if !ok {
		return
	}
	it, err := s.catalog.Create(r.Context(), body)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (s *Server) handleUpdateCatalog(w http.ResponseWriter, r *http.Request) {
	id, ok := catalogID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Entry not found", "")
		return
	}
	patch, ok := decodeItem(w, r)
	if !ok {
		return
	}
	it, err := s.catalog.Update(r.Context(), id, patch)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) handleDeleteCatalog(w http.ResponseWriter, r *http.Request) {
	id, ok := catalogID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Entry not found", "")
		return
	}
	it, err := s.catalog.Delete(r.Context(), id)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}
