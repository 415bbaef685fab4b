package api

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/restoration-db/internal/factor"
	"github.com/sells-group/restoration-db/internal/project"
)

const maxBodyBytes = 1 << 20

// parseOptionalFloat returns nil for an absent or blank value.
func parseOptionalFloat(q url.Values, key string) (*float64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, eris.Errorf("%s must be a number", key)
	}
	return &f, nil
}

func parseCriteria(q url.Values) (project.Criteria, error) {
	c := project.Criteria{
		CaseName: q.Get("case_name"),
		Factors:  make(map[string]string, len(factor.All)),
	}
	for _, cat := range factor.All {
		if v := q.Get(cat.Param); v != "" {
			c.Factors[cat.Key] = v
		}
	}

	var err error
	if c.Latitude, err = parseOptionalFloat(q, "latitude"); err != nil {
		return c, err
	}
	if c.Longitude, err = parseOptionalFloat(q, "longitude"); err != nil {
		return c, err
	}
	if c.RadiusKM, err = parseOptionalFloat(q, "radius_km"); err != nil {
		return c, err
	}
	return c, nil
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	c, err := parseCriteria(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query parameter", err.Error())
		return
	}

	projects, err := s.projects.Search(r.Context(), c)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid project id", "")
		return
	}

	p, err := s.projects.Get(r.Context(), id)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleNearProjects(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(chi.URLParam(r, "lat"), 64)
	lng, errLng := strconv.ParseFloat(chi.URLParam(r, "lng"), 64)
	if errLat != nil || errLng != nil {
		writeError(w, http.StatusBadRequest, "Invalid coordinates", "lat and lng must be numbers")
		return
	}

	radius := s.cfg.DefaultNearRadiusKM
	v, err := parseOptionalFloat(r.URL.Query(), "radius")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query parameter", err.Error())
		return
	}
	if v != nil {
		radius = *v
	}

	out, err := s.projects.Near(r.Context(), lat, lng, radius)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// decodeCoordinate accepts a JSON number or a numeric string. null, a
// missing key and "" all mean absent.
func decodeCoordinate(raw json.RawMessage, key string) (*float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, eris.Errorf("%s must be a number", key)
	}
	if s = strings.TrimSpace(s); s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, eris.Errorf("%s must be a number", key)
	}
	return &f, nil
}

func decodeCreate(body io.Reader) (project.CreateInput, error) {
	var in project.CreateInput

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return in, eris.Wrap(err, "invalid JSON")
	}

	if v, ok := raw["case_name"]; ok && string(v) != "null" {
		if err := json.Unmarshal(v, &in.CaseName); err != nil {
			return in, eris.New("case_name must be a string")
		}
	}

	var err error
	if in.Latitude, err = decodeCoordinate(raw["latitude"], "latitude"); err != nil {
		return in, err
	}
	if in.Longitude, err = decodeCoordinate(raw["longitude"], "longitude"); err != nil {
		return in, err
	}

	in.Names = make(map[string][]string, len(factor.All))
	for _, cat := range factor.All {
		v, ok := raw[cat.CreateField]
		if !ok || string(v) == "null" {
			continue
		}
		var names []string
		if err := json.Unmarshal(v, &names); err != nil {
			return in, eris.Errorf("%s must be an array of strings", cat.CreateField)
		}
		in.Names[cat.Key] = names
	}
	return in, nil
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	in, err := decodeCreate(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	created, err := s.projects.Create(r.Context(), in)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}
