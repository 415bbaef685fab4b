// Package project reads and writes restoration projects: filter assembly,
// ID matching, expansion of factor arrays into nested records, radius
// search and creation.
package project

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/restoration-db/internal/factor"
)

// ErrNotFound is returned when a project ID has no row.
var ErrNotFound = eris.New("project: not found")

// Project is a fully expanded project record.
type Project struct {
	ID                   int             `json:"id"`
	Case                 string          `json:"case"`
	Latitude             float64         `json:"latitude"`
	Longitude            float64         `json:"longitude"`
	Location             json.RawMessage `json:"location"`
	CreatedAt            time.Time       `json:"created_at"`
	Issues               []factor.Factor `json:"issues"`
	Ideas                []factor.Factor `json:"ideas"`
	EcologyFactors       []factor.Factor `json:"ecology_factors"`
	SocioCulturalAspects []factor.Factor `json:"socio_cultural_aspects"`
	EconomicFactors      []factor.Factor `json:"economic_factors"`
	UpgradingApproaches  []factor.Factor `json:"upgrading_approaches"`
	GovernanceTypes      []factor.Factor `json:"governance_types"`
}

// Factors returns a pointer to the slice holding the given category.
func (p *Project) Factors(key string) *[]factor.Factor {
	switch key {
	case factor.Issue:
		return &p.Issues
	case factor.Idea:
		return &p.Ideas
	case factor.Ecology:
		return &p.EcologyFactors
	case factor.SocioCultural:
		return &p.SocioCulturalAspects
	case factor.Economic:
		return &p.EconomicFactors
	case factor.Upgrading:
		return &p.UpgradingApproaches
	case factor.Governance:
		return &p.GovernanceTypes
	}
	panic(fmt.Sprintf("project: unknown factor category %q", key))
}

// NearbyProject is a radius-search result.
type NearbyProject struct {
	ID             int             `json:"id"`
	Case           string          `json:"case"`
	Longitude      float64         `json:"longitude"`
	Latitude       float64         `json:"latitude"`
	DistanceMeters float64         `json:"distance_meters"`
	Issues         []factor.Factor `json:"issues"`
	Ideas          []factor.Factor `json:"ideas"`
}

// Criteria narrows a project listing. Every field is optional and set
// fields combine with AND.
type Criteria struct {
	CaseName string
	// Factors maps a category key to one factor name.
	Factors   map[string]string
	Latitude  *float64
	Longitude *float64
	RadiusKM  *float64
}

// GeoFilter is a center point and radius.
type GeoFilter struct {
	Latitude  float64
	Longitude float64
	RadiusKM  float64
}

// Geo returns the geographic filter. Partial input yields ok=false.
// Validate rejects out-of-range geographic fields. Fields left nil pass.
func (c Criteria) Validate() error {
	var bad []string
	if c.Latitude != nil && !within(*c.Latitude, -90, 90) {
		bad = append(bad, "latitude")
	}
	if c.Longitude != nil && !within(*c.Longitude, -180, 180) {
		bad = append(bad, "longitude")
	}
	if c.RadiusKM != nil && !within(*c.RadiusKM, math.SmallestNonzeroFloat64, math.MaxFloat64) {
		bad = append(bad, "radius_km")
	}
	if len(bad) > 0 {
		return &ValidationError{Fields: bad, Reason: "geographic filter out of range"}
	}
	return nil
}

// within is false for NaN.
func within(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

func (c Criteria) Geo() (GeoFilter, bool) {
	if c.Latitude == nil || c.Longitude == nil || c.RadiusKM == nil {
		return GeoFilter{}, false
	}
	return GeoFilter{Latitude: *c.Latitude, Longitude: *c.Longitude, RadiusKM: *c.RadiusKM}, true
}

func (g GeoFilter) predicate() (string, []any) {
	return `ST_DWithin(p.location, ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography, ?)`,
		[]any{g.Longitude, g.Latitude, g.RadiusKM * 1000}
}

// CreateInput is a new project submission. Names maps a category key to
// the factor names to attach.
type CreateInput struct {
	CaseName  string
	Latitude  *float64
	Longitude *float64
	Names     map[string][]string
}

// Created is returned after a successful insert.
type Created struct {
	ID        int       `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidationError reports rejected input.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Reason
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Fields)
}
