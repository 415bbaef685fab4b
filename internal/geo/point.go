package geo

import (
	"encoding/json"
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// SRID is the spatial reference used for every stored location (WGS 84).
const SRID = 4326

// NewPoint builds a WGS 84 point. go-geom orders coordinates x=lng, y=lat.
func NewPoint(lat, lng float64) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{lng, lat}).SetSRID(SRID)
}

// EncodePoint converts a coordinate pair to EWKB bytes with SRID 4326,
// suitable for ST_GeomFromEWKB.
func EncodePoint(lat, lng float64) ([]byte, error) {
	data, err := ewkb.Marshal(NewPoint(lat, lng), ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "geo: encode point")
	}
	return data, nil
}

// PointGeoJSON renders a coordinate pair as a GeoJSON Point geometry.
func PointGeoJSON(lat, lng float64) (json.RawMessage, error) {
	data, err := geojson.Marshal(NewPoint(lat, lng))
	if err != nil {
		return nil, eris.Wrap(err, "geo: marshal geojson point")
	}
	return data, nil
}

// ValidCoordinates reports whether lat/lng are finite and within WGS 84 range.
func ValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
