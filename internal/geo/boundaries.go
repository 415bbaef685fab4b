package geo

import (
	"archive/zip"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/restoration-db/internal/resilience"
)

// DefaultNameField is the attribute read for country labels. Natural Earth
// admin-0 files carry it as NAME.
const DefaultNameField = "NAME"

var world = box(-90, 90, -180, 180)

var active atomic.Pointer[Classifier]

func init() {
	active.Store(NewClassifier(DefaultRules))
}

// SetDefault replaces the classifier used by Classify and ContinentOf.
// A nil classifier restores DefaultRules.
func SetDefault(c *Classifier) {
	if c == nil {
		c = NewClassifier(DefaultRules)
	}
	active.Store(c)
}

// LoadBoundaries builds a classifier from a polygon shapefile. source may be
// a .shp path, a .zip holding one, or an http(s) URL to a .zip. Each record
// contributes its bounding box to the country named by nameField; records
// sharing a name are merged. Records are matched in file order.
func LoadBoundaries(ctx context.Context, client *http.Client, source, nameField string) (*Classifier, error) {
	if nameField == "" {
		nameField = DefaultNameField
	}
	log := zap.L().With(zap.String("component", "geo.boundaries"))

	tempDir, err := os.MkdirTemp("", "boundaries-*")
	if err != nil {
		return nil, eris.Wrap(err, "geo: create temp dir")
	}
	defer os.RemoveAll(tempDir) //nolint:errcheck

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		if client == nil {
			client = http.DefaultClient
		}
		zipPath := filepath.Join(tempDir, "boundaries.zip")
		log.Info("downloading boundaries", zap.String("url", source))
		policy := resilience.DefaultPolicy()
		policy.OnRetry = resilience.LogRetry("download boundaries")
		err := resilience.Do(ctx, policy, func(ctx context.Context) error {
			return downloadFile(ctx, client, source, zipPath)
		})
		if err != nil {
			return nil, eris.Wrap(err, "geo: download boundaries")
		}
		source = zipPath
	}

	shpPath := source
	if strings.EqualFold(filepath.Ext(source), ".zip") {
		extractDir := filepath.Join(tempDir, "shp")
		if err := os.MkdirAll(extractDir, 0o755); err != nil {
			return nil, eris.Wrap(err, "geo: create extract dir")
		}
		if err := extractZIP(source, extractDir); err != nil {
			return nil, eris.Wrap(err, "geo: extract boundaries ZIP")
		}
		shpPath, err = findFileByExt(extractDir, ".shp")
		if err != nil {
			return nil, eris.Wrap(err, "geo: find .shp file")
		}
	}

	countries, err := readCountries(shpPath, nameField)
	if err != nil {
		return nil, err
	}

	log.Info("boundaries loaded", zap.Int("countries", len(countries)))
	return NewClassifier([]Continent{{Name: "World", Box: world, Countries: countries}}), nil
}

func readCountries(shpPath, nameField string) ([]Country, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrap(err, "geo: open shapefile")
	}
	defer func() { _ = reader.Close() }()

	nameIdx := fieldIndex(reader, nameField)
	if nameIdx < 0 {
		return nil, eris.Errorf("geo: shapefile field %s not found", nameField)
	}

	var countries []Country
	byName := make(map[string]int)
	for reader.Next() {
		_, shape := reader.Shape()
		if shape == nil {
			continue
		}
		name := strings.TrimSpace(strings.TrimRight(reader.Attribute(nameIdx), "\x00"))
		if name == "" {
			continue
		}

		boxes := partBoxes(shape)
		if i, ok := byName[name]; ok {
			countries[i].Boxes = append(countries[i].Boxes, boxes...)
			continue
		}
		byName[name] = len(countries)
		countries = append(countries, country(name, boxes...))
	}
	if len(countries) == 0 {
		return nil, eris.New("geo: shapefile has no named records")
	}
	return countries, nil
}

// partBoxes returns one box per polygon part. A single record box would
// span the whole globe for countries split by the antimeridian.
func partBoxes(shape shp.Shape) []Box {
	var parts []int32
	var points []shp.Point
	switch s := shape.(type) {
	case *shp.Polygon:
		parts, points = s.Parts, s.Points
	case *shp.PolyLine:
		parts, points = s.Parts, s.Points
	default:
		bb := shape.BBox()
		return []Box{box(bb.MinY, bb.MaxY, bb.MinX, bb.MaxX)}
	}

	boxes := make([]Box, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start >= end || end > int32(len(points)) {
			continue
		}
		bb := shp.BBoxFromPoints(points[start:end])
		boxes = append(boxes, box(bb.MinY, bb.MaxY, bb.MinX, bb.MaxX))
	}
	return boxes
}

// downloadFile downloads a URL to a local file.
func downloadFile(ctx context.Context, client *http.Client, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return eris.Wrap(err, "build request")
	}

	resp, err := client.Do(req)
	if err != nil {
		return eris.Wrap(err, "download")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("download returned status %d", resp.StatusCode)
		if resilience.IsTransientStatus(resp.StatusCode) {
			return resilience.Transient(err, resp.StatusCode)
		}
		return err
	}

	f, err := os.Create(dest)
	if err != nil {
		return eris.Wrap(err, "create file")
	}
	defer f.Close() //nolint:errcheck

	if _, err := io.Copy(f, resp.Body); err != nil {
		return eris.Wrap(err, "write file")
	}
	return nil
}

// extractZIP flattens a ZIP archive into destDir.
func extractZIP(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return eris.Wrap(err, "open zip")
	}
	defer r.Close() //nolint:errcheck

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		destPath := filepath.Join(destDir, filepath.Base(f.Name))
		if err := extractEntry(f, destPath); err != nil {
			return err
		}
	}
	return nil
}

func extractEntry(f *zip.File, destPath string) error {
	rc, err := f.Open()
	if err != nil {
		return eris.Wrapf(err, "open zip entry %s", f.Name)
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(destPath)
	if err != nil {
		return eris.Wrapf(err, "create %s", destPath)
	}
	defer out.Close() //nolint:errcheck

	if _, err := io.Copy(out, rc); err != nil {
		return eris.Wrapf(err, "extract %s", f.Name)
	}
	return nil
}

// findFileByExt finds the first file with the given extension in a directory.
func findFileByExt(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", eris.Wrap(err, "read directory")
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ext) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", eris.Errorf("no %s file found in %s", ext, dir)
}

// fieldIndex returns the index of a named field in the shapefile, or -1.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}
