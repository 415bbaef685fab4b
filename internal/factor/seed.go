package factor

import (
	"bytes"
	"context"
	_ "embed"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/restoration-db/internal/db"
)

//go:embed seeds/factors.yaml
var defaultSeed []byte

// SeedFile is reference data keyed by category table name.
type SeedFile map[string][]Factor

// DefaultSeed returns the built-in reference data.
func DefaultSeed() (SeedFile, error) {
	return ParseSeed(bytes.NewReader(defaultSeed))
}

// LoadSeedFile reads and validates a YAML seed file from disk.
func LoadSeedFile(path string) (SeedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "factor: open seed file %s", path)
	}
	defer f.Close() //nolint:errcheck
	return ParseSeed(f)
}

// ParseSeed decodes and validates YAML seed data.
func ParseSeed(r io.Reader) (SeedFile, error) {
	var sf SeedFile
	if err := yaml.NewDecoder(r).Decode(&sf); err != nil {
		return nil, eris.Wrap(err, "factor: decode seed")
	}
	if err := sf.Validate(); err != nil {
		return nil, err
	}
	return sf, nil
}

// Validate rejects unknown tables, blank names, and names that collide once
// case is folded. Resolution is case-insensitive, so "Flooding" and
// "flooding" in one category would make lookups ambiguous.
func (sf SeedFile) Validate() error {
	fold := cases.Fold()
	for table, factors := range sf {
		if _, ok := ByTable(table); !ok {
			return eris.Errorf("factor: seed: unknown category table %q", table)
		}
		seen := make(map[string]string, len(factors))
		for i, f := range factors {
			name := strings.TrimSpace(f.Name)
			if name == "" {
				return eris.Errorf("factor: seed: %s entry %d has no name", table, i)
			}
			key := fold.String(name)
			if prev, dup := seen[key]; dup {
				return eris.Errorf("factor: seed: %s has duplicate names %q and %q", table, prev, name)
			}
			seen[key] = name
		}
	}
	return nil
}

// Len returns the number of factors across all categories.
func (sf SeedFile) Len() int {
	n := 0
	for _, factors := range sf {
		n += len(factors)
	}
	return n
}

// Seed upserts the reference data, one category at a time. Existing rows
// keep their IDs; only descriptions are updated.
func Seed(ctx context.Context, pool db.Pool, sf SeedFile) (int64, error) {
	log := zap.L().With(zap.String("component", "factor.seed"))

	var total int64
	for _, cat := range All {
		factors := sf[cat.Table]
		if len(factors) == 0 {
			continue
		}

		rows := make([][]any, 0, len(factors))
		for _, f := range factors {
			rows = append(rows, []any{strings.TrimSpace(f.Name), strings.TrimSpace(f.Description)})
		}

		n, err := db.BulkUpsert(ctx, pool, db.UpsertConfig{
			Table:        cat.Table,
			Columns:      []string{"name", "description"},
			ConflictKeys: []string{"name"},
		}, rows)
		if err != nil {
			return total, eris.Wrapf(err, "factor: seed %s", cat.Table)
		}
		log.Info("seeded factors", zap.String("table", cat.Table), zap.Int64("rows", n))
		total += n
	}
	return total, nil
}
