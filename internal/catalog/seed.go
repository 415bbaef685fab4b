package catalog

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DemoItems are the sample entries a fresh catalog starts with.
func DemoItems() []Item {
	return []Item{
		{
			"Case":     "Produkt 1",
			"Issue":    "Elektronik",
			"Economic": 499.99,
			"Socio":    "Ein tolles elektronisches Gerät",
			"Ecologic": "Dies ist eine ausführliche Beschreibung des Produkts mit allen Details.",
		},
		{
			"name":             "Produkt 2",
			"category":         "Möbel",
			"price":            299.99,
			"shortDescription": "Ein bequemes Möbelstück",
			"description":      "Detaillierte Beschreibung des Möbelstücks.",
			"imageUrl":         "/images/product2.jpg",
			"properties": map[string]any{
				"Material": "Holz",
				"Farbe":    "Braun",
				"Maße":     "120 x 80 x 75 cm",
			},
		},
	}
}

// SeedDemo inserts DemoItems into an empty catalog. A catalog that already
// holds items is left alone.
func (s *Store) SeedDemo(ctx context.Context) (int, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	items := DemoItems()
	for _, it := range items {
		if _, err := s.Create(ctx, it); err != nil {
			return 0, eris.Wrap(err, "catalog: seed demo")
		}
	}
	zap.L().Info("seeded demo catalog", zap.Int("items", len(items)))
	return len(items), nil
}
