package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(context.Background(), filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	return st
}

func TestStore_CreateAssignsIncreasingIDs(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	a, err := st.Create(ctx, Item{"name": "Kayak", "id": 999})
	require.NoError(t, err)
	b, err := st.Create(ctx, Item{"name": "Paddle"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), a.ID(), "client id ignored")
	assert.Equal(t, int64(2), b.ID())
	assert.Equal(t, "Kayak", a["name"])
}

func TestStore_ListAndGet(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	items, err := st.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	_, err = st.Create(ctx, Item{"name": "Kayak", "price": 450.5, "tags": []any{"boat", "river"}})
	require.NoError(t, err)
	_, err = st.Create(ctx, Item{"Case": "Produkt 1"})
	require.NoError(t, err)

	items, err = st.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].ID())
	assert.Equal(t, "Produkt 1", items[1]["Case"])

	got, err := st.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, Item{"id": int64(1), "name": "Kayak", "price": 450.5, "tags": []any{"boat", "river"}}, got)
}

func TestStore_GetMissing(t *testing.T) {
	st := newTestStore(t)

	_, err := st.Get(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestStore_UpdateMergesShallow(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.Create(ctx, Item{
		"name":       "Produkt 2",
		"price":      299.99,
		"properties": map[string]any{"Farbe": "Braun", "Material": "Holz"},
	})
	require.NoError(t, err)

	updated, err := st.Update(ctx, 1, Item{
		"id":         77,
		"price":      249.0,
		"properties": map[string]any{"Farbe": "Weiß"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.ID(), "id is immutable")
	assert.Equal(t, "Produkt 2", updated["name"])
	assert.Equal(t, 249.0, updated["price"])
	// Nested objects are replaced, not merged.
	assert.Equal(t, map[string]any{"Farbe": "Weiß"}, updated["properties"])

	stored, err := st.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, updated, stored)
}

func TestStore_UpdateMissing(t *testing.T) {
	st := newTestStore(t)

	_, err := st.Update(context.Background(), 3, Item{"name": "x"})
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestStore_DeleteReturnsItem(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.Create(ctx, Item{"name": "Kayak"})
	require.NoError(t, err)

	deleted, err := st.Delete(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, Item{"id": int64(1), "name": "Kayak"}, deleted)

	_, err = st.Get(ctx, 1)
	assert.True(t, eris.Is(err, ErrNotFound))

	_, err = st.Delete(ctx, 1)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestStore_IDsNotReusedAfterDelete(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.Create(ctx, Item{"n": 1.0})
	require.NoError(t, err)
	_, err = st.Create(ctx, Item{"n": 2.0})
	require.NoError(t, err)
	_, err = st.Delete(ctx, 2)
	require.NoError(t, err)

	c, err := st.Create(ctx, Item{"n": 3.0})
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.ID())
}

func TestStore_InMemoryDSN(t *testing.T) {
	ctx := context.Background()
	st, err := Open(ctx, "file:catalog_inmemory_test?mode=memory&cache=shared")
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	_, err = st.Create(ctx, Item{"name": "Kayak"})
	require.NoError(t, err)
	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_SeedDemo(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	n, err := st.SeedDemo(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Second run is a no-op.
	n, err = st.SeedDemo(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	items, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Produkt 1", items[0]["Case"])
	assert.Equal(t, 499.99, items[0]["Economic"])
	assert.Equal(t, "Holz", items[1]["properties"].(map[string]any)["Material"])
}
