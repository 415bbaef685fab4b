package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_CRUD(t *testing.T) {
	env := newTestEnv(t, testAPIConfig())

	rec := env.do(t, http.MethodGet, "/api/catalog", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/catalog", `{"name":"Kayak","price":450}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":1,"name":"Kayak","price":450}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/catalog/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"name":"Kayak","price":450}`, rec.Body.String())

	rec = env.do(t, http.MethodPut, "/api/catalog/1", `{"price":399.5,"color":"red","id":5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"name":"Kayak","price":399.5,"color":"red"}`, rec.Body.String())

	rec = env.do(t, http.MethodDelete, "/api/catalog/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"name":"Kayak","price":399.5,"color":"red"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/catalog/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Entry not found", decodeError(t, rec).Error)
}

func TestCatalog_NotFound(t *testing.T) {
	env := newTestEnv(t, testAPIConfig())

	for _, tc := range []struct{ method, target, body string }{
		{http.MethodGet, "/api/catalog/7", ""},
		{http.MethodPut, "/api/catalog/7", `{"a":1}`},
		{http.MethodDelete, "/api/catalog/7", ""},
		{http.MethodGet, "/api/catalog/seven", ""},
	} {
		rec := env.do(t, tc.method, tc.target, tc.body)
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.method+" "+tc.target)
	}
}

func TestCatalog_BadBody(t *testing.T) {
	env := newTestEnv(t, testAPIConfig())

	for _, body := range []string{`[1,2]`, `null`, `{"x":`} {
		rec := env.do(t, http.MethodPost, "/api/catalog", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestCatalog_DemoSeed(t *testing.T) {
	env := newTestEnv(t, testAPIConfig())
	_, err := env.catalog.SeedDemo(t.Context())
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/api/catalog", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var items []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "Produkt 1", items[0]["Case"])
	assert.Equal(t, float64(2), items[1]["id"])
}

func TestCatalog_NotMountedWithoutStore(t *testing.T) {
	h := NewRouter(Deps{Pool: nil, Config: testAPIConfig()})
	rec := (&testEnv{handler: h}).do(t, http.MethodGet, "/api/catalog", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
