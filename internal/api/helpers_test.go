package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/restoration-db/internal/catalog"
	"github.com/sells-group/restoration-db/internal/config"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func testAPIConfig() config.APIConfig {
	return config.APIConfig{
		CORSOrigins:         []string{"*"},
		DefaultNearRadiusKM: 10,
		RateBurst:           50,
	}
}

type testEnv struct {
	handler http.Handler
	mock    pgxmock.PgxPoolIface
	catalog *catalog.Store
}

func newTestEnv(t *testing.T, cfg config.APIConfig) *testEnv {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	st, err := catalog.Open(context.Background(), filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck

	return &testEnv{
		handler: NewRouter(Deps{Pool: mock, Catalog: st, Config: cfg}),
		mock:    mock,
		catalog: st,
	}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var out errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
