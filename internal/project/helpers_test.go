package project

import (
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return mock
}

func ptr(f float64) *float64 { return &f }

// expandColumns matches the column list of the expansion query.
var expandColumns = []string{
	"id", "case", "st_y", "st_x", "created_at",
	"issues", "ideas", "ecology_factors", "socio_cultural_aspects",
	"economic_factors", "upgrading_approaches", "governance_types",
}
