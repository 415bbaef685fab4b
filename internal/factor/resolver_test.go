package factor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
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

func mustCategory(t *testing.T, key string) Category {
	t.Helper()
	c, ok := ByKey(key)
	require.True(t, ok, key)
	return c
}

func TestResolveID_Found(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT id FROM issues WHERE LOWER\(name\) = LOWER\(\$1\)`).
		WithArgs("flooding").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(4))

	id, found, err := NewResolver(mock).ResolveID(context.Background(), mustCategory(t, Issue), "flooding")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 4, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveID_NotFoundIsAbsence(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT id FROM governance_types`).
		WithArgs("Anarchy").
		WillReturnError(pgx.ErrNoRows)

	id, found, err := NewResolver(mock).ResolveID(context.Background(), mustCategory(t, Governance), "Anarchy")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveID_BlankNameSkipsQuery(t *testing.T) {
	mock := newMock(t)

	_, found, err := NewResolver(mock).ResolveID(context.Background(), mustCategory(t, Idea), "   ")
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveID_DBError(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT id FROM ideas`).
		WithArgs("Remeandering").
		WillReturnError(fmt.Errorf("connection refused"))

	_, _, err := NewResolver(mock).ResolveID(context.Background(), mustCategory(t, Idea), "Remeandering")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `resolve idea "Remeandering"`)
}

func TestResolveIDs_EmptyInput(t *testing.T) {
	mock := newMock(t)
	r := NewResolver(mock)

	ids, err := r.ResolveIDs(context.Background(), mustCategory(t, Issue), nil)
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)

	ids, err = r.ResolveIDs(context.Background(), mustCategory(t, Issue), []string{"", "  "})
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveIDs_DropsUnmatchedKeepsOrder(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`FROM unnest\(\$1::text\[\]\) WITH ORDINALITY AS n\(name, ord\)\s+LEFT JOIN issues f`).
		WithArgs([]string{"Erosion", "Unknown Nonexistent Issue", "flooding"}).
		WillReturnRows(pgxmock.NewRows([]string{"ord", "id"}).
			AddRow(int64(1), 5).
			AddRow(int64(2), 0).
			AddRow(int64(3), 1))

	ids, err := NewResolver(mock).ResolveIDs(context.Background(), mustCategory(t, Issue),
		[]string{"Erosion", " Unknown Nonexistent Issue ", "flooding"})
	require.NoError(t, err)
	assert.Equal(t, []int{5, 1}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveIDs_StrictReportsUnmatched(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`LEFT JOIN ideas f`).
		WithArgs([]string{"Dam Removal", "Teleportation"}).
		WillReturnRows(pgxmock.NewRows([]string{"ord", "id"}).
			AddRow(int64(1), 6).
			AddRow(int64(2), 0))

	ids, err := NewResolver(mock, WithStrict(true)).ResolveIDs(context.Background(), mustCategory(t, Idea),
		[]string{"Dam Removal", "Teleportation"})
	require.Error(t, err)

	var ue *UnresolvedError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, []string{"Teleportation"}, ue.Names[Idea])
	assert.Equal(t, []int{6}, ids)
	assert.Contains(t, err.Error(), "idea: Teleportation")
}

func TestResolveIDs_DBError(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`LEFT JOIN economic_factors f`).
		WithArgs([]string{"Tourism"}).
		WillReturnError(fmt.Errorf("timeout"))

	_, err := NewResolver(mock).ResolveIDs(context.Background(), mustCategory(t, Economic), []string{"Tourism"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve economic names")
}

func TestResolveAll_Concurrent(t *testing.T) {
	mock := newMock(t)
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery(`LEFT JOIN issues f`).
		WithArgs([]string{"Flooding"}).
		WillReturnRows(pgxmock.NewRows([]string{"ord", "id"}).AddRow(int64(1), 1))
	mock.ExpectQuery(`LEFT JOIN ideas f`).
		WithArgs([]string{"Riverside Park", "Nope"}).
		WillReturnRows(pgxmock.NewRows([]string{"ord", "id"}).AddRow(int64(1), 3).AddRow(int64(2), 0))
	mock.ExpectQuery(`LEFT JOIN governance_types f`).
		WithArgs([]string{"Bottom-up"}).
		WillReturnRows(pgxmock.NewRows([]string{"ord", "id"}).AddRow(int64(1), 2))

	out, err := NewResolver(mock).ResolveAll(context.Background(), map[string][]string{
		Issue:      {"Flooding"},
		Idea:       {"Riverside Park", "Nope"},
		Governance: {"Bottom-up"},
	})
	require.NoError(t, err)
	assert.Len(t, out, len(All))
	assert.Equal(t, []int{1}, out[Issue])
	assert.Equal(t, []int{3}, out[Idea])
	assert.Equal(t, []int{2}, out[Governance])
	assert.Equal(t, []int{}, out[Ecology])
	assert.Equal(t, []int{}, out[Upgrading])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveAll_StrictAggregatesUnresolved(t *testing.T) {
	mock := newMock(t)
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery(`LEFT JOIN issues f`).
		WithArgs([]string{"Lava"}).
		WillReturnRows(pgxmock.NewRows([]string{"ord", "id"}).AddRow(int64(1), 0))
	mock.ExpectQuery(`LEFT JOIN ecology_factors f`).
		WithArgs([]string{"Moon Dust"}).
		WillReturnRows(pgxmock.NewRows([]string{"ord", "id"}).AddRow(int64(1), 0))

	_, err := NewResolver(mock, WithStrict(true)).ResolveAll(context.Background(), map[string][]string{
		Issue:   {"Lava"},
		Ecology: {"Moon Dust"},
	})
	var ue *UnresolvedError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, []string{"Lava"}, ue.Names[Issue])
	assert.Equal(t, []string{"Moon Dust"}, ue.Names[Ecology])
	assert.Equal(t, "factor: unknown names (issue: Lava; ecology: Moon Dust)", ue.Error())
}

func TestResolveAll_OneFailureFailsAll(t *testing.T) {
	mock := newMock(t)
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery(`LEFT JOIN issues f`).
		WithArgs([]string{"Flooding"}).
		WillReturnRows(pgxmock.NewRows([]string{"ord", "id"}).AddRow(int64(1), 1))
	mock.ExpectQuery(`LEFT JOIN ideas f`).
		WithArgs([]string{"Daylighting"}).
		WillReturnError(fmt.Errorf("connection reset"))

	out, err := NewResolver(mock).ResolveAll(context.Background(), map[string][]string{
		Issue: {"Flooding"},
		Idea:  {"Daylighting"},
	})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Contains(t, err.Error(), "resolve all")
}
