package db

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubnetdef/injectengine/internal/model"
)

var scheduleCols = []string{"id", "inject_id", "group_id", "active", "fuzzy", "start_ts", "end_ts", "sort_order"}

func newMockStore(t *testing.T) (Store, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewStore(sqlx.NewDb(conn, "postgres")), mock
}

func TestListSchedulesBuildsFilter(t *testing.T) {
	store, mock := newMockStore(t)
	id := 7
	now := int64(5000)

	mock.ExpectQuery(`SELECT (.+) FROM schedules WHERE id = \$1 AND group_id = ANY\(\$2\) AND active = TRUE AND \(\(fuzzy = FALSE AND start_ts <= \$3\) OR \(fuzzy = TRUE AND start_ts <= \$4\)\) ORDER BY id`).
		WithArgs(7, sqlmock.AnyArg(), int64(5000), int64(4000)).
		WillReturnRows(sqlmock.NewRows(scheduleCols).
			AddRow(7, 2, 1, true, true, int64(100), int64(0), 3))

	out, err := store.ListSchedules(context.Background(), ScheduleFilter{
		ID:               &id,
		GroupIDs:         []int{1},
		ActiveOnly:       true,
		StartedBy:        &now,
		CompetitionStart: 1000,
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, model.Schedule{ID: 7, InjectID: 2, GroupID: 1, Active: true, Fuzzy: true, Start: 100, Order: 3}, out[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSchedulesEndedWithin(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM schedules WHERE group_id = ANY\(\$1\) AND end_ts <> 0 AND`).
		WithArgs(sqlmock.AnyArg(), int64(4600), int64(10000), int64(3600), int64(9000)).
		WillReturnRows(sqlmock.NewRows(scheduleCols))

	out, err := store.ListSchedules(context.Background(), ScheduleFilter{
		GroupIDs:         []int{1, 2},
		EndedWithin:      &TimeRange{From: 4600, To: 10000},
		CompetitionStart: 1000,
	})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NotNil(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSchedulesPropagatesErrors(t *testing.T) {
	store, mock := newMockStore(t)
	boom := errors.New("connection reset")
	mock.ExpectQuery(`FROM schedules`).WillReturnError(boom)

	_, err := store.ListSchedules(context.Background(), ScheduleFilter{})
	assert.ErrorIs(t, err, boom)
}

func TestListScheduleListingsJoinsGroups(t *testing.T) {
	store, mock := newMockStore(t)
	cols := append(append([]string{}, scheduleCols...), "group_name", "group_team_number")

	mock.ExpectQuery(`FROM schedules s\s+JOIN groups g ON g.id = s.group_id\s+WHERE s.active = TRUE`).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(1, 10, 4, true, false, int64(0), int64(0), 1, "Team 4", 4).
			AddRow(2, 11, 9, true, false, int64(0), int64(0), 1, "White Team", nil))

	out, err := store.ListScheduleListings(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Team 4", out[0].GroupName)
	require.NotNil(t, out[0].GroupTeamNumber)
	assert.Equal(t, 4, *out[0].GroupTeamNumber)
	assert.Nil(t, out[1].GroupTeamNumber)
	assert.Equal(t, 11, out[1].InjectID)
}

func TestScheduleBounds(t *testing.T) {
	t.Run("values", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`SELECT MIN\(`).
			WithArgs(int64(1000)).
			WillReturnRows(sqlmock.NewRows([]string{"min_ts", "max_ts"}).AddRow(int64(1100), int64(9000)))

		b, ok, err := store.ScheduleBounds(context.Background(), 1000)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, model.ScheduleBounds{Min: 1100, Max: 9000}, b)
	})

	t.Run("empty table", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`SELECT MIN\(`).
			WillReturnRows(sqlmock.NewRows([]string{"min_ts", "max_ts"}).AddRow(nil, nil))

		_, ok, err := store.ScheduleBounds(context.Background(), 0)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestCreateSchedule(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`INSERT INTO schedules`).
		WithArgs(3, 1, true, true, int64(60), int64(0), 2).
		WillReturnRows(sqlmock.NewRows(scheduleCols).AddRow(42, 3, 1, true, true, int64(60), int64(0), 2))

	out, err := store.CreateSchedule(context.Background(), model.Schedule{
		InjectID: 3, GroupID: 1, Active: true, Fuzzy: true, Start: 60, Order: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 42, out.ID)
}

func TestSetScheduleActiveUnknownID(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`UPDATE schedules SET active = \$2 WHERE id = \$1`).
		WithArgs(99, false).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.SetScheduleActive(context.Background(), 99, false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetInjectsByIDsDeduplicatesIDs(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`FROM injects\s+WHERE id IN \(\$1, \$2\)`).
		WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "content", "sequence", "type", "max_points"}).
			AddRow(1, "Firewall policy", "", 1, "text", 10).
			AddRow(2, "Password reset", "", 2, "file", 5))

	out, err := store.GetInjectsByIDs(context.Background(), []int{1, 2, 1})
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, model.InjectTypeFile, out[2].Type)
}

func TestCountSubmissions(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\)\s+FROM submissions`).
		WithArgs(5, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := store.CountSubmissions(context.Background(), 5, []int{1})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestGetConfigValueMissingKey(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT value FROM config`).
		WithArgs("competition.start").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	_, ok, err := store.GetConfigValue(context.Background(), "competition.start")
	require.NoError(t, err)
	assert.False(t, ok)
}
