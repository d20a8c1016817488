package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/ubnetdef/injectengine/internal/model"
)

const scheduleColumns = `id, inject_id, group_id, active, fuzzy, start_ts, end_ts, sort_order`

func (s *pgStore) ListSchedules(ctx context.Context, filter ScheduleFilter) ([]model.Schedule, error) {
	var (
		where []string
		args  []any
	)
	if filter.ID != nil {
		where = append(where, "id = ?")
		args = append(args, *filter.ID)
	}
	if filter.GroupIDs != nil {
		where = append(where, "group_id = ANY(?)")
		args = append(args, pq.Array(toInt64s(filter.GroupIDs)))
	}
	if filter.ActiveOnly {
		where = append(where, "active = TRUE")
	}
	if filter.StartedBy != nil {
		where = append(where, "((fuzzy = FALSE AND start_ts <= ?) OR (fuzzy = TRUE AND start_ts <= ?))")
		args = append(args, *filter.StartedBy, *filter.StartedBy-filter.CompetitionStart)
	}
	if r := filter.EndedWithin; r != nil {
		where = append(where, `end_ts <> 0 AND (
		  (fuzzy = FALSE AND end_ts >= ? AND end_ts < ?) OR
		  (fuzzy = TRUE  AND end_ts >= ? AND end_ts < ?))`)
		cs := filter.CompetitionStart
		args = append(args, r.From, r.To, r.From-cs, r.To-cs)
	}

	q := `SELECT ` + scheduleColumns + ` FROM schedules`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, ` AND `)
	}
	q += ` ORDER BY id;`

	out := []model.Schedule{}
	if err := s.db.SelectContext(ctx, &out, s.db.Rebind(q), args...); err != nil {
		log.Error().Err(err).Ints("groups", filter.GroupIDs).Msg("ListSchedules failed")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) ListScheduleListings(ctx context.Context, activeOnly bool) ([]model.ScheduleListing, error) {
	q := `
	SELECT s.id, s.inject_id, s.group_id, s.active, s.fuzzy, s.start_ts, s.end_ts, s.sort_order,
	       g.name AS group_name, g.team_number AS group_team_number
	  FROM schedules s
	  JOIN groups g ON g.id = s.group_id`
	if activeOnly {
		q += `
	 WHERE s.active = TRUE`
	}
	q += `
	 ORDER BY s.id;`

	out := []model.ScheduleListing{}
	if err := s.db.SelectContext(ctx, &out, q); err != nil {
		log.Error().Err(err).Bool("active_only", activeOnly).Msg("ListScheduleListings failed")
		return nil, err
	}
	return out, nil
}

type boundsRow struct {
	Min sql.NullInt64 `db:"min_ts"`
	Max sql.NullInt64 `db:"max_ts"`
}

// ScheduleBounds returns the earliest absolute start and latest absolute end
// over every schedule. The bool is false when there are no schedules.
func (s *pgStore) ScheduleBounds(ctx context.Context, competitionStart int64) (model.ScheduleBounds, bool, error) {
	const q = `
	SELECT MIN(CASE WHEN fuzzy THEN start_ts + $1 ELSE start_ts END) AS min_ts,
	       MAX(CASE WHEN fuzzy AND end_ts > 0 THEN end_ts + $1 ELSE end_ts END) AS max_ts
	  FROM schedules;`

	var row boundsRow
	if err := s.db.GetContext(ctx, &row, q, competitionStart); err != nil {
		log.Error().Err(err).Msg("ScheduleBounds failed")
		return model.ScheduleBounds{}, false, err
	}
	if !row.Min.Valid || !row.Max.Valid {
		return model.ScheduleBounds{}, false, nil
	}
	return model.ScheduleBounds{Min: row.Min.Int64, Max: row.Max.Int64}, true, nil
}

func (s *pgStore) CreateSchedule(ctx context.Context, in model.Schedule) (model.Schedule, error) {
	const q = `
	INSERT INTO schedules (inject_id, group_id, active, fuzzy, start_ts, end_ts, sort_order)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING ` + scheduleColumns + `;`

	var out model.Schedule
	err := s.db.GetContext(ctx, &out, q, in.InjectID, in.GroupID, in.Active, in.Fuzzy, in.Start, in.End, in.Order)
	if err != nil {
		log.Error().Err(err).Int("inject_id", in.InjectID).Int("group_id", in.GroupID).Msg("CreateSchedule failed")
		return model.Schedule{}, err
	}
	return out, nil
}

// SetScheduleActive toggles the soft-delete flag. Returns ErrNotFound for an unknown id.
func (s *pgStore) SetScheduleActive(ctx context.Context, id int, active bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE schedules SET active = $2 WHERE id = $1;`, id, active)
	if err != nil {
		log.Error().Err(err).Int("schedule_id", id).Msg("SetScheduleActive failed")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func toInt64s(in []int) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}
