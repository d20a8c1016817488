package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/ubnetdef/injectengine/internal/model"
)

// GetInjectByID returns nil, sql.ErrNoRows if not found.
func (s *pgStore) GetInjectByID(ctx context.Context, id int) (*model.Inject, error) {
	var in model.Inject
	err := s.db.GetContext(ctx, &in, `
	SELECT id, title, content, sequence, type, max_points
	  FROM injects
	 WHERE id = $1;`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		log.Error().Err(err).Int("inject_id", id).Msg("GetInjectByID failed")
		return nil, err
	}
	return &in, nil
}

// GetInjectsByIDs loads injects keyed by id. Unknown ids are absent from the map.
func (s *pgStore) GetInjectsByIDs(ctx context.Context, ids []int) (map[int]model.Inject, error) {
	out := make(map[int]model.Inject, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	q, args, err := sqlx.In(`
	SELECT id, title, content, sequence, type, max_points
	  FROM injects
	 WHERE id IN (?);`, uniqueInts(ids))
	if err != nil {
		return nil, err
	}

	var rows []model.Inject
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), args...); err != nil {
		log.Error().Err(err).Ints("inject_ids", ids).Msg("GetInjectsByIDs failed")
		return nil, err
	}
	for _, in := range rows {
		out[in.ID] = in
	}
	return out, nil
}

func uniqueInts(in []int) []int {
	seen := make(map[int]struct{}, len(in))
	out := make([]int, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
