package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/ubnetdef/injectengine/internal/model"
)

// GetGroupByID returns nil, sql.ErrNoRows if not found.
func (s *pgStore) GetGroupByID(ctx context.Context, id int) (*model.Group, error) {
	var g model.Group
	err := s.db.GetContext(ctx, &g, `
		SELECT id, name, team_number
		  FROM groups
		 WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		log.Error().Err(err).Int("group_id", id).Msg("GetGroupByID failed")
		return nil, err
	}
	return &g, nil
}

func (s *pgStore) ListGroups(ctx context.Context) ([]model.Group, error) {
	groups := []model.Group{}
	err := s.db.SelectContext(ctx, &groups, `
		SELECT id, name, team_number
		  FROM groups
		 ORDER BY team_number ASC NULLS LAST, name ASC, id ASC`)
	if err != nil {
		log.Error().Err(err).Msg("ListGroups failed")
		return nil, err
	}
	return groups, nil
}
