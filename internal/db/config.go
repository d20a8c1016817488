package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog/log"
)

// GetConfigValue reads a key from the config table. The bool is false if the key is unset.
func (s *pgStore) GetConfigValue(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM config WHERE key = $1;`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		log.Error().Err(err).Str("key", key).Msg("GetConfigValue failed")
		return "", false, err
	}
	return value, true, nil
}
