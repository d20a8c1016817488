package db

import (
	"context"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// CountSubmissions counts the non-deleted submissions made for an inject by
// members of groups.
func (s *pgStore) CountSubmissions(ctx context.Context, injectID int, groups []int) (int, error) {
	const q = `
	SELECT COUNT(*)
	  FROM submissions sub
	  JOIN users u ON u.id = sub.user_id
	 WHERE sub.inject_id = $1
	   AND sub.deleted = FALSE
	   AND u.group_id = ANY($2);`

	var n int
	if err := s.db.GetContext(ctx, &n, q, injectID, pq.Array(toInt64s(groups))); err != nil {
		log.Error().Err(err).Int("inject_id", injectID).Msg("CountSubmissions failed")
		return 0, err
	}
	return n, nil
}
