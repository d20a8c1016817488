package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const (
	maxConnectAttempts = 10
	connectRetryDelay  = 2 * time.Second
)

// Connect opens a PostgreSQL connection, retrying while the database comes up.
func Connect(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	var err error
	for attempt := 1; attempt <= maxConnectAttempts; attempt++ {
		var conn *sqlx.DB
		conn, err = sqlx.ConnectContext(ctx, "postgres", databaseURL)
		if err == nil {
			log.Info().Int("attempt", attempt).Msg("connected to database")
			return conn, nil
		}

		log.Error().Err(err).
			Int("attempt", attempt).
			Msgf("failed to connect to database, retrying in %s", connectRetryDelay)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(connectRetryDelay):
		}
	}

	return nil, fmt.Errorf("could not connect to database after %d attempts: %w", maxConnectAttempts, err)
}

// RunMigrations executes every "*.up.sql" file in migrationsPath in name order.
// "*.down.sql" files are ignored.
func RunMigrations(ctx context.Context, conn *sqlx.DB, migrationsPath string) error {
	files, err := filepath.Glob(filepath.Join(migrationsPath, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("failed to glob migrations: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		stmt, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("could not read migration %q: %w", file, err)
		}
		if len(stmt) == 0 {
			continue
		}
		if _, err := conn.ExecContext(ctx, string(stmt)); err != nil {
			return fmt.Errorf("error executing migration %q: %w", file, err)
		}
		log.Debug().Str("file", filepath.Base(file)).Msg("migration applied")
	}
	return nil
}
