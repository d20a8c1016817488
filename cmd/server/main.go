package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ubnetdef/injectengine/internal/announce"
	"github.com/ubnetdef/injectengine/internal/config"
	"github.com/ubnetdef/injectengine/internal/db"
	"github.com/ubnetdef/injectengine/internal/redis"
	"github.com/ubnetdef/injectengine/internal/schedule"
)

const competitionStartKey = "competition.start"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer conn.Close()

	if err := db.RunMigrations(ctx, conn, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}

	store := db.NewStore(conn)

	start, err := competitionStart(ctx, cfg, store)
	if err != nil {
		log.Fatal().Err(err).Msg("competition start")
	}

	var counter schedule.SubmissionCounter = store
	if cfg.RedisAddress != "" {
		rdb := redis.NewClient(cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("address", cfg.RedisAddress).Msg("redis unreachable, counts will fall back to the database")
		}
		counter = redis.NewCountCache(rdb, store, redis.DefaultCountTTL)
	}

	resolver, err := schedule.NewResolver(store, counter, schedule.Options{
		CompetitionStart: start,
		Location:         cfg.Location,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("schedule resolver")
	}
	log.Info().Time("competition_start", start).Str("timezone", cfg.Location.String()).Msg("resolver ready")

	if cfg.MQTTBrokerURL != "" {
		publisher, err := announce.NewMQTTPublisher(cfg.MQTTBrokerURL, fmt.Sprintf("injectengine-%d", os.Getpid()))
		if err != nil {
			log.Fatal().Err(err).Msg("mqtt")
		}
		defer publisher.Close()

		announcer := announce.New(resolver, store, publisher)
		if err := announcer.Start(cfg.AnnounceSpec); err != nil {
			log.Fatal().Err(err).Msg("announcer")
		}
		defer announcer.Stop()
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	RegisterRoutes(r, cfg, store, resolver)

	srv := &http.Server{
		Addr:    cfg.ServerAddress,
		Handler: r,
	}
	go func() {
		log.Info().Str("address", cfg.ServerAddress).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// competitionStart prefers the environment and falls back to the config table.
func competitionStart(ctx context.Context, cfg *config.Config, store db.Store) (time.Time, error) {
	if !cfg.CompetitionStart.IsZero() {
		return cfg.CompetitionStart, nil
	}
	raw, ok, err := store.GetConfigValue(ctx, competitionStartKey)
	if err != nil {
		return time.Time{}, fmt.Errorf("read %s: %w", competitionStartKey, err)
	}
	if !ok {
		return time.Time{}, schedule.ErrCompetitionStartMissing
	}
	return config.ParseCompetitionStart(raw)
}
