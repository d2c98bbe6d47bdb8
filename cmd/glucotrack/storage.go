package main

import (
	"context"
	"fmt"
	"log/slog"

	"glucotrack/internal/adapter/memory"
	"glucotrack/internal/adapter/postgres"
	"glucotrack/internal/adapter/sqlite"
	"glucotrack/internal/config"
	"glucotrack/internal/domain"
)

// repositories is what every storage adapter provides.
type repositories interface {
	domain.UserRepository
	domain.ProfileRepository
	domain.WeightRepository
	domain.GlucoseRepository
}

type storage struct {
	repos    repositories
	sessions domain.SessionRepository
	ping     func(ctx context.Context) error
	close    func() error
}

// openStorage opens the backend selected by cfg.Storage. Relational stores
// are migrated on open.
func openStorage(cfg *config.Config) (*storage, error) {
	switch cfg.Storage {
	case config.StoragePostgres:
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return &storage{repos: db, sessions: postgres.NewSessionRepo(db), ping: db.Ping, close: db.Close}, nil

	case config.StorageSQLite:
		st, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return &storage{repos: st, sessions: sqlite.NewSessionRepo(st), ping: st.Ping, close: st.Close}, nil

	case config.StorageMemory:
		slog.Warn("using in-memory storage; data is lost on restart")
		db := memory.New()
		return &storage{repos: db, sessions: db.NewSessionRepo(), close: func() error { return nil }}, nil

	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
}

func runMigrate(cfg *config.Config) error {
	switch cfg.Storage {
	case config.StoragePostgres:
		slog.Info("running database migrations", slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)))
		if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	case config.StorageSQLite:
		slog.Info("running database migrations", slog.String("path", cfg.SQLitePath))
		st, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		if err := st.Close(); err != nil {
			return err
		}
	default:
		slog.Info("storage has no schema to migrate", slog.String("storage", cfg.Storage))
		return nil
	}

	slog.Info("database migrations completed successfully")
	return nil
}

func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
