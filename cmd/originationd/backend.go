package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bibbank/loan-origination/internal/domain/port"
	"github.com/bibbank/loan-origination/internal/infrastructure/config"
	pgstore "github.com/bibbank/loan-origination/internal/infrastructure/persistence/postgres"
	"github.com/bibbank/loan-origination/internal/infrastructure/persistence/sqlite"
	"github.com/bibbank/loan-origination/internal/presentation/rest"
	"github.com/bibbank/loan-origination/pkg/events"
	pkgpostgres "github.com/bibbank/loan-origination/pkg/postgres"
)

// backend is the storage the service runs on, whichever driver is chosen.
type backend struct {
	apps      port.ApplicationRepository
	schedules port.ScheduleRepository
	actors    port.ActorDirectory
	outbox    events.OutboxStore
	ready     rest.ReadinessCheck
	close     func()
}

func openBackend(ctx context.Context, cfg config.Config, logger *slog.Logger) (backend, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return backend{}, fmt.Errorf("open sqlite: %w", err)
		}
		logger.Info("using sqlite storage", "path", cfg.Storage.SQLitePath)
		return backend{
			apps:      store.Applications(),
			schedules: store.Schedules(),
			actors:    store.Actors(),
			outbox:    store.Outbox(),
			ready:     store.HealthCheck,
			close:     func() { _ = store.Close() },
		}, nil

	default:
		dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
		defer dbCancel()

		pool, err := pkgpostgres.NewPool(dbCtx, cfg.Storage.Postgres)
		if err != nil {
			return backend{}, fmt.Errorf("connect to database: %w", err)
		}
		logger.Info("connected to database", "host", cfg.Storage.Postgres.Host, "database", cfg.Storage.Postgres.Database)

		if err := pkgpostgres.RunMigrations(cfg.Storage.Postgres.DSN(), pgstore.Migrations, pgstore.MigrationsDir); err != nil {
			pool.Close()
			return backend{}, fmt.Errorf("run migrations: %w", err)
		}

		return backend{
			apps:      pgstore.NewApplicationRepo(pool),
			schedules: pgstore.NewScheduleRepo(pool),
			actors:    pgstore.NewActorRepo(pool),
			outbox:    pgstore.NewOutboxRepo(pool),
			ready: func(ctx context.Context) error {
				return pkgpostgres.HealthCheck(ctx, pool)
			},
			close: pool.Close,
		}, nil
	}
}
