package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/2400030292/MedGuard-AI/internal/adapter/memstore"
	"github.com/2400030292/MedGuard-AI/internal/adapter/postgres"
	"github.com/2400030292/MedGuard-AI/internal/adapter/postgres/activitylog"
	"github.com/2400030292/MedGuard-AI/internal/adapter/postgres/quarantine"
	"github.com/2400030292/MedGuard-AI/internal/config"
	"github.com/2400030292/MedGuard-AI/internal/domain"
	"github.com/2400030292/MedGuard-AI/migrations"
)

type activityStore interface {
	Append(ctx context.Context, e domain.AuditLogEntry) (domain.AuditLogEntry, error)
	List(ctx context.Context) ([]domain.AuditLogEntry, error)
	Observe(ctx context.Context) (<-chan domain.LiveSnapshot[domain.AuditLogEntry], error)
}

type quarantineStore interface {
	Append(ctx context.Context, e domain.QuarantineEntry) (domain.QuarantineEntry, error)
	Delete(ctx context.Context, id uuid.UUID) (domain.QuarantineEntry, error)
	List(ctx context.Context) ([]domain.QuarantineEntry, error)
	Observe(ctx context.Context) (<-chan domain.LiveSnapshot[domain.QuarantineEntry], error)
}

// stores are the two shared collections plus the pool and listener behind
// them, if any.
type stores struct {
	activity   activityStore
	quarantine quarantineStore
	pool       *pgxpool.Pool
	listener   *postgres.Listener
}

func (s stores) Close() {
	if s.listener != nil {
		s.listener.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

// openStores picks PostgreSQL when a DSN is configured and the in-memory
// store otherwise.
func openStores(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger, now func() time.Time) (stores, error) {
	if cfg.InMemory() {
		logger.Warn("no database configured, records are kept in memory")
		return stores{
			activity:   memstore.NewActivityLog(now),
			quarantine: memstore.NewQuarantineQueue(now),
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return stores{}, err
	}

	if cfg.AutoMigrate {
		if err := migrate(ctx, pool); err != nil {
			pool.Close()
			return stores{}, err
		}
	}

	listener := postgres.NewListener(logger, pool, activitylog.Channel, quarantine.Channel)

	return stores{
		activity:   activitylog.New(logger, pool, listener, now),
		quarantine: quarantine.New(logger, pool, listener, now),
		pool:       pool,
		listener:   listener,
	}, nil
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := migrations.Up(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
