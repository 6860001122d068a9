// Package quarantine implements the quarantine queue store using PostgreSQL.
package quarantine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/2400030292/MedGuard-AI/internal/adapter/postgres"
	"github.com/2400030292/MedGuard-AI/internal/domain"
)

// Channel is the NOTIFY channel of the table.
const Channel = table

const (
	table  = "quarantine_entries"
	entity = "quarantine_entry"
)

var columns = []string{
	"id", "batch_ref", "product_label", "reason", "date_filed",
	"status", "officer", "created_at",
}

// Repo provides quarantine queue persistence backed by PostgreSQL.
type Repo struct {
	log      *slog.Logger
	pool     *pgxpool.Pool
	listener *postgres.Listener
	now      func() time.Time
}

// New creates a new quarantine repository.
func New(log *slog.Logger, pool *pgxpool.Pool, listener *postgres.Listener, now func() time.Time) *Repo {
	if now == nil {
		now = time.Now
	}
	return &Repo{log: log.With("repo", table), pool: pool, listener: listener, now: now}
}

// Append stamps the entry with a new ID and creation time and inserts it.
// An empty status is filed as Pending.
func (r *Repo) Append(ctx context.Context, e domain.QuarantineEntry) (domain.QuarantineEntry, error) {
	e.ID = uuid.New()
	e.CreatedAt = r.now().UTC().Truncate(time.Microsecond)
	if e.Status == "" {
		e.Status = domain.QuarantineStatusPending
	}

	query, args, err := postgres.Builder.
		Insert(table).
		Columns(columns...).
		Values(e.ID, e.BatchRef, e.ProductLabel, e.Reason, e.DateFiled,
			string(e.Status), e.Officer, e.CreatedAt).
		ToSql()
	if err != nil {
		return domain.QuarantineEntry{}, fmt.Errorf("build insert %s: %w", table, err)
	}

	if _, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, query, args...); err != nil {
		return domain.QuarantineEntry{}, postgres.MapError(err, entity, e.ID)
	}

	return e, nil
}

// List returns every held batch, newest first.
func (r *Repo) List(ctx context.Context) ([]domain.QuarantineEntry, error) {
	query, args, err := postgres.Builder.
		Select(columns...).
		From(table).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select %s: %w", table, err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}

	entries, err := pgx.CollectRows(rows, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", table, err)
	}
	return entries, nil
}

// Delete removes one entry and returns it as it was stored.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) (domain.QuarantineEntry, error) {
	query, args, err := postgres.Builder.
		Delete(table).
		Where("id = ?", id).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return domain.QuarantineEntry{}, fmt.Errorf("build delete %s: %w", table, err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return domain.QuarantineEntry{}, postgres.MapError(err, entity, id)
	}
	e, err := pgx.CollectExactlyOneRow(rows, scanEntry)
	if err != nil {
		return domain.QuarantineEntry{}, postgres.MapError(err, entity, id)
	}
	return e, nil
}

// Clear deletes every entry and returns how many were removed.
func (r *Repo) Clear(ctx context.Context) (int64, error) {
	query, args, err := postgres.Builder.Delete(table).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build clear %s: %w", table, err)
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("clear %s: %w", table, err)
	}
	return tag.RowsAffected(), nil
}

// Observe streams the queue: the current state first, then one snapshot per change.
func (r *Repo) Observe(ctx context.Context) (<-chan domain.LiveSnapshot[domain.QuarantineEntry], error) {
	return postgres.Observe(ctx, r.log, r.listener, Channel, r.List)
}

func scanEntry(row pgx.CollectableRow) (domain.QuarantineEntry, error) {
	var (
		e      domain.QuarantineEntry
		status string
	)
	err := row.Scan(&e.ID, &e.BatchRef, &e.ProductLabel, &e.Reason, &e.DateFiled,
		&status, &e.Officer, &e.CreatedAt)
	e.Status = domain.QuarantineStatus(status)
	return e, err
}
