package postgres_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/2400030292/MedGuard-AI/internal/adapter/postgres"
	"github.com/2400030292/MedGuard-AI/internal/adapter/postgres/activitylog"
	"github.com/2400030292/MedGuard-AI/internal/adapter/postgres/quarantine"
	"github.com/2400030292/MedGuard-AI/internal/adapter/postgres/testhelper"
	"github.com/2400030292/MedGuard-AI/internal/domain"
)

// quarantineExists checks whether a quarantine row with the given ID is visible through q.
func quarantineExists(ctx context.Context, t *testing.T, q postgres.Querier, id uuid.UUID) bool {
	t.Helper()
	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM quarantine_entries WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		t.Fatalf("quarantineExists query: %v", err)
	}
	return exists
}

func filed() domain.QuarantineEntry {
	return domain.QuarantineEntry{
		BatchRef:     "BATCH-TX",
		ProductLabel: "Paracetamol 500mg",
		Reason:       domain.ReasonManualAction,
		DateFiled:    "2026-05-01",
		Officer:      "Head Nurse",
	}
}

func TestRunInTx_Commit(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)
	repo := quarantine.New(slog.Default(), pool, nil, nil)

	var id uuid.UUID
	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		e, err := repo.Append(ctx, filed())
		id = e.ID
		return err
	})
	if err != nil {
		t.Fatalf("RunInTx returned error: %v", err)
	}

	if !quarantineExists(context.Background(), t, pool, id) {
		t.Fatal("expected entry to exist after committed transaction")
	}
}

func TestRunInTx_RollbackOnError(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)
	repo := quarantine.New(slog.Default(), pool, nil, nil)

	var id uuid.UUID
	sentinel := errors.New("disposition failed")

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		e, appendErr := repo.Append(ctx, filed())
		if appendErr != nil {
			t.Fatalf("append inside tx failed: %v", appendErr)
		}
		id = e.ID
		return sentinel
	})

	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got: %v", err)
	}

	if quarantineExists(context.Background(), t, pool, id) {
		t.Fatal("expected entry NOT to exist after rolled-back transaction")
	}
}

func TestRunInTx_RollbackOnPanic(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)
	repo := quarantine.New(slog.Default(), pool, nil, nil)

	var id uuid.UUID

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic to be re-raised")
		}
		if r != "test panic" {
			t.Fatalf("expected panic value %q, got %v", "test panic", r)
		}

		if quarantineExists(context.Background(), t, pool, id) {
			t.Fatal("expected entry NOT to exist after panic-rolled-back transaction")
		}
	}()

	_ = tm.RunInTx(context.Background(), func(ctx context.Context) error {
		e, err := repo.Append(ctx, filed())
		if err != nil {
			t.Fatalf("append inside tx failed: %v", err)
		}
		id = e.ID
		panic("test panic")
	})
}

func TestRunInTx_ClearBothCollections(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)
	logRepo := activitylog.New(slog.Default(), pool, nil, nil)
	queue := quarantine.New(slog.Default(), pool, nil, nil)

	testhelper.SeedActivity(t, pool)
	q := testhelper.SeedQuarantine(t, pool)

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if _, err := logRepo.Clear(ctx); err != nil {
			return err
		}
		// Inside the tx the queue row is still visible until cleared.
		if !quarantineExists(ctx, t, postgres.QuerierFromCtx(ctx, pool), q.ID) {
			t.Fatal("expected seeded entry to be visible within the transaction")
		}
		_, err := queue.Clear(ctx)
		return err
	})
	if err != nil {
		t.Fatalf("RunInTx returned error: %v", err)
	}

	entries, err := logRepo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty activity log, got %d", len(entries))
	}
	if quarantineExists(context.Background(), t, pool, q.ID) {
		t.Fatal("expected quarantine queue to be cleared")
	}
}

func TestRunInTx_NestedJoinsOuter(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)
	repo := quarantine.New(slog.Default(), pool, nil, nil)

	var id uuid.UUID
	sentinel := errors.New("outer failed")

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if err := tm.RunInTx(ctx, func(ctx context.Context) error {
			e, err := repo.Append(ctx, filed())
			id = e.ID
			return err
		}); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("RunInTx error = %v, want %v", err, sentinel)
	}
	if quarantineExists(context.Background(), t, pool, id) {
		t.Fatal("inner write should roll back with the outer transaction")
	}
}
