package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/2400030292/MedGuard-AI/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// Truncate empties both record tables.
func Truncate(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	if _, err := pool.Exec(context.Background(), `TRUNCATE activity_log, quarantine_entries`); err != nil {
		t.Fatalf("testhelper: truncate: %v", err)
	}
}

// SeedActivity inserts one Doc Verify entry and returns it.
func SeedActivity(t *testing.T, pool *pgxpool.Pool) domain.AuditLogEntry {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	e := domain.AuditLogEntry{
		ID:         uuid.New(),
		ActorLabel: "Pharmacist",
		ActorRole:  "pharmacy",
		Action:     domain.AuditActionDocVerify,
		BatchRef:   "BATCH-" + uniqueSuffix(),
		Result:     domain.ResultPassed,
		Time:       now.Format(domain.TimeOfDayLayout),
		Device:     domain.DeviceWeb,
		CreatedAt:  now,
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO activity_log (id, actor_label, actor_role, action, batch_ref, result, time_of_day, device, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.ActorLabel, e.ActorRole, string(e.Action), e.BatchRef, e.Result, e.Time, string(e.Device), e.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: seed activity: %v", err)
	}

	return e
}

// SeedQuarantine inserts one pending quarantine entry and returns it.
func SeedQuarantine(t *testing.T, pool *pgxpool.Pool) domain.QuarantineEntry {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	e := domain.QuarantineEntry{
		ID:           uuid.New(),
		BatchRef:     "BATCH-" + uniqueSuffix(),
		ProductLabel: "Amoxicillin 500mg",
		Reason:       domain.ReasonVerificationFailed,
		DateFiled:    now.Format(domain.DateLayout),
		Status:       domain.QuarantineStatusPending,
		Officer:      "Quality Officer",
		CreatedAt:    now,
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO quarantine_entries (id, batch_ref, product_label, reason, date_filed, status, officer, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.BatchRef, e.ProductLabel, e.Reason, e.DateFiled, string(e.Status), e.Officer, e.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: seed quarantine: %v", err)
	}

	return e
}
