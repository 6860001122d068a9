package memstore

import (
	"time"

	"github.com/google/uuid"

	"github.com/2400030292/MedGuard-AI/internal/domain"
)

// ActivityLog is an in-memory activity log.
type ActivityLog struct {
	*Collection[domain.AuditLogEntry]
}

// NewActivityLog creates an empty activity log.
func NewActivityLog(now func() time.Time) *ActivityLog {
	return &ActivityLog{NewCollection(
		func(e domain.AuditLogEntry, id uuid.UUID, at time.Time) domain.AuditLogEntry {
			e.ID, e.CreatedAt = id, at
			return e
		},
		func(e domain.AuditLogEntry) uuid.UUID { return e.ID },
		now,
	)}
}

// QuarantineQueue is an in-memory quarantine queue.
type QuarantineQueue struct {
	*Collection[domain.QuarantineEntry]
}

// NewQuarantineQueue creates an empty quarantine queue.
func NewQuarantineQueue(now func() time.Time) *QuarantineQueue {
	return &QuarantineQueue{NewCollection(
		func(e domain.QuarantineEntry, id uuid.UUID, at time.Time) domain.QuarantineEntry {
			e.ID, e.CreatedAt = id, at
			return e
		},
		func(e domain.QuarantineEntry) uuid.UUID { return e.ID },
		now,
	)}
}
