package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditLogEntry is one immutable row of the activity log.
type AuditLogEntry struct {
	ID         uuid.UUID   `json:"id"`
	ActorLabel string      `json:"user"`
	ActorRole  string      `json:"role"`
	Action     AuditAction `json:"action"`
	BatchRef   string      `json:"batch"`
	Result     string      `json:"result"`
	Time       string      `json:"time"`
	Device     Device      `json:"device"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// QuarantineEntry is one batch held in the quarantine queue.
type QuarantineEntry struct {
	ID           uuid.UUID        `json:"id"`
	BatchRef     string           `json:"batch"`
	ProductLabel string           `json:"name"`
	Reason       string           `json:"reason"`
	DateFiled    string           `json:"date"`
	Status       QuarantineStatus `json:"status"`
	Officer      string           `json:"officer"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// Notification is an operator alert raised by the system.
type Notification struct {
	ID       uuid.UUID        `json:"id"`
	Type     NotificationType `json:"type"`
	Message  string           `json:"msg"`
	Category string           `json:"category"`
	Time     time.Time        `json:"time"`
}

// LiveSnapshot is one observation of a live collection, newest item first.
type LiveSnapshot[T any] struct {
	Items  []T              `json:"items"`
	Status ConnectionStatus `json:"status"`
}

// Display formats for record timestamps.
const (
	TimeOfDayLayout = "15:04"
	DateLayout      = "2006-01-02"
)
