package disposition

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/2400030292/MedGuard-AI/internal/domain"
)

var _ activityLog = &activityLogMock{}

type activityLogMock struct {
	AppendFunc func(ctx context.Context, e domain.AuditLogEntry) (domain.AuditLogEntry, error)

	calls struct {
		Append []struct {
			Ctx context.Context
			E   domain.AuditLogEntry
		}
	}
	lockAppend sync.RWMutex
}

func (mock *activityLogMock) Append(ctx context.Context, e domain.AuditLogEntry) (domain.AuditLogEntry, error) {
	if mock.AppendFunc == nil {
		panic("activityLogMock.AppendFunc: method is nil but activityLog.Append was just called")
	}
	callInfo := struct {
		Ctx context.Context
		E   domain.AuditLogEntry
	}{Ctx: ctx, E: e}
	mock.lockAppend.Lock()
	mock.calls.Append = append(mock.calls.Append, callInfo)
	mock.lockAppend.Unlock()
	return mock.AppendFunc(ctx, e)
}

func (mock *activityLogMock) AppendCalls() []struct {
	Ctx context.Context
	E   domain.AuditLogEntry
} {
	mock.lockAppend.RLock()
	calls := mock.calls.Append
	mock.lockAppend.RUnlock()
	return calls
}

var _ quarantineQueue = &quarantineQueueMock{}

type quarantineQueueMock struct {
	AppendFunc func(ctx context.Context, e domain.QuarantineEntry) (domain.QuarantineEntry, error)
	DeleteFunc func(ctx context.Context, id uuid.UUID) (domain.QuarantineEntry, error)

	calls struct {
		Append []struct {
			Ctx context.Context
			E   domain.QuarantineEntry
		}
		Delete []struct {
			Ctx context.Context
			ID  uuid.UUID
		}
	}
	lockAppend sync.RWMutex
	lockDelete sync.RWMutex
}

func (mock *quarantineQueueMock) Append(ctx context.Context, e domain.QuarantineEntry) (domain.QuarantineEntry, error) {
	if mock.AppendFunc == nil {
		panic("quarantineQueueMock.AppendFunc: method is nil but quarantineQueue.Append was just called")
	}
	callInfo := struct {
		Ctx context.Context
		E   domain.QuarantineEntry
	}{Ctx: ctx, E: e}
	mock.lockAppend.Lock()
	mock.calls.Append = append(mock.calls.Append, callInfo)
	mock.lockAppend.Unlock()
	return mock.AppendFunc(ctx, e)
}

func (mock *quarantineQueueMock) AppendCalls() []struct {
	Ctx context.Context
	E   domain.QuarantineEntry
} {
	mock.lockAppend.RLock()
	calls := mock.calls.Append
	mock.lockAppend.RUnlock()
	return calls
}

func (mock *quarantineQueueMock) Delete(ctx context.Context, id uuid.UUID) (domain.QuarantineEntry, error) {
	if mock.DeleteFunc == nil {
		panic("quarantineQueueMock.DeleteFunc: method is nil but quarantineQueue.Delete was just called")
	}
	callInfo := struct {
		Ctx context.Context
		ID  uuid.UUID
	}{Ctx: ctx, ID: id}
	mock.lockDelete.Lock()
	mock.calls.Delete = append(mock.calls.Delete, callInfo)
	mock.lockDelete.Unlock()
	return mock.DeleteFunc(ctx, id)
}

func (mock *quarantineQueueMock) DeleteCalls() []struct {
	Ctx context.Context
	ID  uuid.UUID
} {
	mock.lockDelete.RLock()
	calls := mock.calls.Delete
	mock.lockDelete.RUnlock()
	return calls
}

var _ alertSink = &alertSinkMock{}

type alertSinkMock struct {
	PublishFunc func(ctx context.Context, n domain.Notification) error

	calls struct {
		Publish []struct {
			Ctx context.Context
			N   domain.Notification
		}
	}
	lockPublish sync.RWMutex
}

func (mock *alertSinkMock) Publish(ctx context.Context, n domain.Notification) error {
	if mock.PublishFunc == nil {
		panic("alertSinkMock.PublishFunc: method is nil but alertSink.Publish was just called")
	}
	callInfo := struct {
		Ctx context.Context
		N   domain.Notification
	}{Ctx: ctx, N: n}
	mock.lockPublish.Lock()
	mock.calls.Publish = append(mock.calls.Publish, callInfo)
	mock.lockPublish.Unlock()
	return mock.PublishFunc(ctx, n)
}

func (mock *alertSinkMock) PublishCalls() []struct {
	Ctx context.Context
	N   domain.Notification
} {
	mock.lockPublish.RLock()
	calls := mock.calls.Publish
	mock.lockPublish.RUnlock()
	return calls
}
