package verification

import (
	"context"
	"sync"

	"github.com/2400030292/MedGuard-AI/internal/domain"
	"github.com/2400030292/MedGuard-AI/internal/service/disposition"
)

var _ dispatcher = &dispatcherMock{}

type dispatcherMock struct {
	DispatchFunc func(ctx context.Context, in disposition.Input) disposition.Result

	calls struct {
		Dispatch []struct {
			Ctx context.Context
			In  disposition.Input
		}
	}
	lockDispatch sync.RWMutex
}

func (mock *dispatcherMock) Dispatch(ctx context.Context, in disposition.Input) disposition.Result {
	if mock.DispatchFunc == nil {
		panic("dispatcherMock.DispatchFunc: method is nil but dispatcher.Dispatch was just called")
	}
	callInfo := struct {
		Ctx context.Context
		In  disposition.Input
	}{Ctx: ctx, In: in}
	mock.lockDispatch.Lock()
	mock.calls.Dispatch = append(mock.calls.Dispatch, callInfo)
	mock.lockDispatch.Unlock()
	return mock.DispatchFunc(ctx, in)
}

func (mock *dispatcherMock) DispatchCalls() []struct {
	Ctx context.Context
	In  disposition.Input
} {
	mock.lockDispatch.RLock()
	calls := mock.calls.Dispatch
	mock.lockDispatch.RUnlock()
	return calls
}

var _ passportSource = &passportSourceMock{}

type passportSourceMock struct {
	PassportFunc func(ctx context.Context, batchRef string) (domain.Passport, error)

	calls struct {
		Passport []struct {
			Ctx      context.Context
			BatchRef string
		}
	}
	lockPassport sync.RWMutex
}

func (mock *passportSourceMock) Passport(ctx context.Context, batchRef string) (domain.Passport, error) {
	if mock.PassportFunc == nil {
		panic("passportSourceMock.PassportFunc: method is nil but passportSource.Passport was just called")
	}
	callInfo := struct {
		Ctx      context.Context
		BatchRef string
	}{Ctx: ctx, BatchRef: batchRef}
	mock.lockPassport.Lock()
	mock.calls.Passport = append(mock.calls.Passport, callInfo)
	mock.lockPassport.Unlock()
	return mock.PassportFunc(ctx, batchRef)
}

func (mock *passportSourceMock) PassportCalls() []struct {
	Ctx      context.Context
	BatchRef string
} {
	mock.lockPassport.RLock()
	calls := mock.calls.Passport
	mock.lockPassport.RUnlock()
	return calls
}
