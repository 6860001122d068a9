package rest

import (
	"context"
	"sync"

	"github.com/2400030292/MedGuard-AI/internal/service/auth"
)

var _ authService = &authServiceMock{}

type authServiceMock struct {
	LoginFunc func(ctx context.Context, input auth.LoginInput) (*auth.LoginResult, error)
	RolesFunc func() []auth.Role

	calls struct {
		Login []struct {
			Ctx   context.Context
			Input auth.LoginInput
		}
		Roles []struct{}
	}
	lockLogin sync.RWMutex
	lockRoles sync.RWMutex
}

func (mock *authServiceMock) Login(ctx context.Context, input auth.LoginInput) (*auth.LoginResult, error) {
	if mock.LoginFunc == nil {
		panic("authServiceMock.LoginFunc: method is nil but authService.Login was just called")
	}
	callInfo := struct {
		Ctx   context.Context
		Input auth.LoginInput
	}{Ctx: ctx, Input: input}
	mock.lockLogin.Lock()
	mock.calls.Login = append(mock.calls.Login, callInfo)
	mock.lockLogin.Unlock()
	return mock.LoginFunc(ctx, input)
}

func (mock *authServiceMock) LoginCalls() []struct {
	Ctx   context.Context
	Input auth.LoginInput
} {
	mock.lockLogin.RLock()
	calls := mock.calls.Login
	mock.lockLogin.RUnlock()
	return calls
}

func (mock *authServiceMock) Roles() []auth.Role {
	if mock.RolesFunc == nil {
		panic("authServiceMock.RolesFunc: method is nil but authService.Roles was just called")
	}
	mock.lockRoles.Lock()
	mock.calls.Roles = append(mock.calls.Roles, struct{}{})
	mock.lockRoles.Unlock()
	return mock.RolesFunc()
}

func (mock *authServiceMock) RolesCalls() []struct{} {
	mock.lockRoles.RLock()
	calls := mock.calls.Roles
	mock.lockRoles.RUnlock()
	return calls
}
