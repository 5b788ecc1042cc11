package crud

import (
	"context"
	"sync"

	"github.com/crudzilla/crudzilla/internal/security"
)

var _ gate = &gateMock{}

type gateMock struct {
	RequireFunc func(ctx context.Context, key string, op security.Operation) error

	calls struct {
		Require []struct {
			Ctx context.Context
			Key string
			Op  security.Operation
		}
	}
	lockRequire sync.RWMutex
}

func (mock *gateMock) Require(ctx context.Context, key string, op security.Operation) error {
	if mock.RequireFunc == nil {
		panic("gateMock.RequireFunc: method is nil but gate.Require was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Key string
		Op  security.Operation
	}{Ctx: ctx, Key: key, Op: op}
	mock.lockRequire.Lock()
	mock.calls.Require = append(mock.calls.Require, callInfo)
	mock.lockRequire.Unlock()
	return mock.RequireFunc(ctx, key, op)
}

func (mock *gateMock) RequireCalls() []struct {
	Ctx context.Context
	Key string
	Op  security.Operation
} {
	mock.lockRequire.RLock()
	calls := mock.calls.Require
	mock.lockRequire.RUnlock()
	return calls
}
