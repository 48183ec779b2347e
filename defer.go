package filterkit

import (
	"context"
	"sync"
)

type releaseScopeKey struct{}

type releaseScope struct {
	mu       sync.Mutex
	funcs    []func()
	released bool
}

func (s *releaseScope) add(fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return false
	}
	s.funcs = append(s.funcs, fn)
	return true
}

func (s *releaseScope) release() {
	s.mu.Lock()
	funcs := s.funcs
	s.funcs, s.released = nil, true
	s.mu.Unlock()
	for i := len(funcs) - 1; i >= 0; i-- {
		funcs[i]()
	}
}

// WithDefer returns a context scoping engine resources to its lifetime.
// Funcs registered through Defer run in reverse order of registration
// once the context is done, by cancel or by its parent.
func WithDefer(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	scope := &releaseScope{}
	context.AfterFunc(ctx, scope.release)
	return context.WithValue(ctx, releaseScopeKey{}, scope), cancel
}

// HasDefer reports whether ctx carries a release scope
func HasDefer(ctx context.Context) bool {
	_, ok := ctx.Value(releaseScopeKey{}).(*releaseScope)
	return ok
}

// Defer registers fn to run when the release scope of ctx ends.
// fn runs immediately if the scope already ended.
// Returns false without calling fn if ctx carries no release scope.
func Defer(ctx context.Context, fn func()) bool {
	scope, ok := ctx.Value(releaseScopeKey{}).(*releaseScope)
	if !ok {
		return false
	}
	if !scope.add(fn) {
		fn()
	}
	return true
}
