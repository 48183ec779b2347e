package service

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/cshum/filterkit"
	"go.uber.org/zap"
)

// flightKey marks a key as held by the current call chain
type flightKey string

// suppress collapses concurrent calls of the same key into one.
// A call chain re-entering a key it already holds runs fn directly.
// When the leading call is canceled, waiting callers retry on their own context
func (app *Service) suppress(
	ctx context.Context, key string, fn func(ctx context.Context) (*filterkit.Blob, error),
) (*filterkit.Blob, error) {
	if held, _ := ctx.Value(flightKey(key)).(bool); held {
		return fn(ctx)
	}
	app.debug("suppress", zap.String("key", key))
	var selfCanceled atomic.Bool
	ch := app.g.DoChan(key, func() (any, error) {
		blob, err := fn(context.WithValue(ctx, flightKey(key), true))
		if errors.Is(err, context.Canceled) {
			selfCanceled.Store(true)
			app.g.Forget(key)
		}
		return blob, err
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if errors.Is(res.Err, context.Canceled) && !selfCanceled.Load() {
			return app.suppress(ctx, key, fn)
		}
		blob, _ := res.Val.(*filterkit.Blob)
		return blob, res.Err
	}
}
