package service

import (
	"time"

	"github.com/cshum/filterkit/filterpath"
	"go.uber.org/zap"
)

// Option Service option
type Option func(app *Service)

// WithLogger with logger option
func WithLogger(logger *zap.Logger) Option {
	return func(app *Service) {
		if logger != nil {
			app.Logger = logger
		}
	}
}

// WithLoaders with loaders option
func WithLoaders(loaders ...Loader) Option {
	return func(app *Service) {
		for _, loader := range loaders {
			if loader != nil {
				app.Loaders = append(app.Loaders, loader)
			}
		}
	}
}

// WithStorages with storages option
func WithStorages(storages ...Storage) Option {
	return func(app *Service) {
		for _, storage := range storages {
			if storage != nil {
				app.Storages = append(app.Storages, storage)
			}
		}
	}
}

// WithResultStorages with result storages option
func WithResultStorages(storages ...Storage) Option {
	return func(app *Service) {
		for _, storage := range storages {
			if storage != nil {
				app.ResultStorages = append(app.ResultStorages, storage)
			}
		}
	}
}

// WithProcessors with processors option, tried in order
func WithProcessors(processors ...Processor) Option {
	return func(app *Service) {
		for _, processor := range processors {
			if processor != nil {
				app.Processors = append(app.Processors, processor)
			}
		}
	}
}

// WithFilter registers an additional URL filter
func WithFilter(name string, fn FilterFunc) Option {
	return func(app *Service) {
		if app.Filters == nil {
			app.Filters = FilterMap{}
		}
		app.Filters[name] = fn
	}
}

// WithDisableFilters disables URL filters by name
func WithDisableFilters(names ...string) Option {
	return func(app *Service) {
		app.DisableFilters = append(app.DisableFilters, names...)
	}
}

// WithMaxFilterOps maximum number of filters applied per request, the rest are skipped
func WithMaxFilterOps(num int) Option {
	return func(app *Service) {
		if num != 0 {
			app.MaxFilterOps = num
		}
	}
}

// WithRequestTimeout with request timeout option
func WithRequestTimeout(timeout time.Duration) Option {
	return func(app *Service) {
		if timeout > 0 {
			app.RequestTimeout = timeout
		}
	}
}

// WithLoadTimeout with load timeout option for loaders and storages
func WithLoadTimeout(timeout time.Duration) Option {
	return func(app *Service) {
		if timeout > 0 {
			app.LoadTimeout = timeout
		}
	}
}

// WithSaveTimeout with save timeout option for storages
func WithSaveTimeout(timeout time.Duration) Option {
	return func(app *Service) {
		if timeout > 0 {
			app.SaveTimeout = timeout
		}
	}
}

// WithProcessTimeout with process timeout option
func WithProcessTimeout(timeout time.Duration) Option {
	return func(app *Service) {
		if timeout > 0 {
			app.ProcessTimeout = timeout
		}
	}
}

// WithProcessConcurrency with process concurrency option
func WithProcessConcurrency(concurrency int64) Option {
	return func(app *Service) {
		if concurrency > 0 {
			app.ProcessConcurrency = concurrency
		}
	}
}

// WithCacheHeaderTTL with browser cache header ttl option
func WithCacheHeaderTTL(ttl time.Duration) Option {
	return func(app *Service) {
		if ttl >= 0 {
			app.CacheHeaderTTL = ttl
		}
	}
}

// WithCacheHeaderSWR with cache header stale-while-revalidate option
func WithCacheHeaderSWR(swr time.Duration) Option {
	return func(app *Service) {
		if swr > 0 {
			app.CacheHeaderSWR = swr
		}
	}
}

// WithCacheHeaderNoCache with cache header no-cache option
func WithCacheHeaderNoCache(nocache bool) Option {
	return func(app *Service) {
		if nocache {
			app.CacheHeaderTTL = 0
		}
	}
}

// WithUnsafe with unsafe option
func WithUnsafe(unsafe bool) Option {
	return func(app *Service) {
		app.Unsafe = unsafe
	}
}

// WithSigner with URL signer option
func WithSigner(signer filterpath.Signer) Option {
	return func(app *Service) {
		if signer != nil {
			app.Signer = signer
		}
	}
}

// WithStorageHasher with storage key hasher option
func WithStorageHasher(hasher filterpath.StorageHasher) Option {
	return func(app *Service) {
		if hasher != nil {
			app.StorageHasher = hasher
		}
	}
}

// WithResultStorageHasher with result storage key hasher option
func WithResultStorageHasher(hasher filterpath.ResultStorageHasher) Option {
	return func(app *Service) {
		if hasher != nil {
			app.ResultStorageHasher = hasher
		}
	}
}

// WithBasePathRedirect with base path redirect option
func WithBasePathRedirect(url string) Option {
	return func(app *Service) {
		app.BasePathRedirect = url
	}
}

// WithBaseParams with base params option, prepended to every request path
func WithBaseParams(params string) Option {
	return func(app *Service) {
		app.BaseParams = params
	}
}

// WithModifiedTimeCheck with modified time check option
func WithModifiedTimeCheck(enabled bool) Option {
	return func(app *Service) {
		app.ModifiedTimeCheck = enabled
	}
}

// WithDisableErrorBody with disable error body option
func WithDisableErrorBody(disabled bool) Option {
	return func(app *Service) {
		app.DisableErrorBody = disabled
	}
}

// WithDisableParamsEndpoint with disable params endpoint option
func WithDisableParamsEndpoint(disabled bool) Option {
	return func(app *Service) {
		app.DisableParamsEndpoint = disabled
	}
}

// WithMetrics with filter metrics option
func WithMetrics(metrics Metrics) Option {
	return func(app *Service) {
		app.Metrics = metrics
	}
}

// WithDebug with debug option
func WithDebug(debug bool) Option {
	return func(app *Service) {
		app.Debug = debug
	}
}
