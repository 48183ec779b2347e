// Package service serves filter chains over HTTP.
//
// A request path names a source image and a chain of URL filters, see
// package filterpath. The source is fetched through loaders and storages,
// the chain runs on the first processor supporting every filter in it,
// and the encoded result is cached in result storages.
package service

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/cshum/filterkit"
	"github.com/cshum/filterkit/filterpath"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// Loader load image from source
type Loader interface {
	Get(r *http.Request, key string) (*filterkit.Blob, error)
}

// Storage load and save image
type Storage interface {
	Get(r *http.Request, key string) (*filterkit.Blob, error)
	Put(ctx context.Context, key string, blob *filterkit.Blob) error
	Delete(ctx context.Context, key string) error
	Stat(ctx context.Context, key string) (*filterkit.Stat, error)
}

// Processor decodes, filters through its engine and encodes images
type Processor interface {
	Startup(ctx context.Context) error
	Shutdown(ctx context.Context) error
	filterkit.Decoder
	filterkit.Encoder
}

// Metrics filter application observer
type Metrics interface {
	ObserveFilter(name string, d time.Duration, err error)
}

// LoadFunc loads blob by key through loaders and storages
type LoadFunc func(key string) (*filterkit.Blob, error)

// Service filter HTTP handler
type Service struct {
	Unsafe                bool
	Signer                filterpath.Signer
	StorageHasher         filterpath.StorageHasher
	ResultStorageHasher   filterpath.ResultStorageHasher
	BasePathRedirect      string
	Loaders               []Loader
	Storages              []Storage
	ResultStorages        []Storage
	Processors            []Processor
	Filters               FilterMap
	DisableFilters        []string
	MaxFilterOps          int
	RequestTimeout        time.Duration
	LoadTimeout           time.Duration
	SaveTimeout           time.Duration
	ProcessTimeout        time.Duration
	CacheHeaderTTL        time.Duration
	CacheHeaderSWR        time.Duration
	ProcessConcurrency    int64
	ModifiedTimeCheck     bool
	DisableErrorBody      bool
	DisableParamsEndpoint bool
	BaseParams            string
	Metrics               Metrics
	Logger                *zap.Logger
	Debug                 bool

	g             singleflight.Group
	sema          *semaphore.Weighted
	baseParams    filterpath.Params
	resultLoaders []Loader
}

// New create new Service
func New(options ...Option) *Service {
	app := &Service{
		Logger:         zap.NewNop(),
		Filters:        DefaultFilters(),
		MaxFilterOps:   -1,
		RequestTimeout: time.Second * 30,
		LoadTimeout:    time.Second * 20,
		SaveTimeout:    time.Second * 20,
		ProcessTimeout: time.Second * 20,
		CacheHeaderTTL: time.Hour * 24 * 7,
		CacheHeaderSWR: time.Hour * 24,
	}
	for _, option := range options {
		option(app)
	}
	for _, name := range app.DisableFilters {
		delete(app.Filters, name)
	}
	if app.ProcessConcurrency > 0 {
		app.sema = semaphore.NewWeighted(app.ProcessConcurrency)
	}
	if app.Signer == nil {
		app.Signer = filterpath.NewDefaultSigner("")
	}
	app.resultLoaders = loaderSlice(app.ResultStorages)
	app.Loaders = append(loaderSlice(app.Storages), app.Loaders...)
	if app.BaseParams != "" {
		app.baseParams = filterpath.Parse(strings.TrimSuffix(app.BaseParams, "/") + "/")
	}
	if app.Debug {
		app.debugLog()
	}
	return app
}


// Startup starts every processor in order, stopping at the first error
func (app *Service) Startup(ctx context.Context) error {
	for _, processor := range app.Processors {
		if err := processor.Startup(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Shutdown shuts down every processor in order, stopping at the first error
func (app *Service) Shutdown(ctx context.Context) error {
	for _, processor := range app.Processors {
		if err := processor.Shutdown(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Do executes the filter chain of p
func (app *Service) Do(r *http.Request, p filterpath.Params) (*filterkit.Blob, error) {
	ctx := r.Context()
	if app.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, app.RequestTimeout)
		defer cancel()
	}
	// engine images registered on the defer context are released on return
	ctx, release := filterkit.WithDefer(ctx)
	defer release()
	if err := app.verify(p); err != nil {
		return nil, err
	}
	resultKey := app.resultKey(p)
	return app.suppress(ctx, "res:"+resultKey, func(ctx context.Context) (*filterkit.Blob, error) {
		blob, err := app.produce(r.WithContext(ctx), p, resultKey)
		if err != nil || filterkit.IsBlobEmpty(blob) {
			return blob, err
		}
		// loaders may read lazily on ctx, which ends once Do returns
		if _, err = blob.ReadAll(); err != nil {
			return nil, err
		}
		return blob, nil
	})
}

func (app *Service) verify(p filterpath.Params) error {
	if app.Signer == nil || (app.Unsafe && p.Unsafe) {
		return nil
	}
	if expected := app.Signer.Sign(p.Path); expected != p.Hash {
		app.debug("sign-mismatch", zap.Any("params", p), zap.String("expected", expected))
		return filterkit.ErrSignatureMismatch
	}
	return nil
}

// produce serves p from result storages if present,
// otherwise loads the source, runs the chain and saves the result
func (app *Service) produce(r *http.Request, p filterpath.Params, resultKey string) (*filterkit.Blob, error) {
	ctx := r.Context()
	if cached := app.loadResult(r, resultKey, p.Image); cached != nil {
		return cached, nil
	}
	if app.sema != nil {
		if err := app.sema.Acquire(ctx, 1); err != nil {
			app.Logger.Debug("acquire", zap.Error(err))
			return nil, err
		}
		defer app.sema.Release(1)
	}
	source, err := app.loadStorage(r, p.Image)
	if err != nil {
		app.Logger.Debug("load", zap.Any("params", p), zap.Error(err))
		return nil, err
	}
	if app.ProcessTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, app.ProcessTimeout)
		defer cancel()
	}
	result, err := app.process(ctx, source, p, func(key string) (*filterkit.Blob, error) {
		return app.loadStorage(r, key)
	})
	if err != nil {
		return nil, err
	}
	if len(app.ResultStorages) > 0 {
		app.save(ctx, nil, app.ResultStorages, resultKey, result)
	}
	return result, nil
}

// process runs the chain on processors in order,
// falling through to the next one on unsupported filters
func (app *Service) process(
	ctx context.Context, blob *filterkit.Blob, p filterpath.Params, load LoadFunc,
) (*filterkit.Blob, error) {
	if len(app.Processors) == 0 {
		// no processors, serve the source as is
		return blob, nil
	}
	chain, options, err := app.parseChain(ctx, p.Filters, load)
	if err != nil {
		return nil, err
	}
	for _, processor := range app.Processors {
		var result *filterkit.Blob
		start := time.Now()
		result, err = app.processWith(ctx, processor, blob, p, chain, options)
		switch {
		case err == nil:
			app.debug("processed",
				zap.String("processor", getType(processor)),
				zap.Any("params", p),
				zap.Duration("took", time.Since(start)))
			return result, nil
		case filterkit.IsPass(err):
			app.debug("pass", zap.String("processor", getType(processor)), zap.Error(err))
		default:
			app.Logger.Warn("process", zap.Any("params", p), zap.Error(err))
			return nil, err
		}
	}
	// every processor passed
	return nil, err
}

func (app *Service) processWith(
	ctx context.Context, processor Processor, blob *filterkit.Blob,
	p filterpath.Params, chain filterkit.Filter, options filterkit.EncodeOptions,
) (*filterkit.Blob, error) {
	img, err := processor.Decode(ctx, blob)
	if err != nil {
		return nil, err
	}
	if img, err = chain(ctx, img); err != nil {
		return nil, err
	}
	if p.Meta {
		return newMeta(processor, img, p, options).Blob()
	}
	return processor.Encode(ctx, img, options)
}

// parseChain builds the filter chain and encode options from URL filters
func (app *Service) parseChain(
	ctx context.Context, filters filterpath.Filters, load LoadFunc,
) (filterkit.Filter, filterkit.EncodeOptions, error) {
	var (
		options filterkit.EncodeOptions
		chained []filterkit.Filter
	)
	for _, f := range filters {
		switch f.Name {
		case filterpath.FilterFormat:
			options.Format = strings.ToLower(strings.TrimSpace(f.Args))
			continue
		case filterpath.FilterQuality:
			options.Quality, _ = strconv.Atoi(strings.TrimSpace(f.Args))
			continue
		}
		if app.MaxFilterOps > 0 && len(chained) >= app.MaxFilterOps {
			app.debug("max-filter-ops", zap.String("filter", f.Name))
			continue
		}
		fn, ok := app.Filters[f.Name]
		if !ok {
			return nil, options, fmt.Errorf("%s: %w", f.Name, filterkit.ErrUnknownFilter)
		}
		filter, err := fn(ctx, load, filterpath.SplitArgs(f.Args)...)
		if err != nil {
			return nil, options, fmt.Errorf("%s(%s): %w", f.Name, f.Args, err)
		}
		chained = append(chained, app.observe(f.Name, filter))
	}
	return filterkit.Chain(chained...), options, nil
}

// observe reports filter duration and outcome to Metrics
func (app *Service) observe(name string, filter filterkit.Filter) filterkit.Filter {
	if app.Metrics == nil {
		return filter
	}
	return func(ctx context.Context, img filterkit.Image) (filterkit.Image, error) {
		start := time.Now()
		out, err := filter(ctx, img)
		app.Metrics.ObserveFilter(name, time.Since(start), err)
		return out, err
	}
}

func (app *Service) resultKey(p filterpath.Params) string {
	switch {
	case app.ResultStorageHasher != nil:
		return app.ResultStorageHasher.HashResult(p)
	case p.Path == "":
		return filterpath.GeneratePath(p)
	default:
		return p.Path
	}
}

func (app *Service) storageKey(key string) string {
	if app.StorageHasher == nil {
		return key
	}
	return app.StorageHasher.Hash(key)
}

func (app *Service) debug(msg string, fields ...zap.Field) {
	if app.Debug {
		app.Logger.Debug(msg, fields...)
	}
}

func (app *Service) debugLog() {
	app.Logger.Debug("filterkit",
		zap.String("version", filterkit.Version),
		zap.Bool("unsafe", app.Unsafe),
		zap.Duration("request_timeout", app.RequestTimeout),
		zap.Duration("load_timeout", app.LoadTimeout),
		zap.Duration("process_timeout", app.ProcessTimeout),
		zap.Duration("save_timeout", app.SaveTimeout),
		zap.Int64("process_concurrency", app.ProcessConcurrency),
		zap.Int("max_filter_ops", app.MaxFilterOps),
		zap.Duration("cache_header_ttl", app.CacheHeaderTTL),
		zap.Strings("loaders", typeNames(app.Loaders)),
		zap.Strings("storages", typeNames(app.Storages)),
		zap.Strings("result_storages", typeNames(app.ResultStorages)),
		zap.Strings("processors", typeNames(app.Processors)),
	)
}

func typeNames[T any](values []T) []string {
	names := make([]string, 0, len(values))
	for _, v := range values {
		names = append(names, getType(v))
	}
	return names
}

// getType names the underlying type of v, dereferencing pointers
func getType(v any) string {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

func loaderSlice(storages []Storage) []Loader {
	loaders := make([]Loader, 0, len(storages))
	for _, storage := range storages {
		loaders = append(loaders, storage)
	}
	return loaders
}
