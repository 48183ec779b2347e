package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/cshum/filterkit"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// loadStorage loads the source image of key, copying it to storages
func (app *Service) loadStorage(r *http.Request, key string) (*filterkit.Blob, error) {
	return app.suppress(r.Context(), "img:"+key, func(ctx context.Context) (*filterkit.Blob, error) {
		blob, origin, err := app.load(r.WithContext(ctx), app.Loaders, key)
		if err != nil {
			return nil, err
		}
		if len(app.Storages) > 0 {
			app.save(ctx, origin, app.Storages, app.storageKey(key), blob)
		}
		return blob, nil
	})
}

// loadResult returns the cached result of resultKey, or nil on miss.
// With ModifiedTimeCheck a result older than its source counts as a miss
func (app *Service) loadResult(r *http.Request, resultKey, imageKey string) *filterkit.Blob {
	blob, origin, err := app.load(r, app.resultLoaders, resultKey)
	if err != nil {
		return nil
	}
	if !app.ModifiedTimeCheck || origin == nil || app.isFresh(r.Context(), origin, resultKey, imageKey) {
		return blob
	}
	return nil
}

func (app *Service) isFresh(ctx context.Context, origin Storage, resultKey, imageKey string) bool {
	result, err := origin.Stat(ctx, resultKey)
	if err != nil || result == nil {
		return false
	}
	source, err := app.storageStat(ctx, imageKey)
	if err != nil || source == nil {
		return false
	}
	return !result.ModifiedTime.Before(source.ModifiedTime)
}

// load tries loaders in order and returns the first non empty blob of key,
// along with the loader that produced it when the loader is also a Storage
func (app *Service) load(r *http.Request, loaders []Loader, key string) (*filterkit.Blob, Storage, error) {
	if key == "" || len(loaders) == 0 {
		return nil, nil, filterkit.ErrNotFound
	}
	if app.LoadTimeout > 0 {
		// blobs may be read lazily, so the timeout lasts till the request scope ends
		ctx, cancel := context.WithTimeout(r.Context(), app.LoadTimeout)
		filterkit.Defer(ctx, cancel)
		r = r.WithContext(ctx)
	}
	var err error
	for _, loader := range loaders {
		storage, _ := loader.(Storage)
		loadKey := key
		if storage != nil {
			loadKey = app.storageKey(key)
		}
		var blob *filterkit.Blob
		if blob, err = loader.Get(r, loadKey); err == nil && blob != nil {
			err = blob.Err()
		}
		if err == nil && !filterkit.IsBlobEmpty(blob) {
			app.debug("loaded", zap.String("key", key))
			return blob, storage, nil
		}
	}
	if err == nil || errors.Is(err, filterkit.ErrPass) {
		// nothing found, or passed till the end
		err = filterkit.ErrNotFound
	}
	app.debug("load", zap.String("key", key), zap.Error(err))
	return nil, nil, err
}

func (app *Service) storageStat(ctx context.Context, key string) (*filterkit.Stat, error) {
	var (
		stat *filterkit.Stat
		err  error
	)
	for _, storage := range app.Storages {
		if stat, err = storage.Stat(ctx, app.storageKey(key)); err == nil && stat != nil {
			return stat, nil
		}
	}
	return stat, err
}

// save puts blob to storages concurrently, skipping origin where it came from.
// Saves outlive request cancellation but not the save timeout
func (app *Service) save(
	ctx context.Context, origin Storage, storages []Storage, key string, blob *filterkit.Blob,
) {
	ctx = context.WithoutCancel(ctx)
	if app.SaveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, app.SaveTimeout)
		defer cancel()
	}
	var g errgroup.Group
	for _, storage := range storages {
		if storage == origin {
			app.debug("skip-save", zap.String("key", key))
			continue
		}
		g.Go(func() error {
			err := storage.Put(ctx, key, blob)
			if err != nil {
				app.Logger.Warn("save", zap.String("key", key), zap.Error(err))
			} else {
				app.debug("saved", zap.String("key", key))
			}
			return err
		})
	}
	_ = g.Wait()
}
