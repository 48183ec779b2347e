// Package vipsprocessor implements filterkit.Engine on libvips via vipsgen.
// Filters it does not support return filterkit.ErrUnsupportedFilter, so
// callers can fall through to another engine.
package vipsprocessor

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/cshum/filterkit"
	"github.com/cshum/vipsgen/vips"
	"go.uber.org/zap"
)

// FilterFunc engine filter handler, mutates img in place
type FilterFunc func(ctx context.Context, v *Processor, img *vips.Image, params filterkit.Params) (err error)

// FilterMap engine filter handlers by filter name
type FilterMap map[filterkit.Name]FilterFunc

var processorLock sync.RWMutex
var processorCount int

// Processor implements filterkit.Engine with libvips
type Processor struct {
	Filters        FilterMap
	DisableFilters []string
	Logger         *zap.Logger
	Concurrency    int
	MaxCacheFiles  int
	MaxCacheMem    int
	MaxCacheSize   int
	MaxWidth       int
	MaxHeight      int
	MaxResolution  int
	Quality        int
	Debug          bool

	disableFilters map[filterkit.Name]bool
}

// NewProcessor create Processor
func NewProcessor(options ...Option) *Processor {
	v := &Processor{
		MaxWidth:       9999,
		MaxHeight:      9999,
		MaxResolution:  81000000,
		Quality:        80,
		Concurrency:    1,
		Logger:         zap.NewNop(),
		disableFilters: map[filterkit.Name]bool{},
	}
	v.Filters = FilterMap{
		filterkit.ColorInvertName:           colorInvert,
		filterkit.PhotoEffectMonoName:       photoEffectMono,
		filterkit.PhotoEffectNoirName:       photoEffectNoir,
		filterkit.ColorPolynomialName:       colorPolynomial,
		filterkit.CropName:                  crop,
		filterkit.LanczosScaleTransformName: lanczosScaleTransform,
		filterkit.StraightenFilterName:      straighten,
		filterkit.SharpenLuminanceName:      sharpenLuminance,
		filterkit.UnsharpMaskName:           unsharpMask,
	}
	for _, option := range options {
		option(v)
	}
	for _, name := range v.DisableFilters {
		if n, ok := filterkit.Lookup(name); ok {
			v.disableFilters[n] = true
		}
	}
	if v.Concurrency == -1 {
		v.Concurrency = runtime.NumCPU()
	}
	return v
}

// Startup implements service Processor interface
func (v *Processor) Startup(_ context.Context) error {
	processorLock.Lock()
	defer processorLock.Unlock()
	processorCount++
	if processorCount > 1 {
		return nil
	}
	if v.Debug {
		vips.SetLogging(func(domain string, level vips.LogLevel, msg string) {
			switch level {
			case vips.LogLevelDebug:
				v.Logger.Debug(domain, zap.String("log", msg))
			case vips.LogLevelMessage, vips.LogLevelInfo:
				v.Logger.Info(domain, zap.String("log", msg))
			case vips.LogLevelWarning, vips.LogLevelCritical, vips.LogLevelError:
				v.Logger.Warn(domain, zap.String("log", msg))
			}
		}, vips.LogLevelDebug)
	} else {
		vips.SetLogging(func(domain string, level vips.LogLevel, msg string) {
			v.Logger.Warn(domain, zap.String("log", msg))
		}, vips.LogLevelError)
	}
	vips.Startup(&vips.Config{
		MaxCacheFiles:    v.MaxCacheFiles,
		MaxCacheMem:      v.MaxCacheMem,
		MaxCacheSize:     v.MaxCacheSize,
		ConcurrencyLevel: v.Concurrency,
	})
	return nil
}

// Shutdown implements service Processor interface
func (v *Processor) Shutdown(_ context.Context) error {
	processorLock.Lock()
	defer processorLock.Unlock()
	if processorCount <= 0 {
		return nil
	}
	processorCount--
	if processorCount == 0 {
		vips.Shutdown()
	}
	return nil
}

// Image filterkit.Image backed by *vips.Image
type Image struct {
	processor *Processor
	img       *vips.Image
	format    string
}

// Engine implements filterkit.Image
func (i *Image) Engine() filterkit.Engine {
	if i == nil || i.processor == nil {
		return nil
	}
	return i.processor
}

// Extent implements filterkit.Image
func (i *Image) Extent() filterkit.Rect {
	return filterkit.Rect{Width: float64(i.img.Width()), Height: float64(i.img.PageHeight())}
}

// VipsImage returns the underlying vips image
func (i *Image) VipsImage() *vips.Image {
	return i.img
}

// Close releases the underlying vips image
func (i *Image) Close() {
	if i != nil && i.img != nil {
		i.img.Close()
	}
}

// NewImage wraps img as Image owned by the processor, taking ownership of img.
// Within a defer context img is closed once the context is done.
func (v *Processor) NewImage(ctx context.Context, img *vips.Image) *Image {
	if filterkit.HasDefer(ctx) {
		filterkit.Defer(ctx, img.Close)
	}
	return &Image{processor: v, img: img, format: "png"}
}

// NewFilter implements filterkit.Engine
func (v *Processor) NewFilter(name filterkit.Name, params filterkit.Params) (filterkit.Instance, error) {
	if !name.Registered() {
		return nil, fmt.Errorf("vipsprocessor: %s: %w", name, filterkit.ErrUnknownFilter)
	}
	fn, ok := v.Filters[name]
	if !ok || v.disableFilters[name] {
		return nil, fmt.Errorf("vipsprocessor: %s: %w", name, filterkit.ErrUnsupportedFilter)
	}
	in, err := params.RequireImage(filterkit.KeyImage)
	if err != nil {
		return nil, err
	}
	src, ok := in.(*Image)
	if !ok || src.processor != v {
		return nil, fmt.Errorf("%w: image not owned by vips processor", filterkit.ErrInvalidParams)
	}
	return &instance{processor: v, name: name, fn: fn, src: src, params: params}, nil
}

type instance struct {
	processor *Processor
	name      filterkit.Name
	fn        FilterFunc
	src       *Image
	params    filterkit.Params
}

// OutputImage implements filterkit.Instance, source image is left untouched
func (i *instance) OutputImage(ctx context.Context) (filterkit.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	img, err := i.src.img.Copy(nil)
	if err != nil {
		return nil, WrapErr(err)
	}
	if err = i.fn(ctx, i.processor, img, i.params); err != nil {
		img.Close()
		return nil, WrapErr(err)
	}
	if _, err = i.processor.CheckResolution(img, nil); err != nil {
		return nil, err
	}
	if i.processor.Debug {
		i.processor.Logger.Debug("filter",
			zap.String("name", string(i.name)),
			zap.Strings("params", i.params.Keys()),
			zap.Duration("took", time.Since(start)))
	}
	out := i.processor.NewImage(ctx, img)
	out.format = i.src.format
	return out, nil
}

// CheckResolution check image resolution for image bomb prevention
func (v *Processor) CheckResolution(img *vips.Image, err error) (*vips.Image, error) {
	if err != nil || img == nil {
		return img, err
	}
	if img.Width() > v.MaxWidth || img.PageHeight() > v.MaxHeight ||
		(img.Width()*img.Height()) > v.MaxResolution {
		img.Close()
		return nil, filterkit.ErrMaxResolutionExceeded
	}
	return img, nil
}

// WrapErr wraps error to become filterkit.Error,
// wrapped filterkit and context errors pass through for errors.Is
func WrapErr(err error) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(filterkit.Error); ok {
		return e
	}
	var e filterkit.Error
	if errors.As(err, &e) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	msg := strings.TrimSpace(err.Error())
	if strings.HasPrefix(msg, "VipsForeignLoad:") &&
		strings.HasSuffix(msg, "is not in a known format") {
		return filterkit.ErrUnsupportedFormat
	}
	return filterkit.NewError(msg, 406)
}

func splitNames(names []string) (result []string) {
	for _, name := range names {
		for _, n := range strings.Split(name, ",") {
			if n = strings.TrimSpace(n); n != "" {
				result = append(result, n)
			}
		}
	}
	return
}
