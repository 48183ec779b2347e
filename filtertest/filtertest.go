// Package filtertest provides a recording filterkit.Engine for tests.
//
// The engine performs no pixel work. Every filter request is recorded
// with its parameter mapping so tests can assert what a filter passed
// down, and outputs are synthetic images owned by the same engine.
package filtertest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/cshum/filterkit"
)

// Request recorded filter request
type Request struct {
	Name   filterkit.Name
	Params filterkit.Params
}

// Option Engine option
type Option func(e *Engine)

// WithNoOutput engine produces no output image for names
func WithNoOutput(names ...filterkit.Name) Option {
	return func(e *Engine) {
		for _, name := range names {
			e.noOutput[name] = true
		}
	}
}

// WithError engine fails filter name with err
func WithError(name filterkit.Name, err error) Option {
	return func(e *Engine) {
		e.errs[name] = err
	}
}

// WithSupported restricts the engine to names, others yield ErrUnsupportedFilter
func WithSupported(names ...filterkit.Name) Option {
	return func(e *Engine) {
		if e.supported == nil {
			e.supported = map[filterkit.Name]bool{}
		}
		for _, name := range names {
			e.supported[name] = true
		}
	}
}

// WithFormat sets the format reported by Encode
func WithFormat(format string) Option {
	return func(e *Engine) {
		e.format = format
	}
}

// Engine recording filterkit.Engine
type Engine struct {
	noOutput  map[filterkit.Name]bool
	errs      map[filterkit.Name]error
	supported map[filterkit.Name]bool
	format    string

	requests []Request
	seq      int
	mu       sync.Mutex
}

// New creates recording Engine
func New(options ...Option) *Engine {
	e := &Engine{
		noOutput: map[filterkit.Name]bool{},
		errs:     map[filterkit.Name]error{},
		format:   "test",
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// Image synthetic image owned by a recording Engine
type Image struct {
	ID      int
	Applied []filterkit.Name
	engine  *Engine
	extent  filterkit.Rect
}

// Engine implements filterkit.Image
func (i *Image) Engine() filterkit.Engine {
	if i == nil || i.engine == nil {
		return nil
	}
	return i.engine
}

// Extent implements filterkit.Image
func (i *Image) Extent() filterkit.Rect {
	return i.extent
}

// NewImage creates image of width x height owned by the engine
func (e *Engine) NewImage(width, height float64) *Image {
	return &Image{ID: e.nextID(), engine: e, extent: filterkit.Rect{Width: width, Height: height}}
}

func (e *Engine) nextID() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq++
	return e.seq
}

// NewFilter implements filterkit.Engine
func (e *Engine) NewFilter(name filterkit.Name, params filterkit.Params) (filterkit.Instance, error) {
	e.mu.Lock()
	e.requests = append(e.requests, Request{Name: name, Params: params})
	e.mu.Unlock()
	if !name.Registered() {
		return nil, filterkit.ErrUnknownFilter
	}
	if e.supported != nil && !e.supported[name] {
		return nil, filterkit.ErrUnsupportedFilter
	}
	if err, ok := e.errs[name]; ok {
		return nil, err
	}
	return &instance{engine: e, name: name, params: params}, nil
}

// Requests returns recorded requests in order
func (e *Engine) Requests() []Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Request(nil), e.requests...)
}

// Last returns the last recorded request
func (e *Engine) Last() (Request, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.requests) == 0 {
		return Request{}, false
	}
	return e.requests[len(e.requests)-1], true
}

// Reset clears recorded requests
func (e *Engine) Reset() {
	e.mu.Lock()
	e.requests = nil
	e.mu.Unlock()
}

// Decode implements filterkit.Decoder.
// Blob content "WxH" yields an image of that size, anything else 1x1.
func (e *Engine) Decode(_ context.Context, blob *filterkit.Blob) (filterkit.Image, error) {
	if filterkit.IsBlobEmpty(blob) {
		return nil, filterkit.ErrNotFound
	}
	buf, err := blob.ReadAll()
	if err != nil {
		return nil, err
	}
	w, h := 1.0, 1.0
	if parts := strings.SplitN(strings.TrimSpace(string(buf)), "x", 2); len(parts) == 2 {
		if pw, err := strconv.ParseFloat(parts[0], 64); err == nil {
			if ph, err := strconv.ParseFloat(parts[1], 64); err == nil {
				w, h = pw, ph
			}
		}
	}
	return e.NewImage(w, h), nil
}

// Encode implements filterkit.Encoder.
// Output describes the image as "format:quality:WxH:filter,filter".
func (e *Engine) Encode(_ context.Context, img filterkit.Image, options filterkit.EncodeOptions) (*filterkit.Blob, error) {
	i, ok := img.(*Image)
	if !ok || i.engine != e {
		return nil, filterkit.ErrUnsupportedFormat
	}
	format := options.Format
	if format == "" {
		format = e.format
	}
	var names []string
	for _, name := range i.Applied {
		names = append(names, string(name))
	}
	blob := filterkit.NewBlobFromBytes([]byte(fmt.Sprintf(
		"%s:%d:%gx%g:%s", format, options.Quality, i.extent.Width, i.extent.Height, strings.Join(names, ","))))
	blob.SetContentType("text/plain")
	return blob, nil
}

type instance struct {
	engine *Engine
	name   filterkit.Name
	params filterkit.Params
}

func (i *instance) OutputImage(ctx context.Context) (filterkit.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if i.engine.noOutput[i.name] {
		return nil, nil
	}
	in, _ := i.params.Image(filterkit.KeyImage)
	src, ok := in.(*Image)
	if !ok {
		return nil, nil
	}
	out := &Image{
		ID:      i.engine.nextID(),
		engine:  i.engine,
		extent:  src.extent,
		Applied: append(append([]filterkit.Name(nil), src.Applied...), i.name),
	}
	switch i.name {
	case filterkit.CropName:
		if v, ok := i.params.Vector(filterkit.KeyRectangle); ok {
			out.extent = filterkit.RectFromVector(v)
		}
	case filterkit.LanczosScaleTransformName:
		scale, _ := i.params.Float64(filterkit.KeyScale)
		ratio, _ := i.params.Float64(filterkit.KeyAspectRatio)
		out.extent.Width *= scale * ratio
		out.extent.Height *= scale
	}
	return out, nil
}

// Startup implements the service processor lifecycle, no-op
func (e *Engine) Startup(_ context.Context) error {
	return nil
}

// Shutdown implements the service processor lifecycle, no-op
func (e *Engine) Shutdown(_ context.Context) error {
	return nil
}
