package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cshum/filterkit"
	"github.com/cshum/filterkit/filterpath"
	"github.com/cshum/filterkit/filtertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type loaderFunc func(r *http.Request, key string) (*filterkit.Blob, error)

func (f loaderFunc) Get(r *http.Request, key string) (*filterkit.Blob, error) {
	return f(r, key)
}

type mapStore struct {
	Map     map[string]*filterkit.Blob
	LoadCnt map[string]int
	SaveCnt map[string]int
	mu      sync.Mutex
}

func newMapStore() *mapStore {
	return &mapStore{
		Map: map[string]*filterkit.Blob{}, LoadCnt: map[string]int{}, SaveCnt: map[string]int{},
	}
}

func (s *mapStore) Get(_ *http.Request, key string) (*filterkit.Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	blob, ok := s.Map[key]
	if !ok {
		return nil, filterkit.ErrNotFound
	}
	s.LoadCnt[key]++
	return blob, nil
}

func (s *mapStore) Put(_ context.Context, key string, blob *filterkit.Blob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Map[key] = blob
	s.SaveCnt[key]++
	return nil
}

func (s *mapStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Map, key)
	return nil
}

func (s *mapStore) Stat(_ context.Context, key string) (*filterkit.Stat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Map[key]; !ok {
		return nil, filterkit.ErrNotFound
	}
	return &filterkit.Stat{ModifiedTime: time.Now()}, nil
}

func (s *mapStore) loadCnt(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.LoadCnt[key]
}

func (s *mapStore) saveCnt(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.SaveCnt[key]
}

var sourceLoader = loaderFunc(func(r *http.Request, key string) (*filterkit.Blob, error) {
	switch key {
	case "gopher.png":
		return filterkit.NewBlobFromBytes([]byte("200x100")), nil
	case "gradient.png":
		return filterkit.NewBlobFromBytes([]byte("16x1")), nil
	case "identity.cube":
		return filterkit.NewBlobFromBytes([]byte(identityCubeFile)), nil
	case "empty":
		return nil, nil
	case "boom":
		return nil, errors.New("unexpected error")
	}
	return nil, filterkit.ErrPass
})

const identityCubeFile = `TITLE "identity"
LUT_3D_SIZE 2
0 0 0
1 0 0
0 1 0
1 1 0
0 0 1
1 0 1
0 1 1
1 1 1
`

func serve(t *testing.T, app *Service, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "https://example.com"+path, nil))
	t.Logf("%s %d %s", path, w.Code, w.Body.String())
	return w
}

func TestServeHTTP(t *testing.T) {
	engine := filtertest.New()
	app := New(
		WithDebug(true), WithLogger(zap.NewExample()),
		WithLoaders(sourceLoader),
		WithProcessors(engine),
		WithUnsafe(true),
	)
	tests := []struct {
		name   string
		path   string
		code   int
		body   string
		header map[string]string
	}{
		{
			name: "no filters",
			path: "/unsafe/gopher.png",
			code: 200,
			body: "test:0:200x100:",
		},
		{
			name: "filter chain",
			path: "/unsafe/filters:sepia_tone(0.8):photo_effect_noir()/gopher.png",
			code: 200,
			body: "test:0:200x100:CISepiaTone,CIPhotoEffectNoir",
		},
		{
			name: "format and quality",
			path: "/unsafe/filters:color_invert():format(webp):quality(70)/gopher.png",
			code: 200,
			body: "webp:70:200x100:CIColorInvert",
		},
		{
			name: "geometry",
			path: "/unsafe/filters:crop(0,0,50,40):lanczos_scale_transform(0.5)/gopher.png",
			code: 200,
			body: "test:0:25x20:CICrop,CILanczosScaleTransform",
		},
		{
			name: "color cube loaded through loaders",
			path: "/unsafe/filters:color_cube(identity.cube)/gopher.png",
			code: 200,
			body: "test:0:200x100:CIColorCube",
		},
		{
			name: "color map gradient decoded by processor",
			path: "/unsafe/filters:color_map(gradient.png)/gopher.png",
			code: 200,
			body: "test:0:200x100:CIColorMap",
		},
		{
			name: "unknown filter",
			path: "/unsafe/filters:blur(5)/gopher.png",
			code: 400,
			body: `{"message":"blur: unknown filter","status":400}`,
		},
		{
			name: "invalid args",
			path: "/unsafe/filters:crop(0,0,abc,1)/gopher.png",
			code: 400,
		},
		{
			name: "source not found",
			path: "/unsafe/filters:color_invert()/nope.png",
			code: 404,
			body: `{"message":"not found","status":404}`,
		},
		{
			name: "empty source",
			path: "/unsafe/empty",
			code: 404,
		},
		{
			name: "loader error",
			path: "/unsafe/boom",
			code: 500,
			body: `{"message":"unexpected error","status":500}`,
		},
		{
			name: "cube not found",
			path: "/unsafe/filters:color_cube(nope.cube)/gopher.png",
			code: 404,
		},
		{
			name: "signature mismatch",
			path: "/abc/gopher.png",
			code: 403,
			body: `{"message":"url signature mismatch","status":403}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, app, tt.path)
			assert.Equal(t, tt.code, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
	t.Run("cache headers", func(t *testing.T) {
		w := serve(t, app, "/unsafe/gopher.png")
		assert.Equal(t, "public, s-maxage=604800, max-age=604800, no-transform, stale-while-revalidate=86400",
			w.Header().Get("Cache-Control"))
		assert.NotEmpty(t, w.Header().Get("Expires"))
		assert.Equal(t, "text/plain", w.Header().Get("Content-Type"))
		assert.Equal(t, "15", w.Header().Get("Content-Length"))
	})
	t.Run("head", func(t *testing.T) {
		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodHead, "https://example.com/unsafe/gopher.png", nil))
		assert.Equal(t, 200, w.Code)
		assert.Empty(t, w.Body.String())
	})
	t.Run("method not allowed", func(t *testing.T) {
		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "https://example.com/unsafe/gopher.png", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
	t.Run("root", func(t *testing.T) {
		w := serve(t, app, "/")
		assert.Equal(t, 200, w.Code)
		assert.Equal(t, fmt.Sprintf(`{"filterkit":{"version":"%s"}}`, filterkit.Version), w.Body.String())
	})
	t.Run("params endpoint", func(t *testing.T) {
		w := serve(t, app, "/params/unsafe/filters:sepia_tone()/gopher.png")
		assert.Equal(t, 200, w.Code)
		var p filterpath.Params
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
		assert.Equal(t, "gopher.png", p.Image)
		assert.Equal(t, filterpath.Filters{{Name: "sepia_tone"}}, p.Filters)
	})
	t.Run("meta", func(t *testing.T) {
		w := serve(t, app, "/unsafe/meta/filters:crop(0,0,20,10):format(jpeg)/gopher.png")
		assert.Equal(t, 200, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.JSONEq(t,
			`{"processor":"Engine","format":"jpeg","width":20,"height":10,"filters":["crop"]}`,
			w.Body.String())
	})
}

func TestFilterParams(t *testing.T) {
	engine := filtertest.New()
	app := New(WithLoaders(sourceLoader), WithProcessors(engine), WithUnsafe(true))
	last := func(t *testing.T, path string) filtertest.Request {
		engine.Reset()
		w := serve(t, app, path)
		require.Equal(t, 200, w.Code)
		req, ok := engine.Last()
		require.True(t, ok)
		return req
	}
	t.Run("sepia tone without intensity omits key", func(t *testing.T) {
		req := last(t, "/unsafe/filters:sepia_tone()/gopher.png")
		assert.Equal(t, filterkit.SepiaToneName, req.Name)
		assert.False(t, req.Params.Has(filterkit.KeyIntensity))
	})
	t.Run("sepia tone with intensity", func(t *testing.T) {
		req := last(t, "/unsafe/filters:sepia_tone(0.8)/gopher.png")
		v, ok := req.Params.Float64(filterkit.KeyIntensity)
		assert.True(t, ok)
		assert.Equal(t, 0.8, v)
	})
	t.Run("straighten degrees", func(t *testing.T) {
		req := last(t, "/unsafe/filters:straighten(90)/gopher.png")
		assert.Equal(t, filterkit.StraightenFilterName, req.Name)
		v, _ := req.Params.Float64(filterkit.KeyAngle)
		assert.InDelta(t, 1.5707963, v, 1e-6)
	})
	t.Run("monochrome color", func(t *testing.T) {
		req := last(t, "/unsafe/filters:color_monochrome(red,0.5)/gopher.png")
		c, ok := req.Params.Color(filterkit.KeyColor)
		assert.True(t, ok)
		assert.Equal(t, filterkit.Color{R: 1, A: 1}, c)
		v, _ := req.Params.Float64(filterkit.KeyIntensity)
		assert.Equal(t, 0.5, v)
	})
	t.Run("false color rgb", func(t *testing.T) {
		req := last(t, "/unsafe/filters:false_color(rgb(0,0,255),fff)/gopher.png")
		c0, _ := req.Params.Color(filterkit.KeyColor0)
		c1, _ := req.Params.Color(filterkit.KeyColor1)
		assert.Equal(t, filterkit.Color{B: 1, A: 1}, c0)
		assert.Equal(t, filterkit.Color{R: 1, G: 1, B: 1, A: 1}, c1)
	})
	t.Run("polynomial alpha identity", func(t *testing.T) {
		req := last(t, "/unsafe/filters:color_polynomial(0,1,0,0,0,1,0,0,0,1,0,0)/gopher.png")
		v, _ := req.Params.Vector(filterkit.KeyAlphaCoefficients)
		assert.Equal(t, filterkit.Vector{0, 1, 0, 0}, v)
	})
	t.Run("cube with color space", func(t *testing.T) {
		req := last(t, "/unsafe/filters:color_cube(identity.cube,linear-srgb)/gopher.png")
		assert.Equal(t, filterkit.ColorCubeWithColorSpaceName, req.Name)
		dim, _ := req.Params.Int(filterkit.KeyCubeDimension)
		assert.Equal(t, 2, dim)
	})
	t.Run("histogram display defaults", func(t *testing.T) {
		req := last(t, "/unsafe/filters:histogram_display()/gopher.png")
		v, _ := req.Params.Float64(filterkit.KeyHeight)
		assert.Equal(t, 100.0, v)
	})
	t.Run("perspective extent", func(t *testing.T) {
		req := last(t, "/unsafe/filters:perspective_transform_with_extent(0,0,10,0,10,10,0,10,1,2,3,4)/gopher.png")
		v, _ := req.Params.Vector(filterkit.KeyExtent)
		assert.Equal(t, filterkit.Vector{1, 2, 3, 4}, v)
	})
}

func TestProcessorFallthrough(t *testing.T) {
	limited := filtertest.New(filtertest.WithSupported(filterkit.ColorInvertName), filtertest.WithFormat("limited"))
	full := filtertest.New(filtertest.WithFormat("full"))
	app := New(
		WithLoaders(sourceLoader),
		WithProcessors(limited, full),
		WithUnsafe(true),
	)
	w := serve(t, app, "/unsafe/filters:color_invert()/gopher.png")
	assert.Equal(t, "limited:0:200x100:CIColorInvert", w.Body.String())

	w = serve(t, app, "/unsafe/filters:color_invert():vignette(1,1)/gopher.png")
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "full:0:200x100:CIColorInvert,CIVignette", w.Body.String())

	t.Run("unsupported by all", func(t *testing.T) {
		app := New(WithLoaders(sourceLoader), WithProcessors(limited), WithUnsafe(true))
		w := serve(t, app, "/unsafe/filters:vignette(1,1)/gopher.png")
		assert.Equal(t, http.StatusNotImplemented, w.Code)
	})
	t.Run("passed by all", func(t *testing.T) {
		app := New(
			WithLoaders(sourceLoader),
			WithProcessors(filtertest.New(filtertest.WithError(filterkit.ColorInvertName, filterkit.ErrPass))),
			WithUnsafe(true),
		)
		w := serve(t, app, "/unsafe/filters:color_invert()/gopher.png")
		assert.Equal(t, http.StatusNotImplemented, w.Code)
		assert.JSONEq(t, `{"message":"unsupported filter","status":501}`, w.Body.String())
	})
	t.Run("no output is not fallthrough", func(t *testing.T) {
		app := New(
			WithLoaders(sourceLoader),
			WithProcessors(filtertest.New(filtertest.WithNoOutput(filterkit.ColorInvertName)), full),
			WithUnsafe(true),
		)
		w := serve(t, app, "/unsafe/filters:color_invert()/gopher.png")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestWithDisableFiltersAndMaxOps(t *testing.T) {
	app := New(
		WithLoaders(sourceLoader),
		WithProcessors(filtertest.New()),
		WithDisableFilters("sepia_tone"),
		WithMaxFilterOps(2),
		WithUnsafe(true),
	)
	w := serve(t, app, "/unsafe/filters:sepia_tone()/gopher.png")
	assert.Equal(t, 400, w.Code)

	w = serve(t, app, "/unsafe/filters:color_invert():photo_effect_mono():mask_to_alpha():format(png)/gopher.png")
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "png:0:200x100:CIColorInvert,CIPhotoEffectMono", w.Body.String())
}

func TestWithFilter(t *testing.T) {
	engine := filtertest.New()
	app := New(
		WithLoaders(sourceLoader),
		WithProcessors(engine),
		WithFilter("thumbnail", func(_ context.Context, _ LoadFunc, args ...string) (filterkit.Filter, error) {
			return filterkit.LanczosScaleTransform(filterkit.LanczosScaleTransformOptions{
				Scale: 0.1, AspectRatio: 1,
			}), nil
		}),
		WithUnsafe(true),
	)
	w := serve(t, app, "/unsafe/filters:thumbnail()/gopher.png")
	assert.Equal(t, "test:0:20x10:CILanczosScaleTransform", w.Body.String())
}

func TestWithStoragesResultStorages(t *testing.T) {
	store := newMapStore()
	resultStore := newMapStore()
	engine := filtertest.New()
	app := New(
		WithDebug(true), WithLogger(zap.NewExample()),
		WithLoaders(sourceLoader),
		WithStorages(store),
		WithResultStorages(resultStore),
		WithProcessors(engine),
		WithUnsafe(true),
	)
	for i := 0; i < 3; i++ {
		w := serve(t, app, "/unsafe/filters:color_invert()/gopher.png")
		assert.Equal(t, 200, w.Code)
		assert.Equal(t, "test:0:200x100:CIColorInvert", w.Body.String())
	}
	assert.Equal(t, 1, store.saveCnt("gopher.png"))
	assert.Equal(t, 1, resultStore.saveCnt("filters:color_invert()/gopher.png"))
	assert.Equal(t, 2, resultStore.loadCnt("filters:color_invert()/gopher.png"))
	// processed once, the rest served from result storage
	assert.Len(t, engine.Requests(), 1)

	w := serve(t, app, "/unsafe/filters:sepia_tone()/gopher.png")
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, 1, store.loadCnt("gopher.png"))
	assert.Equal(t, 1, store.saveCnt("gopher.png"))
}

// lazyBlob defers reading blob until asked, on the context of the request it was loaded on
func lazyBlob(ctx context.Context, blob *filterkit.Blob) *filterkit.Blob {
	return filterkit.NewBlob(func() (io.ReadCloser, int64, error) {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		return blob.NewReader()
	})
}

type lazyStore struct {
	*mapStore
}

func (s lazyStore) Get(r *http.Request, key string) (*filterkit.Blob, error) {
	blob, err := s.mapStore.Get(r, key)
	if err != nil {
		return nil, err
	}
	return lazyBlob(r.Context(), blob), nil
}

func TestLazyReadAfterRequestScope(t *testing.T) {
	t.Run("result storage", func(t *testing.T) {
		resultStore := lazyStore{newMapStore()}
		engine := filtertest.New()
		app := New(
			WithLoaders(sourceLoader),
			WithResultStorages(resultStore),
			WithProcessors(engine),
			WithRequestTimeout(time.Second),
			WithLoadTimeout(time.Second),
			WithUnsafe(true),
		)
		for i := 0; i < 3; i++ {
			w := serve(t, app, "/unsafe/filters:color_invert()/gopher.png")
			assert.Equal(t, 200, w.Code)
			assert.Equal(t, "test:0:200x100:CIColorInvert", w.Body.String())
		}
		assert.Equal(t, 2, resultStore.loadCnt("filters:color_invert()/gopher.png"))
		assert.Len(t, engine.Requests(), 1)
	})
	t.Run("source without processors", func(t *testing.T) {
		app := New(
			WithLoaders(loaderFunc(func(r *http.Request, key string) (*filterkit.Blob, error) {
				blob, err := sourceLoader(r, key)
				if err != nil || blob == nil {
					return blob, err
				}
				return lazyBlob(r.Context(), blob), nil
			})),
			WithRequestTimeout(time.Second),
			WithLoadTimeout(time.Second),
			WithUnsafe(true),
		)
		w := serve(t, app, "/unsafe/gopher.png")
		assert.Equal(t, 200, w.Code)
		assert.Equal(t, "200x100", w.Body.String())
	})
}

func TestWithStorageHashers(t *testing.T) {
	store := newMapStore()
	resultStore := newMapStore()
	app := New(
		WithLoaders(sourceLoader),
		WithStorages(store),
		WithResultStorages(resultStore),
		WithStorageHasher(filterpath.DigestStorageHasher),
		WithResultStorageHasher(filterpath.SuffixResultStorageHasher),
		WithProcessors(filtertest.New()),
		WithUnsafe(true),
	)
	w := serve(t, app, "/unsafe/filters:color_invert():format(webp)/gopher.png")
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, 1, store.saveCnt(filterpath.DigestStorageHasher.Hash("gopher.png")))
	require.Len(t, resultStore.Map, 1)
	for key := range resultStore.Map {
		assert.True(t, strings.HasPrefix(key, "gopher."))
		assert.True(t, strings.HasSuffix(key, ".webp"))
	}
}

func TestWithSigner(t *testing.T) {
	signer := filterpath.NewDefaultSigner("1234")
	app := New(WithLoaders(sourceLoader), WithProcessors(filtertest.New()), WithSigner(signer))
	path := "filters:color_invert()/gopher.png"
	w := serve(t, app, "/"+signer.Sign(path)+"/"+path)
	assert.Equal(t, 200, w.Code)
	w = serve(t, app, "/unsafe/"+path)
	assert.Equal(t, 403, w.Code)
}

func TestWithBaseParams(t *testing.T) {
	app := New(
		WithLoaders(sourceLoader), WithProcessors(filtertest.New()), WithUnsafe(true),
		WithBaseParams("filters:format(jpeg):quality(90)"),
	)
	w := serve(t, app, "/unsafe/filters:color_invert()/gopher.png")
	assert.Equal(t, "jpeg:90:200x100:CIColorInvert", w.Body.String())
}

func TestWithoutProcessors(t *testing.T) {
	app := New(WithLoaders(sourceLoader), WithUnsafe(true))
	w := serve(t, app, "/unsafe/gopher.png")
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "200x100", w.Body.String())
}

func TestWithDisableErrorBody(t *testing.T) {
	app := New(WithLoaders(sourceLoader), WithUnsafe(true), WithDisableErrorBody(true))
	w := serve(t, app, "/unsafe/nope.png")
	assert.Equal(t, 404, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestWithBasePathRedirect(t *testing.T) {
	app := New(WithBasePathRedirect("https://www.google.com"))
	w := serve(t, app, "/")
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "https://www.google.com", w.Header().Get("Location"))
}

func TestWithProcessTimeout(t *testing.T) {
	slow := filtertest.New()
	app := New(
		WithLoaders(sourceLoader),
		WithProcessors(slow),
		WithFilter("sleep", func(_ context.Context, _ LoadFunc, _ ...string) (filterkit.Filter, error) {
			return func(ctx context.Context, img filterkit.Image) (filterkit.Image, error) {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(time.Second):
					return img, nil
				}
			}, nil
		}),
		WithProcessTimeout(time.Millisecond*5),
		WithUnsafe(true),
	)
	w := serve(t, app, "/unsafe/filters:sleep()/gopher.png")
	assert.Equal(t, http.StatusRequestTimeout, w.Code)
}

type metricsFunc func(name string, d time.Duration, err error)

func (f metricsFunc) ObserveFilter(name string, d time.Duration, err error) {
	f(name, d, err)
}

func TestWithMetrics(t *testing.T) {
	var mu sync.Mutex
	var names []string
	app := New(
		WithLoaders(sourceLoader),
		WithProcessors(filtertest.New()),
		WithMetrics(metricsFunc(func(name string, d time.Duration, err error) {
			mu.Lock()
			names = append(names, name)
			mu.Unlock()
		})),
		WithUnsafe(true),
	)
	w := serve(t, app, "/unsafe/filters:color_invert():sepia_tone(1):format(png)/gopher.png")
	assert.Equal(t, 200, w.Code)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"color_invert", "sepia_tone"}, names)
}

func TestSuppression(t *testing.T) {
	var mu sync.Mutex
	var loads int
	app := New(
		WithLoaders(loaderFunc(func(r *http.Request, key string) (*filterkit.Blob, error) {
			mu.Lock()
			loads++
			mu.Unlock()
			time.Sleep(time.Millisecond * 100)
			return filterkit.NewBlobFromBytes([]byte(fmt.Sprintf("%dx1", rand.Intn(1000)+1))), nil
		})),
		WithProcessors(filtertest.New()),
		WithProcessConcurrency(2),
		WithUnsafe(true),
	)
	n := 10
	var wg sync.WaitGroup
	results := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := httptest.NewRecorder()
			app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "https://example.com/unsafe/a", nil))
			results[i] = w.Body.String()
		}(i)
	}
	wg.Wait()
	for i := 1; i < n; i++ {
		assert.Equal(t, results[0], results[i])
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Less(t, loads, n)
}

func TestStartupShutdown(t *testing.T) {
	app := New(WithProcessors(filtertest.New(), filtertest.New()))
	ctx := context.Background()
	assert.NoError(t, app.Startup(ctx))
	assert.NoError(t, app.Shutdown(ctx))
}

func TestGetCacheControl(t *testing.T) {
	assert.Equal(t, "private, no-cache, no-store, must-revalidate", getCacheControl(0, 0))
	assert.Equal(t, "public, s-maxage=3600, max-age=3600, no-transform", getCacheControl(time.Hour, 0))
	assert.Equal(t, "public, s-maxage=3600, max-age=3600, no-transform, stale-while-revalidate=60",
		getCacheControl(time.Hour, time.Minute))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("read failure")
}

func (failingReader) Close() error {
	return nil
}

func TestWriteBodyReadError(t *testing.T) {
	app := New()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "https://example.com/unsafe/gopher.png", nil)
	app.writeBody(w, r, "image/png", failingReader{}, 0)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"read failure","status":500}`, w.Body.String())
	assert.Empty(t, w.Header().Get("Cache-Control"))
}
