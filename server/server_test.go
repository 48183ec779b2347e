package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cshum/filterkit"
	"github.com/cshum/filterkit/filtertest"
	"github.com/cshum/filterkit/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testApp struct {
	StartupCnt  atomic.Int32
	ShutdownCnt atomic.Int32
}

func (app *testApp) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, _ = io.WriteString(w, "app:"+r.URL.Path)
}

func (app *testApp) Startup(_ context.Context) error {
	app.StartupCnt.Add(1)
	return nil
}

func (app *testApp) Shutdown(_ context.Context) error {
	app.ShutdownCnt.Add(1)
	return nil
}

type testMetrics struct {
	StartupCnt  int
	ShutdownCnt int
	HandleCnt   int
}

func (m *testMetrics) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.HandleCnt++
		next.ServeHTTP(w, r)
	})
}

func (m *testMetrics) Startup(_ context.Context) error {
	m.StartupCnt++
	return nil
}

func (m *testMetrics) Shutdown(_ context.Context) error {
	m.ShutdownCnt++
	return nil
}

type loaderFunc func(r *http.Request, key string) (*filterkit.Blob, error)

func (f loaderFunc) Get(r *http.Request, key string) (*filterkit.Blob, error) {
	return f(r, key)
}

func serve(s *Server, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestServer_RunContext(t *testing.T) {
	ctx, done := context.WithCancel(context.Background())
	app := &testApp{}
	metrics := &testMetrics{}
	s := New(app,
		WithDebug(true),
		WithAddr(":0"),
		WithStartupTimeout(time.Second),
		WithShutdownTimeout(time.Second),
		WithMetrics(metrics),
		WithLogger(zap.NewExample()))
	go func() {
		time.Sleep(time.Millisecond * 10)
		assert.Equal(t, int32(1), app.StartupCnt.Load())
		assert.Equal(t, int32(0), app.ShutdownCnt.Load())
		done()
	}()
	s.RunContext(ctx)
	assert.Equal(t, int32(1), app.ShutdownCnt.Load())
	assert.Equal(t, 1, metrics.StartupCnt)
	assert.Equal(t, 1, metrics.ShutdownCnt)
}

func TestServer(t *testing.T) {
	engine := filtertest.New()
	s := New(
		service.New(
			service.WithUnsafe(true),
			service.WithProcessors(engine),
			service.WithLoaders(loaderFunc(func(r *http.Request, key string) (*filterkit.Blob, error) {
				return filterkit.NewBlobFromBytes([]byte("4x3")), nil
			})),
		),
		WithAccessLog(true),
		WithMiddleware(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Foo", "Bar")
				if strings.Contains(r.URL.String(), "boom") {
					panic("booooom")
				}
				next.ServeHTTP(w, r)
			})
		}),
		WithCORS(true),
	)

	w := serve(s, http.MethodGet, "https://example.com/favicon.ico")
	assert.Equal(t, 200, w.Code)
	assert.NotEmpty(t, w.Header().Get("Vary"))

	w = serve(s, http.MethodPost, "https://example.com/favicon.ico")
	assert.Equal(t, 405, w.Code)

	w = serve(s, http.MethodGet, "https://example.com/healthcheck")
	assert.Equal(t, 200, w.Code)
	assert.Empty(t, w.Body.String())

	w = serve(s, http.MethodGet, "https://example.com/healthcheck?stats")
	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), `"goroutines"`)

	w = serve(s, http.MethodGet, "https://example.com/unsafe/filters:sepia_tone(1)/foo.jpg")
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "Bar", w.Header().Get("X-Foo"))
	assert.Equal(t, "test:0:4x3:CISepiaTone", w.Body.String())

	w = serve(s, http.MethodGet, "https://example.com/unsafe/foo.jpg?boom")
	assert.Equal(t, 500, w.Code)
	assert.Equal(t, "Bar", w.Header().Get("X-Foo"))
	assert.NotEmpty(t, w.Header().Get("Vary"))
	assert.Equal(t, `{"message":"booooom","status":500}`, w.Body.String())
}

func TestServerErrorLog(t *testing.T) {
	var mu sync.Mutex
	var logged []string
	messages := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), logged...)
	}
	logger := zap.NewExample(zap.Hooks(func(entry zapcore.Entry) error {
		mu.Lock()
		logged = append(logged, entry.Message)
		mu.Unlock()
		return nil
	}))
	s := New(&testApp{},
		WithAccessLog(true),
		WithLogger(logger),
		WithMiddleware(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if strings.Contains(r.URL.String(), "boom") {
					panic("booooom")
				}
				next.ServeHTTP(w, r)
			})
		}),
	)
	ts := httptest.NewServer(s.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/foo?boom")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, 500, resp.StatusCode)
	assert.Equal(t, `{"message":"booooom","status":500}`, string(body))

	resp, err = http.Get(ts.URL + "/foo")
	require.NoError(t, err)
	_ = resp.Body.Close()

	_, err = s.ErrorLog.Writer().Write([]byte("http: TLS handshake error from 172.16.0.3:42672: EOF"))
	assert.NoError(t, err)
	assert.Eventually(t, func() bool {
		return len(messages()) == 3
	}, time.Second, time.Millisecond*10)
	assert.ElementsMatch(t, []string{"panic", "access", "server"}, messages())
}

func TestServerErrorLogWriter(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	writer := &serverErrorLogWriter{Logger: zap.New(core)}
	for msg, level := range map[string]zapcore.Level{
		"http: TLS handshake error from 172.16.0.3:42672: EOF\n":     zapcore.DebugLevel,
		"http: URL query contains semicolon, which is deprecated\n": zapcore.DebugLevel,
		"some other server error\n":                                 zapcore.WarnLevel,
	} {
		logs.TakeAll()
		n, err := writer.Write([]byte(msg))
		assert.NoError(t, err)
		assert.Equal(t, len(msg), n)
		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Equal(t, "server", entries[0].Message)
		assert.Equal(t, level, entries[0].Level)
	}
}

func TestWithStripQueryString(t *testing.T) {
	s := New(&testApp{}, WithAddr("example.com:1667"), WithPort(1234))
	assert.Equal(t, "example.com:1667", s.Addr)
	w := serve(s, http.MethodGet, "https://example.com/?a=1&b=2")
	assert.Equal(t, http.StatusOK, w.Code)

	s = New(&testApp{}, WithStripQueryString(true), WithAddress("foo.com"), WithPort(1234))
	assert.Equal(t, "foo.com:1234", s.Addr)
	w = serve(s, http.MethodGet, "https://example.com/?a=1&b=2")
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "https://example.com/", w.Header().Get("Location"))

	w = serve(s, http.MethodGet, "https://example.com/")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWithPathPrefix(t *testing.T) {
	s := New(service.New())
	assert.Equal(t, http.StatusOK, serve(s, http.MethodGet, "https://example.com/").Code)

	s = New(service.New(), WithPathPrefix("/filterkit"))
	assert.Equal(t, http.StatusNotFound, serve(s, http.MethodGet, "https://example.com/").Code)
	w := serve(s, http.MethodGet, "https://example.com/filterkit")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), filterkit.Version)
}

func TestWithSentry(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := New(&testApp{}, WithSentry("https://12345@sentry.com/123"), WithLogger(zap.New(core)))
	assert.Equal(t, "https://12345@sentry.com/123", s.SentryDsn)
	assert.NotNil(t, s.sentry)
	assert.Empty(t, logs.All())

	s = New(&testApp{}, WithSentry("not a dsn"), WithLogger(zap.New(core)))
	assert.Nil(t, s.sentry)
	assert.Len(t, logs.FilterMessage("sentry").All(), 1)
}

func TestServerOptions(t *testing.T) {
	app := &testApp{}

	s := New(app)
	assert.Equal(t, ":8000", s.Addr)
	assert.Equal(t, time.Second*10, s.StartupTimeout)
	assert.Equal(t, time.Second*10, s.ShutdownTimeout)
	assert.NotNil(t, s.Logger)
	assert.True(t, isNil(s.Metrics))

	logger := zap.NewExample()
	s = New(app,
		WithAddress("localhost"),
		WithPort(9090),
		WithLogger(logger),
		WithDebug(true),
		WithCertFile("cert.pem", "key.pem"),
		WithStartupTimeout(time.Second),
		WithShutdownTimeout(time.Second*2),
		WithMetrics(nil))
	assert.Equal(t, "localhost:9090", s.Addr)
	assert.Equal(t, logger, s.Logger)
	assert.True(t, s.Debug)
	assert.Equal(t, "cert.pem", s.CertFile)
	assert.Equal(t, "key.pem", s.KeyFile)
	assert.Equal(t, time.Second, s.StartupTimeout)
	assert.Equal(t, time.Second*2, s.ShutdownTimeout)

	s = New(app, WithStartupTimeout(0), WithShutdownTimeout(0), WithLogger(nil))
	assert.Equal(t, time.Second*10, s.StartupTimeout)
	assert.Equal(t, time.Second*10, s.ShutdownTimeout)
	assert.NotNil(t, s.Logger)
}

func TestWithMiddleware(t *testing.T) {
	header := func(key, value string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Add(key, value)
				next.ServeHTTP(w, r)
			})
		}
	}
	s := New(&testApp{}, WithMiddleware(header("X-Test", "a")), WithMiddleware(nil), WithMiddleware(header("X-Test", "b")))
	w := serve(s, http.MethodGet, "/foo")
	assert.Equal(t, "app:/foo", w.Body.String())
	assert.Equal(t, []string{"b", "a"}, w.Header().Values("X-Test"))
}

func TestServerWithMetrics(t *testing.T) {
	metrics := &testMetrics{}
	s := New(&testApp{}, WithMetrics(metrics))
	assert.Equal(t, metrics, s.Metrics)
	serve(s, http.MethodGet, "/test")
	serve(s, http.MethodGet, "/healthcheck")
	assert.Equal(t, 2, metrics.HandleCnt)
}

func TestIsNil(t *testing.T) {
	var app *testApp
	var i any = app
	assert.True(t, isNil(nil))
	assert.True(t, isNil(app))
	assert.True(t, isNil(i))
	assert.False(t, isNil(&testApp{}))
	assert.False(t, isNil("string"))
	assert.False(t, isNil(map[string]string(nil)))
}

func TestPanicHandler(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	s := New(&testApp{}, WithLogger(zap.New(core)))

	for _, v := range []any{fmt.Errorf("test error"), "string panic"} {
		logs.TakeAll()
		handler := s.panicHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic(v)
		}))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), fmt.Sprint(v))
		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Equal(t, "panic", entries[0].Message)
	}

	assert.Panics(t, func() {
		s.panicHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic(http.ErrAbortHandler)
		})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
