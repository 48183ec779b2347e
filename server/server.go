// Package server runs the filter service over HTTP with lifecycle handling
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"reflect"
	"strconv"
	"syscall"
	"time"

	"github.com/TheZeroSlave/zapsentry"
	"github.com/getsentry/sentry-go"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Service http handler with startup and shutdown lifecycle
type Service interface {
	http.Handler
	Startup(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// Metrics request metrics with lifecycle
type Metrics interface {
	Handle(next http.Handler) http.Handler
	Startup(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// Middleware http middleware
type Middleware func(http.Handler) http.Handler

// Server wraps the Service with additional http and app lifecycle handling
type Server struct {
	http.Server
	App              Service
	Address          string
	Port             int
	CertFile         string
	KeyFile          string
	PathPrefix       string
	SentryDsn        string
	CORS             bool
	StripQueryString bool
	AccessLog        bool
	StartupTimeout   time.Duration
	ShutdownTimeout  time.Duration
	Logger           *zap.Logger
	Debug            bool
	Metrics          Metrics

	middleware Middleware
	sentry     *sentry.Client
}

// New creates Server
func New(app Service, options ...Option) *Server {
	s := &Server{
		App:             app,
		Port:            8000,
		StartupTimeout:  time.Second * 10,
		ShutdownTimeout: time.Second * 10,
		Logger:          zap.NewNop(),
	}
	s.ReadHeaderTimeout = time.Second * 30
	s.MaxHeaderBytes = 1 << 20
	for _, option := range options {
		option(s)
	}
	if s.Addr == "" {
		s.Addr = s.Address + ":" + strconv.Itoa(s.Port)
	}
	if s.SentryDsn != "" {
		s.Logger = s.withSentry(s.Logger)
	}

	var handler http.Handler = app
	if s.middleware != nil {
		handler = s.middleware(handler)
	}
	handler = noopHandler(handler)
	if s.StripQueryString {
		handler = stripQueryStringHandler(handler)
	}
	if s.PathPrefix != "" {
		handler = http.StripPrefix(s.PathPrefix, handler)
	}
	if s.CORS {
		handler = cors.Default().Handler(handler)
	}
	if s.AccessLog {
		handler = s.accessLogHandler(handler)
	}
	handler = s.panicHandler(handler)
	if !isNil(s.Metrics) {
		handler = s.Metrics.Handle(handler)
	}
	s.Handler = handler
	s.ErrorLog = log.New(&serverErrorLogWriter{Logger: s.Logger}, "", 0)
	return s
}

// withSentry tees error logs to Sentry
func (s *Server) withSentry(logger *zap.Logger) *zap.Logger {
	client, err := sentry.NewClient(sentry.ClientOptions{Dsn: s.SentryDsn, Debug: s.Debug})
	if err != nil {
		logger.Error("sentry", zap.Error(err))
		return logger
	}
	core, err := zapsentry.NewCore(zapsentry.Configuration{
		Level:             zapcore.ErrorLevel,
		EnableBreadcrumbs: true,
		BreadcrumbLevel:   zapcore.InfoLevel,
	}, zapsentry.NewSentryClientFromClient(client))
	if err != nil {
		logger.Error("sentry", zap.Error(err))
		return logger
	}
	s.sentry = client
	return zapsentry.AttachCoreToLogger(core, logger)
}

// Run server that terminates on SIGINT, SIGTERM signals
func (s *Server) Run() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	s.RunContext(ctx)
}

// RunContext run server with context, shuts down once ctx is done
func (s *Server) RunContext(ctx context.Context) {
	s.startup(ctx)

	go func() {
		if err := s.listenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Fatal("listen", zap.Error(err))
		}
	}()
	s.Logger.Info("listen", zap.String("addr", s.Addr))

	<-ctx.Done()

	s.shutdown(context.Background())
}

func (s *Server) startup(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.StartupTimeout)
	defer cancel()
	if err := s.App.Startup(ctx); err != nil {
		s.Logger.Fatal("app-startup", zap.Error(err))
	}
	if !isNil(s.Metrics) {
		if err := s.Metrics.Startup(ctx); err != nil {
			s.Logger.Fatal("metrics-startup", zap.Error(err))
		}
	}
}

func (s *Server) shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.ShutdownTimeout)
	defer cancel()
	s.Logger.Info("shutdown")
	if err := s.Shutdown(ctx); err != nil {
		s.Logger.Error("server-shutdown", zap.Error(err))
	}
	if !isNil(s.Metrics) {
		if err := s.Metrics.Shutdown(ctx); err != nil {
			s.Logger.Error("metrics-shutdown", zap.Error(err))
		}
	}
	if err := s.App.Shutdown(ctx); err != nil {
		s.Logger.Error("app-shutdown", zap.Error(err))
	}
	if s.sentry != nil {
		s.sentry.Flush(2 * time.Second)
	}
}

func (s *Server) listenAndServe() error {
	if s.CertFile != "" && s.KeyFile != "" {
		return s.ListenAndServeTLS(s.CertFile, s.KeyFile)
	}
	return s.ListenAndServe()
}

func isNil(c any) bool {
	if c == nil {
		return true
	}
	v := reflect.ValueOf(c)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
