// Package prometheusmetrics exposes filter and HTTP metrics for Prometheus
package prometheusmetrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/cshum/filterkit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server serves the metrics endpoint and collects filterkit metrics
type Server struct {
	http.Server

	Host      string
	Port      int
	Path      string
	Namespace string
	Logger    *zap.Logger
	Registry  *prometheus.Registry

	filterDuration *prometheus.HistogramVec
	filterCounter  *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New create new metrics Server
func New(options ...Option) *Server {
	s := &Server{
		Port:      9000,
		Path:      "/metrics",
		Namespace: "filterkit",
		Logger:    zap.NewNop(),
		Registry:  prometheus.NewRegistry(),
	}
	for _, option := range options {
		option(s)
	}
	if s.Addr == "" {
		s.Addr = s.Host + ":" + strconv.Itoa(s.Port)
	}

	s.filterDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: s.Namespace,
		Name:      "filter_duration_seconds",
		Help:      "A histogram of latencies for filter applications",
		Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"filter", "status"})
	s.filterCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: s.Namespace,
		Name:      "filter_calls_total",
		Help:      "Total number of filter applications",
	}, []string{"filter", "status"})
	s.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: s.Namespace,
		Name:      "http_request_duration_seconds",
		Help:      "A histogram of latencies for requests",
		Buckets:   prometheus.DefBuckets,
	}, []string{"code", "method"})
	s.Registry.MustRegister(
		s.filterDuration,
		s.filterCounter,
		s.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mux := http.NewServeMux()
	mux.Handle(s.Path, promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, s.Path, http.StatusPermanentRedirect)
	})
	s.Handler = mux
	return s
}

// Startup listens the metrics server in background
func (s *Server) Startup(_ context.Context) error {
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Fatal("prometheus listen", zap.Error(err))
		}
	}()
	s.Logger.Info("prometheus listen", zap.String("addr", s.Addr), zap.String("path", s.Path))
	return nil
}

// Handle instruments request latencies of next
func (s *Server) Handle(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerDuration(s.httpDuration, next)
}

// ObserveFilter implements service.Metrics
func (s *Server) ObserveFilter(name string, d time.Duration, err error) {
	status := "success"
	switch {
	case err == nil:
	case filterkit.IsPass(err):
		status = "pass"
	default:
		status = "error"
	}
	s.filterDuration.WithLabelValues(name, status).Observe(d.Seconds())
	s.filterCounter.WithLabelValues(name, status).Inc()
	if ce := s.Logger.Check(zap.DebugLevel, "filter"); ce != nil {
		ce.Write(
			zap.String("filter", name),
			zap.Duration("duration", d),
			zap.String("status", status),
			zap.Error(err))
	}
}

// Option Server option
type Option func(s *Server)

// WithAddr with listen addr option, takes precedence over host and port
func WithAddr(addr string) Option {
	return func(s *Server) {
		s.Addr = addr
	}
}

// WithHost with server address option
func WithHost(address string) Option {
	return func(s *Server) {
		s.Host = address
	}
}

// WithPort with port option
func WithPort(port int) Option {
	return func(s *Server) {
		if port > 0 {
			s.Port = port
		}
	}
}

// WithPath with path option
func WithPath(path string) Option {
	return func(s *Server) {
		if path != "" {
			s.Path = path
		}
	}
}

// WithNamespace with metric namespace option
func WithNamespace(namespace string) Option {
	return func(s *Server) {
		s.Namespace = namespace
	}
}

// WithLogger with logger option
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.Logger = logger
		}
	}
}
