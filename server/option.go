package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Option Server option
type Option func(s *Server)

// WithAddr with listen addr option, takes precedence over address and port
func WithAddr(addr string) Option {
	return func(s *Server) {
		s.Addr = addr
	}
}

// WithAddress with host address option
func WithAddress(address string) Option {
	return func(s *Server) {
		s.Address = address
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

// WithCertFile with TLS cert and key files
func WithCertFile(certFile, keyFile string) Option {
	return func(s *Server) {
		s.CertFile = certFile
		s.KeyFile = keyFile
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

// WithMiddleware with middleware wrapping the service handler
func WithMiddleware(middleware Middleware) Option {
	return func(s *Server) {
		if middleware == nil {
			return
		}
		if prev := s.middleware; prev != nil {
			s.middleware = func(next http.Handler) http.Handler {
				return middleware(prev(next))
			}
		} else {
			s.middleware = middleware
		}
	}
}

// WithPathPrefix with path prefix option
func WithPathPrefix(prefix string) Option {
	return func(s *Server) {
		s.PathPrefix = prefix
	}
}

// WithCORS with default CORS handling option
func WithCORS(enabled bool) Option {
	return func(s *Server) {
		s.CORS = enabled
	}
}

// WithStripQueryString redirects requests with query string to the path without it
func WithStripQueryString(enabled bool) Option {
	return func(s *Server) {
		s.StripQueryString = enabled
	}
}

// WithAccessLog with access log option
func WithAccessLog(enabled bool) Option {
	return func(s *Server) {
		s.AccessLog = enabled
	}
}

// WithSentry with Sentry DSN option, error logs are reported to Sentry
func WithSentry(dsn string) Option {
	return func(s *Server) {
		s.SentryDsn = dsn
	}
}

// WithStartupTimeout with app startup timeout option
func WithStartupTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		if timeout > 0 {
			s.StartupTimeout = timeout
		}
	}
}

// WithShutdownTimeout with graceful shutdown timeout option
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		if timeout > 0 {
			s.ShutdownTimeout = timeout
		}
	}
}

// WithMetrics with request metrics option
func WithMetrics(metrics Metrics) Option {
	return func(s *Server) {
		if !isNil(metrics) {
			s.Metrics = metrics
		}
	}
}

// WithDebug with debug option
func WithDebug(debug bool) Option {
	return func(s *Server) {
		s.Debug = debug
	}
}
