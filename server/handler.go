package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cshum/filterkit"
	"github.com/felixge/httpsnoop"
	"go.uber.org/zap"
)

func isNoopRequest(r *http.Request) bool {
	return r.Method == http.MethodGet && (r.URL.Path == "/healthcheck" || r.URL.Path == "/favicon.ico")
}

func handleOk(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Has("stats") {
		resJSON(w, http.StatusOK, GetHealthStats())
		return
	}
	handleOk(w, r)
}

func noopHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isNoopRequest(r) {
			next.ServeHTTP(w, r)
			return
		}
		if r.URL.Path == "/healthcheck" {
			handleHealth(w, r)
			return
		}
		handleOk(w, r)
	})
}

func stripQueryStringHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			u := *r.URL
			u.RawQuery = ""
			http.Redirect(w, r, u.String(), http.StatusTemporaryRedirect)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) panicHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("%v", rec)
				}
				if err == http.ErrAbortHandler {
					panic(rec)
				}
				s.Logger.Error("panic", zap.Error(err), zap.String("uri", r.URL.String()))
				resJSON(w, http.StatusInternalServerError, filterkit.NewError(err.Error(), http.StatusInternalServerError))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) accessLogHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		s.Logger.Info("access",
			zap.Int("status", m.Code),
			zap.String("method", r.Method),
			zap.String("uri", r.URL.String()),
			zap.String("ip", RealIP(r)),
			zap.String("user-agent", r.UserAgent()),
			zap.Int64("written", m.Written),
			zap.Duration("took", m.Duration.Round(time.Microsecond)),
		)
	})
}

func resJSON(w http.ResponseWriter, status int, v any) {
	buf, _ := json.Marshal(v)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

// serverErrorLogWriter routes net/http server errors to zap,
// demoting noisy client side errors to debug
type serverErrorLogWriter struct {
	Logger *zap.Logger
}

func (w *serverErrorLogWriter) Write(p []byte) (int, error) {
	msg := strings.TrimSpace(string(p))
	if strings.HasPrefix(msg, "http: TLS handshake error") ||
		strings.HasPrefix(msg, "http: URL query contains semicolon") {
		w.Logger.Debug("server", zap.String("log", msg))
	} else {
		w.Logger.Warn("server", zap.String("log", msg))
	}
	return len(p), nil
}
