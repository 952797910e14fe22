// Package middleware provides HTTP middleware for the sapclean server.
package middleware

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/sapclean/internal/logging"
)

// Logger logs one structured entry per request once the handler returns.
//
// Entries carry the chi request id through logging.FromContext, so a request
// line can be matched with the run entries it produced. Fields:
//   - method, path, status
//   - bytes: response body size
//   - duration_ms
//   - ip: RemoteAddr after TrustedRealIP
//   - run_id: the X-Run-ID response header when the request started a run
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(ww, r)

		args := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"bytes", ww.written,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", r.RemoteAddr,
		}
		if runID := ww.Header().Get("X-Run-ID"); runID != "" {
			args = append(args, "run_id", runID)
		}

		logger := logging.FromContext(r.Context())
		if ww.status >= http.StatusInternalServerError {
			logger.Error("request", args...)
			return
		}
		logger.Info("request", args...)
	})
}

// responseWriter records the status code and body size.
type responseWriter struct {
	http.ResponseWriter
	status      int
	written     int64
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.written += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
