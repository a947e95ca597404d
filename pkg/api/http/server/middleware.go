package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/voidshard/foreman/internal/metrics"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer (for Flush).
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// metricsMiddleware records request counts & durations labelled by route template.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		metrics.RecordHTTPRequest(r.Method, route, strconv.Itoa(sw.status), time.Since(start))
	})
}

// loggingMiddleware shims in a handler middleware that logs requests.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zap.L().Debug("request", zap.String("method", r.Method), zap.String("uri", r.RequestURI), zap.Int64("length", r.ContentLength))
		next.ServeHTTP(w, r)
	})
}
