package middleware

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/clientdesk/clientdesk/pkg/composables"
	"github.com/clientdesk/clientdesk/pkg/configuration"
)

type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
		w.ResponseWriter.WriteHeader(code)
	}
}

func (w *statusWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *statusWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// WithLogger attaches a request-scoped logger (component, request id, route)
// to the context and logs one line per request on completion. Panics are
// recovered, logged with a stack, and converted to a 500.
func WithLogger(logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			header := strings.TrimSpace(configuration.Use().RequestIDHeader)
			if header == "" {
				header = "X-Request-ID"
			}
			requestID := strings.TrimSpace(r.Header.Get(header))
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(header, requestID)

			entry := logger.WithFields(logrus.Fields{
				"request_id": requestID,
				"method":     r.Method,
				"path":       r.URL.Path,
			})
			ctx := composables.WithRequestID(r.Context(), requestID)
			ctx = composables.WithLogger(ctx, entry)

			sw := &statusWriter{ResponseWriter: w}

			defer func() {
				if rec := recover(); rec != nil {
					entry.WithFields(logrus.Fields{
						"panic": rec,
						"stack": string(debug.Stack()),
					}).Error("request panicked")
					if !sw.written {
						http.Error(sw, "internal server error", http.StatusInternalServerError)
					}
					return
				}
				entry.WithFields(logrus.Fields{
					"status":   sw.Status(),
					"duration": time.Since(start).String(),
				}).Info("request completed")
			}()

			next.ServeHTTP(sw, r.WithContext(ctx))
		})
	}
}

// ProvideUser extracts the caller identity from the configured header. Actual
// authentication happens upstream; this middleware only consumes its result.
func ProvideUser() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(configuration.Use().UserEmailHeader)
			if header == "" {
				header = "X-User-Email"
			}
			if email := strings.TrimSpace(r.Header.Get(header)); email != "" {
				r = r.WithContext(composables.WithUser(r.Context(), strings.ToLower(email)))
			}
			next.ServeHTTP(w, r)
		})
	}
}
