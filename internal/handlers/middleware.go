package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"survey-relay-service/internal/config"
	"survey-relay-service/internal/logger"
	"survey-relay-service/internal/metrics"
)

type ctxKey string

const (
	ctxCallerKey ctxKey = "caller_api_key"
	ctxRequestID ctxKey = "request_id"
)

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

// WithRequestLogging tags every request with an id, returned as X-Request-ID,
// and logs it on the way in and out.
func WithRequestLogging(log logger.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", reqID)

			start := time.Now()
			path := r.URL.Path
			if r.URL.RawQuery != "" {
				path = path + "?" + r.URL.RawQuery
			}
			log.Debug("http in", map[string]interface{}{"id": reqID, "method": r.Method, "path": path})

			sw := &statusWriter{ResponseWriter: w}
			ctx := context.WithValue(r.Context(), ctxRequestID, reqID)
			next.ServeHTTP(sw, r.WithContext(ctx))

			status := sw.status
			if status == 0 {
				status = http.StatusOK
			}
			metrics.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
			log.Info("http out", map[string]interface{}{
				"id":     reqID,
				"method": r.Method,
				"path":   path,
				"status": status,
				"bytes":  sw.bytes,
				"dur_ms": time.Since(start).Milliseconds(),
			})
		})
	}
}

// WithAPIKey requires a known X-API-Key. With no keys configured it lets
// every request through.
func WithAPIKey(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(cfg.AgentAPIKeys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get("X-API-Key"))
			if key == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "missing_x_api_key"})
				return
			}
			if !knownKey(cfg.AgentAPIKeys, key) {
				writeJSON(w, http.StatusForbidden, map[string]any{"error": "invalid_x_api_key"})
				return
			}
			ctx := context.WithValue(r.Context(), ctxCallerKey, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func knownKey(keys map[string]struct{}, key string) bool {
	found := 0
	for k := range keys {
		found |= subtle.ConstantTimeCompare([]byte(k), []byte(key))
	}
	return found == 1
}

func CallerKey(r *http.Request) string {
	v, _ := r.Context().Value(ctxCallerKey).(string)
	return strings.TrimSpace(v)
}

func RequestID(r *http.Request) string {
	v, _ := r.Context().Value(ctxRequestID).(string)
	return v
}

// MethodNotAllowed answers any verb a route does not serve.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "Method not allowed"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
