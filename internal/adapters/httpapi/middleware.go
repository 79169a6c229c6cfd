package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tripleclub/travel-group-api/internal/domain"
)

// RequestID assigns a UUID to every request and echoes it back so clients
// can correlate error envelopes with server logs.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// NewIdentityMiddleware resolves the caller from the X-User-Id header.
//
// This is a dev shim standing in for session resolution at the gateway; it
// keeps the handlers honest about requiring an identity without dragging an
// auth provider into local workflows.
func NewIdentityMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}

			raw := strings.TrimSpace(r.Header.Get("X-User-Id"))
			if raw == "" {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing X-User-Id header", nil)
				return
			}
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "malformed X-User-Id header", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), domain.UserID(id))))
		})
	}
}

// NewLoggingMiddleware logs one line per request. User identifiers are
// masked before they reach the logs.
func NewLoggingMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("userId", maskID(r.Header.Get("X-User-Id"))),
				zap.String("requestId", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// maskID keeps the first and last character and stars the rest.
func maskID(id string) string {
	if len(id) < 3 {
		return "*"
	}
	return id[:1] + strings.Repeat("*", len(id)-2) + id[len(id)-1:]
}
