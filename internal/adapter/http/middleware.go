package adapthttp

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"glucotrack/internal/app"
	"glucotrack/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type contextKey string

const (
	userContextKey      contextKey = "user"
	requestIDContextKey contextKey = "request_id"
	requestLogKey       contextKey = "request_log"
)

const requestIDHeader = "X-Request-ID"

// requestLog carries details discovered deeper in the chain back to the
// access log.
type requestLog struct {
	userID int64
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// requestIDMiddleware reuses an incoming X-Request-ID or assigns a new one
// and echoes it on the response.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

// loggingMiddleware writes one structured line per request and records the
// request metrics.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		info := &requestLog{}

		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestLogKey, info)))

		duration := time.Since(start)
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		s.metrics.RecordHTTPRequest(r.Method, route, rec.statusCode, duration)

		args := []any{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("route", route),
			slog.Int("status", rec.statusCode),
			slog.Float64("duration_ms", float64(duration.Nanoseconds())/float64(time.Millisecond)),
			slog.String("request_id", requestIDFromContext(r.Context())),
		}
		if info.userID != 0 {
			args = append(args, slog.Int64("user_id", info.userID))
		}

		level := slog.LevelInfo
		if rec.statusCode >= 500 {
			level = slog.LevelError
		} else if rec.statusCode >= 400 {
			level = slog.LevelWarn
		}
		s.logger.Log(r.Context(), level, "http_request", args...)
	})
}

// recoveryMiddleware turns a panic into a 500 response.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.ErrorContext(r.Context(), "panic recovered",
					slog.Any("panic", rec),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("stack", string(debug.Stack())),
				)
				writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		next.ServeHTTP(w, r)
	})
}

// authMiddleware validates session tokens and, when trusted, forward auth
// headers.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.trustRemoteUser {
			if remoteUser := r.Header.Get("Remote-User"); remoteUser != "" {
				user, err := s.auth.ValidateForwardAuth(r.Context(), remoteUser)
				if err == nil && user != nil {
					next.ServeHTTP(w, withUser(r, user))
					return
				}
			}
		}

		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			s.respondError(w, r, app.ErrNotAuthenticated)
			return
		}

		user, err := s.auth.CurrentUser(r.Context(), cookie.Value)
		if err != nil {
			s.respondError(w, r, err)
			return
		}

		next.ServeHTTP(w, withUser(r, user))
	})
}

func withUser(r *http.Request, user *domain.User) *http.Request {
	if info, ok := r.Context().Value(requestLogKey).(*requestLog); ok {
		info.userID = user.ID
	}
	return r.WithContext(context.WithValue(r.Context(), userContextKey, user))
}

func userFromContext(r *http.Request) *domain.User {
	user, _ := r.Context().Value(userContextKey).(*domain.User)
	return user
}
