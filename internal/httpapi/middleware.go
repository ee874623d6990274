package httpapi

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Farizu224/vending-machine-web/internal/session"
)

// SessionCookie carries the opaque browsing session id.
const SessionCookie = "storefront_session"

type ctxKey int

const sessionKey ctxKey = iota

// SessionMiddleware binds every request to a browsing session: an existing
// cookie resolves (or revives) its session, anything else starts a fresh one
// and sets the cookie.
func SessionMiddleware(registry *session.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var entry *session.Entry
			if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
				entry, _ = registry.Get(r.Context(), cookie.Value)
			}
			if entry == nil {
				entry = registry.Create()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    entry.ID,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), sessionKey, entry)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the browsing session bound by the middleware.
func SessionFromContext(ctx context.Context) *session.Entry {
	entry, _ := ctx.Value(sessionKey).(*session.Entry)
	return entry
}

// LoggingMiddleware logs one line per request.
func LoggingMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Duration("took", time.Since(start)))
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
