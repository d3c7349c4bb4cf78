package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/mpmonitor/internal/common"
	"github.com/dmitrijs2005/mpmonitor/internal/logging"
	"github.com/dmitrijs2005/mpmonitor/internal/server/auth"
	"github.com/go-chi/chi/v5/middleware"
)

// Authenticator verifies bearer tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

type claimsKey struct{}

func claimsFrom(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return c, ok
}

type authMiddleware struct {
	responder     Responder
	authenticator Authenticator
}

func (m authMiddleware) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		if !strings.HasPrefix(header, common.BearerPrefix) {
			m.responder.WriteError(w, r, common.ErrorUnauthorized)
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, common.BearerPrefix))
		if token == "" {
			m.responder.WriteError(w, r, common.ErrorUnauthorized)
			return
		}

		claims, err := m.authenticator.Authenticate(r.Context(), token)
		if err != nil {
			m.responder.WriteError(w, r, err)
			return
		}

		ctx := auth.WithPrincipal(r.Context(), claims.Principal())
		ctx = context.WithValue(ctx, claimsKey{}, claims)
		ctx = logging.ContextWith(ctx, "user_id", claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLogger logs one line per request, at a level chosen by status, and
// adds the request id to the context so downstream logs carry it.
func requestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			if id := middleware.GetReqID(r.Context()); id != "" {
				r = r.WithContext(logging.ContextWith(r.Context(), "request_id", id))
			}
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"duration", time.Since(start).String(),
				"remote_addr", r.RemoteAddr,
			}

			switch {
			case status >= 500:
				logger.Error(r.Context(), "http request", args...)
			case status >= 400:
				logger.Warn(r.Context(), "http request", args...)
			default:
				logger.Info(r.Context(), "http request", args...)
			}
		})
	}
}
