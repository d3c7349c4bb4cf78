package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/mpmonitor/internal/logging"
	"github.com/dmitrijs2005/mpmonitor/internal/server/projects"
	"github.com/dmitrijs2005/mpmonitor/internal/server/users"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Deps are the collaborators of the router.
type Deps struct {
	Projects       *projects.Service
	Users          *users.Service
	Logger         logging.Logger
	MaxUploadSize  int64
	AllowedOrigins []string
	// Health reports readiness of backing services; nil means always ready.
	Health func(ctx context.Context) error
}

func NewRouter(d Deps) *chi.Mux {
	logger := d.Logger.With("module", "http")
	responder := NewResponder(logger)

	if d.MaxUploadSize <= 0 {
		d.MaxUploadSize = 50 << 20
	}
	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	ph := projectHandler{responder: responder, service: d.Projects, maxUploadSize: d.MaxUploadSize}
	ah := authHandler{responder: responder, users: d.Users}
	am := authMiddleware{responder: responder, authenticator: d.Users}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", healthHandler(responder, d.Health))

	r.Route("/api", func(r chi.Router) {
		r.Get("/projects", ph.list())
		r.Get("/projects/{projectID}", ph.get())
		r.Post("/auth/login", ah.login())

		r.Group(func(r chi.Router) {
			r.Use(am.authenticate)

			r.Post("/auth/logout", ah.logout())
			r.Post("/auth/register", ah.register())

			r.Post("/projects", ph.create())
			r.Put("/projects/{projectID}", ph.update())
			r.Delete("/projects/{projectID}", ph.delete())

			r.Post("/projects/{projectID}/media", ph.uploadMedia())
			r.Patch("/projects/{projectID}/media/*", ph.updateComment())
			r.Delete("/projects/{projectID}/media/*", ph.deleteMedia())

			r.Post("/projects/{projectID}/reports", ph.uploadReport())
			r.Delete("/projects/{projectID}/reports/{reportID}", ph.deleteReport())
		})
	})

	return r
}

func healthHandler(responder Responder, check func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				responder.WriteJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		responder.WriteJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	}
}
