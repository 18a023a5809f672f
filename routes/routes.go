package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/travelhub/travel-hub/app"
)

// newRouter builds the middleware stack shared by the portal and the desk
// gateways.
func newRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	return r
}

// SetupPortalRoutes configures the central auth portal: login, logout, and
// the current-user endpoint. Login sits behind the per-IP rate limiter.
func SetupPortalRoutes(deps *app.Dependencies) http.Handler {
	r := newRouter()

	r.Get("/health", deps.HealthHandler.HandleHealth)
	r.Get("/health/ready", deps.HealthHandler.HandleReadiness)

	r.Route("/auth", func(r chi.Router) {
		r.With(deps.LoginLimiter.Limit).Post("/login", deps.AuthHandler.HandleLogin)
		r.Post("/logout", deps.SessionHandler.HandleLogout)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(deps.Guard.RequireAuth)
		r.Get("/me", deps.SessionHandler.HandleMe)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}

// SetupDeskRoutes configures a desk gateway: the landing endpoint that
// redeems exchange codes, plus guarded session endpoints. protected is the
// desk's own handler tree and runs behind the session guard.
func SetupDeskRoutes(deps *app.Dependencies, protected http.Handler) http.Handler {
	r := newRouter()

	r.Get("/health", deps.HealthHandler.HandleHealth)
	r.Get("/health/ready", deps.HealthHandler.HandleReadiness)

	r.Get("/session/landing", deps.SessionHandler.HandleLanding)
	r.Post("/auth/logout", deps.SessionHandler.HandleLogout)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(deps.Guard.RequireAuth)
		r.Get("/me", deps.SessionHandler.HandleMe)
	})

	if protected != nil {
		r.Group(func(r chi.Router) {
			r.Use(deps.Guard.RequireAuth)
			r.Handle("/*", protected)
		})
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
