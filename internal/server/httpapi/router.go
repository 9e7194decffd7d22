package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler builds the router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/health/", s.handleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
	})

	// Bearer-protected routes. Role requirements are enforced by the services.
	r.Route("/users", func(r chi.Router) {
		r.Get("/", s.handleListUsers)
		r.Get("/me", s.handleMe)
	})

	r.Route("/roles", func(r chi.Router) {
		r.Get("/", s.handleListRoles)
		r.Post("/", s.handleCreateRole)
	})

	return r
}
