// Package httpapi serves category menus and navigation sessions over HTTP.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMid "github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the chi router. A non-positive timeout disables the
// per-request deadline.
func NewRouter(svc NavigationService, timeout time.Duration) http.Handler {
	h := &handler{svc: svc}

	r := chi.NewRouter()
	r.Use(chiMid.RequestID)
	r.Use(chiMid.RealIP)
	r.Use(RequestLogger)
	r.Use(chiMid.Recoverer)
	if timeout > 0 {
		r.Use(chiMid.Timeout(timeout))
	}

	r.Get("/healthz", h.health)

	r.Group(func(r chi.Router) {
		r.Use(RequireToken)
		r.Use(WithPermissions)

		r.With(VaryLocale).Get("/menu/{root}", h.menu)
		r.Get("/menu/{root}/children/{id}", h.children)
		r.Get("/menu/{root}/path", h.breadcrumb)

		r.Route("/sessions", func(r chi.Router) {
			r.With(VaryLocale).Post("/", h.createSession)
			r.Get("/{id}", h.getSession)
			r.Delete("/{id}", h.deleteSession)
			r.Post("/{id}/events", h.dispatch)
		})
	})

	return r
}
