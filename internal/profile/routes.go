package profile

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts the profile endpoints. Every route needs a verified
// session, supplied by the session middleware.
func SetupRoutes(h *Handler, session func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(session)
		r.Get("/me", h.MeHandler)
		r.Patch("/me", h.UpdateMeHandler)
		r.Post("/bootstrap", h.BootstrapHandler)
	})

	return r
}
