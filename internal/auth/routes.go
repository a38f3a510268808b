package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/session", h.CreateSessionHandler)
	r.Delete("/session", h.DestroySessionHandler)

	return r
}
