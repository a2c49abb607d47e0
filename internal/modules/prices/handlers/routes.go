package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all price routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/prices/{instrument}", func(r chi.Router) {
		r.Get("/", h.HandleGetPrices)
		r.Post("/sync", h.HandleSyncPrices)
	})
}
