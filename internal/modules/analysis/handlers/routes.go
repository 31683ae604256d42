package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all event study routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/events", func(r chi.Router) {
		r.Post("/fit", h.HandleFit)
		r.Get("/windows", h.HandleGetWindows)

		r.Route("/effects", func(r chi.Router) {
			r.Get("/index", h.HandleGetIndexEffect)
			r.Get("/industry", h.HandleGetIndustryEffect)
			r.Get("/stock", h.HandleGetStockEffect)
		})

		r.Get("/stocks/{code}/analysis", h.HandleGetStockAnalysis)
	})
}
