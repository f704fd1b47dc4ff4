// internal/api/router.go
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter wires all endpoints. Registering each route with its method
// lets chi answer non-POST requests with 405 directly.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/api/checkout-session", h.CreateCheckoutSession)
	r.Post("/api/auth", h.HandleAuth)
	r.Post("/webhook/stripe", h.HandleStripeWebhook)
	r.Post("/internal/daily-check", h.RunDailyCheck)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	return r
}
