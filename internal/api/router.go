package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc ReviewService, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Queue and aggregates.
	r.Get("/due", h.Due)
	r.Get("/stats", h.Stats)

	// Per-note schedule and review log.
	r.Get("/schedules/*", h.GetSchedule)
	r.Post("/reviews/*", h.RecordReview)
	r.Get("/reviews/*", h.ListReviews)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
