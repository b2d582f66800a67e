package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/uruz/internal/matservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *matservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Materials CRUD.
	r.Get("/materials", h.ListMaterials)
	r.Post("/materials", h.CreateMaterial)
	r.Get("/materials/*", h.GetMaterial)
	r.Put("/materials/*", h.UpdateMaterial)
	r.Delete("/materials/*", h.DeleteMaterial)

	// Search.
	r.Get("/search", h.Search)

	// Property queries.
	r.Get("/value", h.ValueAt)
	r.Get("/table", h.Table)

	// Composition matching.
	r.Post("/composition/match", h.MatchComposition)

	// Library facets.
	r.Get("/areas", h.Areas)
	r.Get("/sources", h.Sources)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
