package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/sensemap/internal/mapservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// images, if non-nil, enables POST /images.
func NewRouter(svc *mapservice.Service, authEnabled bool, token string, sseHandler http.Handler, images *ImageHandler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/maps", func(r chi.Router) {
		r.Get("/", h.ListMaps)
		r.Post("/", h.CreateMap)
		r.Route("/{mapID}", func(r chi.Router) {
			r.Get("/", h.GetMap)
			r.Patch("/", h.UpdateMap)
			r.Delete("/", h.DeleteMap)
			r.Post("/objects", h.CreateObject)
			r.Post("/boxes", h.CreateBox)
			r.Get("/scope", h.Scope)
			r.Get("/search", h.Search)
		})
	})

	r.Get("/objects/{objectID}", h.GetObject)
	r.Patch("/objects/{objectID}", h.UpdateObject)
	r.Delete("/objects/{objectID}", h.DeleteObject)

	r.Get("/boxes/{boxID}", h.GetBox)
	r.Patch("/boxes/{boxID}", h.UpdateBox)
	r.Delete("/boxes/{boxID}", h.DeleteBox)
	r.Put("/boxes/{boxID}/contains/{objectID}", h.AddToBox)
	r.Delete("/boxes/{boxID}/contains/{objectID}", h.RemoveFromBox)

	if images != nil {
		r.Post("/images", images.Upload)
	}

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
