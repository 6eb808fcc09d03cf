package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hoanghai1803/ilistas/internal/api/handlers"
	"github.com/hoanghai1803/ilistas/internal/lists"
	"github.com/hoanghai1803/ilistas/internal/metrics"
	"github.com/hoanghai1803/ilistas/internal/storage"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Service *lists.Service
	Store   storage.CollectionStore
	Metrics *metrics.Metrics // optional
	// PublicURL is the origin used in share links. When empty, links are
	// built from the incoming request.
	PublicURL string
}

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(middleware.RequestID)
	r.Use(RequestIDHeader)
	r.Use(RequestLogger)
	r.Use(Recovery)
	r.Use(CORS)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}

	svc := d.Service

	// API sub-router.
	r.Route("/api", func(api chi.Router) {
		api.Get("/lists", handlers.GetLists(svc))
		api.Post("/lists", handlers.CreateList(svc))

		api.Route("/lists/{id}", func(l chi.Router) {
			l.Get("/", handlers.GetList(svc))
			l.Delete("/", handlers.DeleteList(svc))
			l.Get("/targets", handlers.GetMoveTargets(svc))
			l.Post("/share", handlers.ShareList(svc, d.PublicURL))

			l.Post("/items", handlers.AddItem(svc))
			l.Post("/items/from-url", handlers.AddItemFromURL(svc))
			l.Post("/items/from-feed", handlers.ImportFeed(svc))
			l.Patch("/items/{itemID}", handlers.UpdateItem(svc))
			l.Delete("/items/{itemID}", handlers.DeleteItem(svc))
			l.Post("/items/{itemID}/watched", handlers.ToggleWatched(svc))
			l.Post("/items/{itemID}/move", handlers.MoveItem(svc))
		})

		api.Get("/snapshots", handlers.GetSnapshots(svc))
		api.Post("/snapshots/{snapshotID}/restore", handlers.RestoreSnapshot(svc))
	})

	r.Method(http.MethodGet, "/", http.RedirectHandler(handlers.IndexPath, http.StatusFound))
	r.Get("/share/{shareID}", handlers.ImportShare(svc))
	r.Get("/healthz", handlers.Health(d.Store))

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	return r
}
