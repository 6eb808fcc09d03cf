package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hoanghai1803/ilistas/internal/storage"
)

// Health handles GET /healthz. It reports "ok" when the collection can be
// read, "degraded" when it is stored but unreadable, and 503 when the store
// itself fails.
func Health(store storage.CollectionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, err := store.Load(r.Context())
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		case errors.Is(err, storage.ErrMalformed):
			writeJSON(w, http.StatusOK, map[string]string{"status": "degraded", "error": err.Error()})
		default:
			slog.Error("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
}
