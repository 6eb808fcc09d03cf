package handlers

import (
	"net/http"
	"strconv"

	"github.com/hoanghai1803/ilistas/internal/lists"
	"github.com/hoanghai1803/ilistas/internal/models"
)

// GetSnapshots handles GET /api/snapshots. The optional "limit" query
// parameter caps the number returned.
func GetSnapshots(svc *lists.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = n
		}

		snaps, err := svc.Snapshots(r.Context(), limit)
		if err != nil {
			writeServiceError(w, "get snapshots", err)
			return
		}
		if snaps == nil {
			snaps = []models.Snapshot{}
		}

		writeJSON(w, http.StatusOK, snaps)
	}
}

// RestoreSnapshot handles POST /api/snapshots/{snapshotID}/restore.
func RestoreSnapshot(svc *lists.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := urlParam(r, "snapshotID")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid snapshot ID")
			return
		}

		c, err := svc.RestoreSnapshot(r.Context(), id)
		if err != nil {
			writeServiceError(w, "restore snapshot", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status":   "restored",
			"lists":    len(c),
			"redirect": IndexPath,
		})
	}
}
