package handlers

import (
	"errors"
	"net/http"

	"github.com/hoanghai1803/ilistas/internal/lists"
)

// ImportShare handles GET /share/{shareID}?data=<token>. On success the list
// is created, or found if it was imported before, and the response points
// the client at it. An undecodable token yields 422 with a redirect to the
// index.
func ImportShare(svc *lists.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shareID, err := urlParam(r, "shareID")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		res, err := svc.Import(r.Context(), r.URL.Query().Get("data"), shareID)
		if errors.Is(err, lists.ErrImportFailed) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"status":   lists.ImportFailed,
				"error":    err.Error(),
				"redirect": IndexPath,
			})
			return
		}
		if err != nil {
			writeServiceError(w, "import share link", err)
			return
		}

		status := lists.ImportCreated
		if res.AlreadyImported {
			status = lists.ImportExisting
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":   status,
			"list":     res.List,
			"redirect": listPath(res.List.ID),
		})
	}
}
