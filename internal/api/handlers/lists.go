package handlers

import (
	"log/slog"
	"net/http"

	"github.com/hoanghai1803/ilistas/internal/lists"
	"github.com/hoanghai1803/ilistas/internal/models"
)

// GetLists handles GET /api/lists. It returns the list index and whether the
// watched list is among the lists shown.
func GetLists(svc *lists.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := svc.Index(r.Context())
		if err != nil {
			writeServiceError(w, "get lists", err)
			return
		}

		watchedVisible := false
		for _, l := range all {
			if l.IsWatched {
				watchedVisible = true
			}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"lists":          all,
			"watchedVisible": watchedVisible,
		})
	}
}

// CreateList handles POST /api/lists.
func CreateList(svc *lists.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Title       string `json:"titulo"`
			Description string `json:"descricao"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		l, err := svc.CreateList(r.Context(), body.Title, body.Description)
		if err != nil {
			writeServiceError(w, "create list", err)
			return
		}

		writeJSON(w, http.StatusCreated, l)
	}
}

// GetList handles GET /api/lists/{id}. For the watched list the response
// also maps every origin list ID to its title.
func GetList(svc *lists.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := urlParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		l, err := svc.Get(ctx, id)
		if err != nil {
			writeServiceError(w, "get list", err)
			return
		}

		resp := map[string]any{"list": l}
		if l.IsWatched {
			titles, err := svc.OriginTitles(ctx)
			if err != nil {
				writeServiceError(w, "get list", err)
				return
			}
			resp["originTitles"] = titles
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// DeleteList handles DELETE /api/lists/{id}. Watched copies of the list's
// items are removed with it.
func DeleteList(svc *lists.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := svc.DeleteList(r.Context(), id); err != nil {
			writeServiceError(w, "delete list", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "removed", "redirect": IndexPath})
	}
}

// GetMoveTargets handles GET /api/lists/{id}/targets.
func GetMoveTargets(svc *lists.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		targets, err := svc.MoveTargets(r.Context(), id)
		if err != nil {
			writeServiceError(w, "get move targets", err)
			return
		}
		if targets == nil {
			targets = []models.List{}
		}

		writeJSON(w, http.StatusOK, targets)
	}
}

// ShareList handles POST /api/lists/{id}/share. Links are built on
// publicURL, or on the request's own origin when publicURL is empty.
func ShareList(svc *lists.Service, publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		origin := publicURL
		if origin == "" {
			origin = requestOrigin(r)
		}

		l, link, err := svc.Share(r.Context(), id, origin)
		if err != nil {
			writeServiceError(w, "share list", err)
			return
		}

		slog.Info("list shared", "list_id", l.ID, "share_id", l.ShareID)
		writeJSON(w, http.StatusOK, map[string]string{
			"shareId": l.ShareID,
			"url":     link,
		})
	}
}
