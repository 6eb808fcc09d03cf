package handlers

import (
	"net/http"

	"github.com/hoanghai1803/ilistas/internal/lists"
	"github.com/hoanghai1803/ilistas/internal/models"
)

// listAndItem reads the {id} and {itemID} URL parameters.
func listAndItem(r *http.Request) (string, string, error) {
	listID, err := urlParam(r, "id")
	if err != nil {
		return "", "", err
	}
	itemID, err := urlParam(r, "itemID")
	if err != nil {
		return "", "", err
	}
	return listID, itemID, nil
}

// AddItem handles POST /api/lists/{id}/items.
func AddItem(svc *lists.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listID, err := urlParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var in models.ItemInput
		if err := decodeBody(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		item, err := svc.AddItem(r.Context(), listID, in)
		if err != nil {
			writeServiceError(w, "add item", err)
			return
		}

		writeJSON(w, http.StatusCreated, item)
	}
}

// AddItemFromURL handles POST /api/lists/{id}/items/from-url. The page at
// "url" is fetched and its title becomes the item name.
func AddItemFromURL(svc *lists.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listID, err := urlParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var body struct {
			URL  string             `json:"url"`
			Type models.ContentType `json:"tipo"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		item, err := svc.AddItemFromURL(r.Context(), listID, body.URL, body.Type)
		if err != nil {
			writeServiceError(w, "add item from URL", err)
			return
		}

		writeJSON(w, http.StatusCreated, item)
	}
}

// ImportFeed handles POST /api/lists/{id}/items/from-feed.
func ImportFeed(svc *lists.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listID, err := urlParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var body struct {
			URLs []string           `json:"urls"`
			Type models.ContentType `json:"tipo"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		res, err := svc.ImportFeed(r.Context(), listID, body.URLs, body.Type)
		if err != nil {
			writeServiceError(w, "import feed", err)
			return
		}

		writeJSON(w, http.StatusOK, res)
	}
}

// UpdateItem handles PATCH /api/lists/{id}/items/{itemID}.
func UpdateItem(svc *lists.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listID, itemID, err := listAndItem(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var in models.ItemInput
		if err := decodeBody(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		item, err := svc.UpdateItem(r.Context(), listID, itemID, in)
		if err != nil {
			writeServiceError(w, "update item", err)
			return
		}

		writeJSON(w, http.StatusOK, item)
	}
}

// DeleteItem handles DELETE /api/lists/{id}/items/{itemID}.
func DeleteItem(svc *lists.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listID, itemID, err := listAndItem(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := svc.DeleteItem(r.Context(), listID, itemID); err != nil {
			writeServiceError(w, "delete item", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
	}
}

// ToggleWatched handles POST /api/lists/{id}/items/{itemID}/watched and
// returns the list after the change.
func ToggleWatched(svc *lists.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listID, itemID, err := listAndItem(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		l, err := svc.ToggleWatched(r.Context(), listID, itemID)
		if err != nil {
			writeServiceError(w, "toggle watched", err)
			return
		}

		writeJSON(w, http.StatusOK, l)
	}
}

// MoveItem handles POST /api/lists/{id}/items/{itemID}/move with body
// {"destino": "<list id>"}.
func MoveItem(svc *lists.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listID, itemID, err := listAndItem(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var body struct {
			Destination string `json:"destino"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		if body.Destination == "" {
			writeError(w, http.StatusBadRequest, "destino is required")
			return
		}

		item, err := svc.MoveItem(r.Context(), itemID, listID, body.Destination)
		if err != nil {
			writeServiceError(w, "move item", err)
			return
		}

		writeJSON(w, http.StatusOK, item)
	}
}
