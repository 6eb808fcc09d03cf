package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hoanghai1803/ilistas/internal/lists"
	"github.com/hoanghai1803/ilistas/internal/storage"
)

// IndexPath is where clients are sent when the list they asked for is gone.
const IndexPath = "/api/lists"

// listPath is the GET route serving one list.
func listPath(id string) string {
	return IndexPath + "/" + url.PathEscape(id)
}

// writeJSON encodes v as JSON and writes it to the response with the given
// HTTP status code. Content-Type is always set to application/json.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// At this point headers are already sent; log but cannot change status.
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError writes a JSON error response with the given HTTP status code.
// The response body is {"error": "message"}.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeRedirectError is writeError plus a redirect hint for the client.
func writeRedirectError(w http.ResponseWriter, status int, message, redirect string) {
	writeJSON(w, status, map[string]string{"error": message, "redirect": redirect})
}

// writeServiceError maps a lists.Service error to a response. Unknown errors
// are logged with action and reported as 500.
func writeServiceError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, lists.ErrListNotFound):
		writeRedirectError(w, http.StatusNotFound, err.Error(), IndexPath)
	case errors.Is(err, lists.ErrItemNotFound), errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, lists.ErrImportFailed):
		writeRedirectError(w, http.StatusUnprocessableEntity, err.Error(), IndexPath)
	case errors.Is(err, lists.ErrTitleRequired),
		errors.Is(err, lists.ErrNameRequired),
		errors.Is(err, lists.ErrInvalidType),
		errors.Is(err, lists.ErrSameList),
		errors.Is(err, lists.ErrInvalidTarget),
		errors.Is(err, lists.ErrNotShareable),
		errors.Is(err, lists.ErrNothingToShare),
		errors.Is(err, lists.ErrInvalidURL):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, lists.ErrNoSnapshots):
		writeError(w, http.StatusNotImplemented, err.Error())
	case errors.Is(err, lists.ErrFetcherDisabled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, storage.ErrMalformed):
		slog.Error("refusing to overwrite malformed collection", "action", action, "error", err)
		writeError(w, http.StatusConflict, "Stored lists are unreadable; restore a snapshot or fix the data file")
	default:
		slog.Error("request failed", "action", action, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to "+action)
	}
}

// decodeBody decodes a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// urlParam extracts a non-empty chi URL parameter.
func urlParam(r *http.Request, param string) (string, error) {
	raw := strings.TrimSpace(chi.URLParam(r, param))
	if raw == "" {
		return "", fmt.Errorf("missing URL parameter %q", param)
	}
	return raw, nil
}

// requestOrigin rebuilds scheme://host for the request, honoring an
// X-Forwarded-Proto of http or https.
func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	switch p := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto"))); p {
	case "http", "https":
		scheme = p
	}
	return scheme + "://" + r.Host
}
