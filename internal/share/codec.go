// Package share turns a list into a self-contained link token and back.
//
// A token is the list's shareable fields as JSON, base64 encoded with the
// URL alphabet. Decoding is tolerant of tokens produced by older clients
// (percent-encoded, standard alphabet, padded, Latin-1 bytes) but rejects
// anything that does not parse into a usable payload.
package share

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/sethvargo/go-password/password"
	"golang.org/x/text/encoding/charmap"

	"github.com/hoanghai1803/ilistas/internal/models"
)

// IDLength is the number of characters in a generated share ID.
const IDLength = 8

// NewShareID returns a random 8 character lowercase alphanumeric identifier.
func NewShareID() (string, error) {
	id, err := password.Generate(IDLength, 2, 0, true, true)
	if err != nil {
		return "", fmt.Errorf("generating share id: %w", err)
	}
	return id, nil
}

// Payload builds the shareable subset of l with every item normalized.
func Payload(l models.List) models.SharePayload {
	return models.SharePayload{
		Title:       l.Title,
		Description: l.Description,
		Items:       NormalizeItems(l.Items),
		OriginID:    l.ID,
	}
}

// NormalizeItems returns a copy of items with defaults substituted and
// watched-list origin references removed.
func NormalizeItems(items []models.Item) []models.Item {
	out := make([]models.Item, 0, len(items))
	for _, it := range items {
		it = models.NormalizeItem(it)
		it.OriginListID = ""
		it.OriginItemID = ""
		out = append(out, it)
	}
	return out
}

// Encode serializes p into a URL-safe token.
func Encode(p models.SharePayload) (string, error) {
	p.Items = NormalizeItems(p.Items)
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshaling share payload: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Decode reverses Encode. It reports false for truncated or invalid tokens
// and for payloads without a title or with unnamed items.
func Decode(token string) (models.SharePayload, bool) {
	data, err := decodeBase64(token)
	if err != nil {
		slog.Debug("share token is not base64", "error", err)
		return models.SharePayload{}, false
	}

	// btoa-built tokens carry one Latin-1 byte per character.
	if !utf8.Valid(data) {
		data, err = charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			slog.Debug("share token is not Latin-1", "error", err)
			return models.SharePayload{}, false
		}
	}

	var p models.SharePayload
	if err := json.Unmarshal(data, &p); err != nil {
		slog.Debug("share token payload is not a list", "error", err)
		return models.SharePayload{}, false
	}
	if strings.TrimSpace(p.Title) == "" {
		return models.SharePayload{}, false
	}
	for _, it := range p.Items {
		if strings.TrimSpace(it.Name) == "" {
			return models.SharePayload{}, false
		}
	}

	p.Items = NormalizeItems(p.Items)
	return p, true
}

// decodeBase64 accepts URL and standard alphabets, padded or not, and
// tokens that are still percent-encoded.
func decodeBase64(token string) ([]byte, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("empty token")
	}
	if strings.Contains(token, "%") {
		unescaped, err := url.QueryUnescape(token)
		if err != nil {
			return nil, fmt.Errorf("unescaping token: %w", err)
		}
		token = unescaped
	}
	// A '+' from the standard alphabet turns into a space when the query
	// string was decoded without escaping.
	token = strings.ReplaceAll(token, " ", "+")
	token = strings.TrimRight(token, "=")

	if strings.ContainsAny(token, "+/") {
		return base64.RawStdEncoding.DecodeString(token)
	}
	return base64.RawURLEncoding.DecodeString(token)
}

// BuildURL returns <origin>/share/<shareId>?data=<token>, or "" when the list
// has not been given a share ID yet or cannot be encoded.
func BuildURL(origin string, l models.List) string {
	if l.ShareID == "" {
		return ""
	}
	token, err := Encode(Payload(l))
	if err != nil {
		slog.Error("failed to encode share payload", "list_id", l.ID, "error", err)
		return ""
	}
	return fmt.Sprintf("%s/share/%s?data=%s",
		strings.TrimRight(origin, "/"), url.PathEscape(l.ShareID), url.QueryEscape(token))
}
