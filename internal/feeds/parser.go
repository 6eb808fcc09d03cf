package feeds

import (
	"crypto/sha256"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"
)

var htmlTagPattern = regexp.MustCompile("<[^>]*>")

// parseFeedEntries converts gofeed items into entries, keeping at most
// maxItems (0 means no limit). Items with an empty title are skipped.
func parseFeedEntries(feedURL string, feed *gofeed.Feed, maxItems int) []Entry {
	feedTitle := strings.TrimSpace(feed.Title)
	if feedTitle == "" {
		feedTitle = extractDomain(feedURL)
	}

	var entries []Entry
	for _, item := range feed.Items {
		title := strings.TrimSpace(stripHTML(item.Title))
		if title == "" {
			continue
		}

		key := item.Link
		if key == "" {
			key = item.GUID
		}
		if key == "" {
			key = title
		}

		entries = append(entries, Entry{
			Title:       title,
			Link:        item.Link,
			Description: strings.TrimSpace(stripHTML(item.Description)),
			Feed:        feedTitle,
			Hash:        computeHash(key),
		})

		if maxItems > 0 && len(entries) >= maxItems {
			break
		}
	}

	return entries
}

// computeHash returns the SHA-256 hex digest of the given string.
func computeHash(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h)
}

// stripHTML removes HTML tags from s and unescapes HTML entities.
func stripHTML(s string) string {
	clean := htmlTagPattern.ReplaceAllString(s, "")
	return html.UnescapeString(clean)
}
