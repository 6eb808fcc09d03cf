// Package lists holds the list operations: pure transforms over a
// models.Collection, and a Service that persists them through a
// storage.CollectionStore.
package lists

import "github.com/hoanghai1803/ilistas/internal/models"

// EnsureWatchedList returns c with the watched list present. It is a no-op
// when the list already exists.
func EnsureWatchedList(c models.Collection) models.Collection {
	for _, l := range c {
		if l.ID == models.WatchedListID {
			return c
		}
	}
	return append(c, models.List{
		ID:          models.WatchedListID,
		Title:       models.WatchedListTitle,
		Description: models.WatchedListDescription,
		Items:       []models.Item{},
		IsWatched:   true,
	})
}

// CopyToWatched adds a watched copy of item, taken from sourceListID, to the
// watched list under newID. A copy of the same item from the same list is
// only ever added once. The source list is not touched.
func CopyToWatched(c models.Collection, item models.Item, sourceListID, newID string) models.Collection {
	if sourceListID == "" || sourceListID == models.WatchedListID {
		return c
	}
	c = EnsureWatchedList(c)
	idx := c.Find(models.WatchedListID)

	for _, existing := range c[idx].Items {
		if existing.OriginListID == sourceListID && existing.OriginItemID == item.ID {
			return c
		}
	}

	cp := models.NormalizeItem(item)
	cp.ID = newID
	cp.Watched = true
	cp.OriginListID = sourceListID
	cp.OriginItemID = item.ID

	c[idx].Items = append(c[idx].Items, cp)
	return c
}

// OnItemUnwatched is called when an item in an ordinary list goes back to
// unwatched. The watched list is a history, not a mirror, so its copy stays.
func OnItemUnwatched(c models.Collection, item models.Item, sourceListID string) models.Collection {
	return c
}

// RemoveOrigin drops every watched-list item copied from listID.
func RemoveOrigin(c models.Collection, listID string) models.Collection {
	idx := c.Find(models.WatchedListID)
	if idx < 0 || listID == "" {
		return c
	}
	kept := make([]models.Item, 0, len(c[idx].Items))
	for _, it := range c[idx].Items {
		if it.OriginListID != listID {
			kept = append(kept, it)
		}
	}
	c[idx].Items = kept
	return c
}

// WatchedListVisible reports whether the watched list exists and has items.
// The list index hides it otherwise.
func WatchedListVisible(c models.Collection) bool {
	idx := c.Find(models.WatchedListID)
	return idx >= 0 && len(c[idx].Items) > 0
}
