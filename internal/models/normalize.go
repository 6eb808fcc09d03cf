package models

import "github.com/google/uuid"

// NormalizeItem substitutes defaults for missing optional fields.
func NormalizeItem(it Item) Item {
	if !it.Type.Valid() {
		it.Type = DefaultContentType
	}
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	return it
}

// Normalize applies the read-time defaults to every list in c:
//   - nil item slices become empty,
//   - items get a default type and an ID when missing,
//   - only the list with WatchedListID carries the watched flag,
//   - origin references survive only inside the watched list.
func Normalize(c Collection) Collection {
	out := make(Collection, 0, len(c))
	for _, l := range c {
		l.IsWatched = l.ID == WatchedListID
		items := make([]Item, 0, len(l.Items))
		for _, it := range l.Items {
			it = NormalizeItem(it)
			if !l.IsWatched {
				it.OriginListID = ""
				it.OriginItemID = ""
			}
			items = append(items, it)
		}
		l.Items = items
		out = append(out, l)
	}
	return out
}
