package models

// ContentType tags what kind of title an item is. The wire values are the
// Portuguese labels used by existing share links.
type ContentType string

const (
	TypeSeries ContentType = "série"
	TypeMovie  ContentType = "filme"
	TypeAnime  ContentType = "anime"
)

// DefaultContentType is substituted whenever an item has no type.
const DefaultContentType = TypeSeries

// Valid reports whether t is one of the known content types.
func (t ContentType) Valid() bool {
	switch t {
	case TypeSeries, TypeMovie, TypeAnime:
		return true
	}
	return false
}

// The watched list ("Assistidos") aggregates watched items copied from every
// other list. Its identifier is fixed so every component can find it.
const (
	WatchedListID          = "assistidos"
	WatchedListTitle       = "Assistidos"
	WatchedListDescription = "Itens que você já assistiu"
)

// Item is a single entry in a list.
type Item struct {
	ID      string      `json:"id"`
	Name    string      `json:"nome"`
	WatchOn string      `json:"verEm"`
	Type    ContentType `json:"tipo"`
	Note    string      `json:"observacao"`
	Watched bool        `json:"visto"`

	// OriginListID and OriginItemID are only set on items that live in the
	// watched list and point back at the list (and item) they were copied from.
	OriginListID string `json:"origemId,omitempty"`
	OriginItemID string `json:"origemItemId,omitempty"`
}

// List is a named, user-owned collection of items in insertion order.
type List struct {
	ID          string `json:"id"`
	Title       string `json:"titulo"`
	Description string `json:"descricao"`
	Items       []Item `json:"itens"`
	ShareID     string `json:"shareId,omitempty"`
	IsWatched   bool   `json:"isAssistidos,omitempty"`
}

// Collection is every list the user owns. It is persisted as one record.
type Collection []List

// Find returns the index of the list with the given ID, or -1.
func (c Collection) Find(id string) int {
	for i := range c {
		if c[i].ID == id {
			return i
		}
	}
	return -1
}

// FindByShareID returns the index of the list carrying shareID, or -1.
func (c Collection) FindByShareID(shareID string) int {
	if shareID == "" {
		return -1
	}
	for i := range c {
		if c[i].ShareID == shareID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so pure transforms never alias the caller's slices.
func (c Collection) Clone() Collection {
	if c == nil {
		return nil
	}
	out := make(Collection, len(c))
	for i, l := range c {
		out[i] = l
		out[i].Items = append([]Item(nil), l.Items...)
	}
	return out
}

// FindItem returns the index of the item with the given ID, or -1.
func (l List) FindItem(id string) int {
	for i := range l.Items {
		if l.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// ItemInput carries the user-editable fields of an item.
type ItemInput struct {
	Name    string      `json:"nome"`
	WatchOn string      `json:"verEm"`
	Type    ContentType `json:"tipo"`
	Note    string      `json:"observacao"`
	Watched bool        `json:"visto"`
}

// SharePayload is the subset of a list embedded in a share link.
type SharePayload struct {
	Title       string `json:"titulo"`
	Description string `json:"descricao"`
	Items       []Item `json:"itens"`
	OriginID    string `json:"originId"`
}
