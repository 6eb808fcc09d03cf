package models

import "time"

// Snapshot records one saved version of the collection.
type Snapshot struct {
	ID        int64     `json:"id"`
	ListCount int       `json:"list_count"`
	ItemCount int       `json:"item_count"`
	CreatedAt time.Time `json:"created_at"`
}
