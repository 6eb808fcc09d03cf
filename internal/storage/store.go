package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hoanghai1803/ilistas/internal/models"
)

// CollectionKey is the fixed key the whole list collection is stored under.
const CollectionKey = "listas"

// CollectionStore reads and writes the entire collection as one record.
// There are no partial updates: callers load, transform and save.
type CollectionStore interface {
	// Load returns the normalized collection. A missing record yields an
	// empty collection; an unparseable one yields ErrMalformed.
	Load(ctx context.Context) (models.Collection, error)
	// Save replaces the stored collection.
	Save(ctx context.Context, c models.Collection) error
}

// Snapshotter is implemented by stores that keep a history of saves.
type Snapshotter interface {
	Snapshots(ctx context.Context, limit int) ([]models.Snapshot, error)
	RestoreSnapshot(ctx context.Context, id int64) (models.Collection, error)
}

// decodeCollection parses a stored blob and normalizes it.
func decodeCollection(raw []byte) (models.Collection, error) {
	var c models.Collection
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return models.Normalize(c), nil
}

// encodeCollection serializes c, writing an empty array for a nil collection.
func encodeCollection(c models.Collection) ([]byte, error) {
	if c == nil {
		c = models.Collection{}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling collection: %w", err)
	}
	return data, nil
}

// countItems returns the total number of items across all lists.
func countItems(c models.Collection) int {
	n := 0
	for _, l := range c {
		n += len(l.Items)
	}
	return n
}
