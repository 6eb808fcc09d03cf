package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hoanghai1803/ilistas/internal/models"
)

// snapshotRetention is how many collection snapshots are kept.
const snapshotRetention = 20

// Load reads the collection stored under CollectionKey.
func (s *SQLiteStore) Load(ctx context.Context) (models.Collection, error) {
	raw, err := s.getValue(ctx, CollectionKey)
	if errors.Is(err, ErrNotFound) {
		return models.Collection{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeCollection(raw)
}

// Save replaces the stored collection and records a snapshot, all within a
// single transaction. Snapshots beyond the retention limit are pruned.
func (s *SQLiteStore) Save(ctx context.Context, c models.Collection) error {
	data, err := encodeCollection(c)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at)
		 VALUES (?, ?, datetime('now'))
		 ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			updated_at = excluded.updated_at`,
		CollectionKey, string(data),
	); err != nil {
		return fmt.Errorf("saving collection: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO collection_snapshots (value, list_count, item_count) VALUES (?, ?, ?)`,
		string(data), len(c), countItems(c),
	); err != nil {
		return fmt.Errorf("recording snapshot: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM collection_snapshots
		 WHERE id NOT IN (SELECT id FROM collection_snapshots ORDER BY id DESC LIMIT ?)`,
		snapshotRetention,
	); err != nil {
		return fmt.Errorf("pruning snapshots: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing collection: %w", err)
	}
	return nil
}

// Snapshots returns the most recent saves, newest first.
func (s *SQLiteStore) Snapshots(ctx context.Context, limit int) ([]models.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, list_count, item_count, created_at
		 FROM collection_snapshots
		 ORDER BY id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []models.Snapshot
	for rows.Next() {
		var (
			snap      models.Snapshot
			createdAt string
		)
		if err := rows.Scan(&snap.ID, &snap.ListCount, &snap.ItemCount, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		snap.CreatedAt = parseTime(createdAt)
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshot rows: %w", err)
	}
	return snaps, nil
}

// RestoreSnapshot makes the snapshot with the given ID the current
// collection. The restore itself is recorded as a new snapshot.
func (s *SQLiteStore) RestoreSnapshot(ctx context.Context, id int64) (models.Collection, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM collection_snapshots WHERE id = ?`, id,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting snapshot %d: %w", id, err)
	}

	c, err := decodeCollection([]byte(raw))
	if err != nil {
		return nil, err
	}
	if err := s.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// getValue returns the raw value stored under key, or ErrNotFound.
func (s *SQLiteStore) getValue(ctx context.Context, key string) ([]byte, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ?`, key,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting value %q: %w", key, err)
	}
	return []byte(raw), nil
}
