package lists

import (
	"context"
	"errors"
	"testing"

	"github.com/hoanghai1803/ilistas/internal/storage"
)

func newSQLiteService(t *testing.T) *Service {
	t.Helper()
	db, err := storage.OpenDatabase(":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.RunMigrations(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	return NewService(storage.NewSQLiteStore(db), WithIDGenerator(seqIDs()))
}

func TestSnapshotsAndRestore(t *testing.T) {
	s := newSQLiteService(t)
	ctx := context.Background()

	l := mustCreateList(t, s, "Filmes")
	mustAddItem(t, s, l.ID, "Matrix")

	snaps, err := s.Snapshots(ctx, 0)
	if err != nil {
		t.Fatalf("Snapshots() error: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(snaps))
	}
	if snaps[0].ItemCount != 1 || snaps[1].ItemCount != 0 {
		t.Errorf("snapshots = %+v, want newest first", snaps)
	}

	restored, err := s.RestoreSnapshot(ctx, snaps[1].ID)
	if err != nil {
		t.Fatalf("RestoreSnapshot() error: %v", err)
	}
	if len(restored) != 1 || len(restored[0].Items) != 0 {
		t.Errorf("restored = %+v", restored)
	}

	got, err := s.Get(ctx, l.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if len(got.Items) != 0 {
		t.Errorf("list has %d items after restore, want 0", len(got.Items))
	}

	if _, err := s.RestoreSnapshot(ctx, 9999); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestSnapshots_Unsupported(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	if _, err := s.Snapshots(ctx, 10); !errors.Is(err, ErrNoSnapshots) {
		t.Errorf("expected ErrNoSnapshots, got: %v", err)
	}
	if _, err := s.RestoreSnapshot(ctx, 1); !errors.Is(err, ErrNoSnapshots) {
		t.Errorf("expected ErrNoSnapshots, got: %v", err)
	}
}
