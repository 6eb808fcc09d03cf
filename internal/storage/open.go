package storage

import (
	"fmt"

	"github.com/spf13/afero"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Open returns the collection store for backend rooted at path, plus a
// function that releases it. SQLite databases are migrated before use.
func Open(backend, path string) (CollectionStore, func() error, error) {
	switch backend {
	case BackendSQLite, "":
		db, err := OpenDatabase(path)
		if err != nil {
			return nil, nil, err
		}
		if err := RunMigrations(db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		return NewSQLiteStore(db), db.Close, nil
	case BackendFile:
		s, err := NewFileStore(afero.NewOsFs(), path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
