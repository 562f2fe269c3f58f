package statestore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/LeJamon/goOCR2/internal/storage/database"
	"github.com/LeJamon/goOCR2/internal/storage/database/bbolt"
	"github.com/LeJamon/goOCR2/internal/storage/database/leveldb"
	"github.com/LeJamon/goOCR2/internal/storage/database/pebble"
)

// Backend names accepted by OpenBackend.
const (
	BackendMemory  = "memory"
	BackendPebble  = "pebble"
	BackendBbolt   = "bbolt"
	BackendLevelDB = "leveldb"
)

// Backends lists the supported backend names.
var Backends = []string{BackendMemory, BackendPebble, BackendBbolt, BackendLevelDB}

// OpenBackend opens the named key/value backend under dir. The memory backend
// ignores dir.
func OpenBackend(name, dir string, cacheBytes int64) (database.DB, error) {
	if name == BackendMemory {
		return openAs(leveldb.OpenInMemory())
	}
	switch name {
	case BackendPebble, BackendBbolt, BackendLevelDB:
	default:
		return nil, fmt.Errorf("%w: %q", database.ErrUnknownBackend, name)
	}
	if dir == "" {
		return nil, fmt.Errorf("backend %s needs a path", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	var (
		db  database.DB
		err error
	)
	switch name {
	case BackendPebble:
		db, err = openAs(pebble.Open(filepath.Join(dir, "accounts"), cacheBytes))
	case BackendBbolt:
		db, err = openAs(bbolt.Open(filepath.Join(dir, "accounts.db")))
	case BackendLevelDB:
		db, err = openAs(leveldb.Open(filepath.Join(dir, "accounts.ldb")))
	}
	return db, err
}

// openAs drops typed nil pointers so failed opens return a nil interface.
func openAs[T database.DB](db T, err error) (database.DB, error) {
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Open opens a backend and wraps it in a Store. Pebble's block cache is sized
// at 1 KiB per cached account.
func Open(backend, dir string, cfg Config) (*Store, error) {
	db, err := OpenBackend(backend, dir, int64(cfg.CacheSize)*1024)
	if err != nil {
		return nil, err
	}
	s, err := New(db, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}
