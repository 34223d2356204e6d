package storage

import (
	"errors"
	"fmt"
	"strings"
)

// Store backends accepted by NewStore.
const (
	KindMemory = "memory"
	KindSQLite = "sqlite"

	DefaultStoreKind = KindMemory
)

var ErrUnsupportedStore = errors.New("unsupported store backend")

// StoreKinds lists the backend names, default first.
func StoreKinds() []string {
	return []string{KindMemory, KindSQLite}
}

// NewStore opens the named backend. Names are case-insensitive and an empty
// name selects DefaultStoreKind. sqlitePath is only read by the sqlite
// backend.
func NewStore(kind, sqlitePath string) (Store, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		kind = DefaultStoreKind
	}
	switch kind {
	case KindMemory:
		return NewMemoryStore(), nil
	case KindSQLite:
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("%w: %s (want %s)", ErrUnsupportedStore, kind, strings.Join(StoreKinds(), "|"))
	}
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
