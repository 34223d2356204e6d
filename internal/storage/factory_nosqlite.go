//go:build !sqlite

package storage

import "fmt"

func newSQLiteStore(path string) (Store, error) {
	return nil, fmt.Errorf("sqlite backend unavailable for %q; rebuild lifeevoctl with -tags sqlite", path)
}
