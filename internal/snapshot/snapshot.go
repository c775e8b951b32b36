// Package snapshot persists the store's Database to a single on-disk
// MessagePack file and reloads it at startup.
package snapshot

import (
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/nhr-fau/voidkv/internal/corelog"
	"github.com/nhr-fau/voidkv/internal/value"
)

// Load deserializes the database at path. A missing file is not an
// error — the caller starts from an empty database — but any other stat
// failure, or a parse failure on an existing regular file, is fatal: the
// caller must not overwrite a file it failed to understand.
func Load(path string) (value.Database, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return value.Database{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("snapshot: %s is not a regular file", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", path, err)
	}

	var db value.Database
	if err := msgpack.Unmarshal(data, &db); err != nil {
		return nil, fmt.Errorf("snapshot: decode %s: %w", path, err)
	}
	if db == nil {
		db = value.Database{}
	}
	return db, nil
}

// Save serializes db and overwrites the file at path in one write.
// Callers must not hold any store lock while calling Save; Store.Snapshot
// already returns a fully cloned, lock-free copy.
func Save(path string, db value.Database) error {
	data, err := msgpack.Marshal(db)
	if err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("snapshot: write %s: %w", path, err)
	}
	corelog.Debugf("snapshot: wrote %d bytes to %s", len(data), path)
	return nil
}
