package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nhr-fau/voidkv/internal/value"
)

func sampleDatabase() value.Database {
	return value.Database{
		"t1": value.Table{
			"a": {Value: value.NewInt(1), Expiry: value.NoExpiry},
			"b": {Value: value.NewString("hi"), Expiry: value.ExpiryAt(99999)},
		},
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.msgpack")
	db := sampleDatabase()

	if err := Save(path, db); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded) != len(db) {
		t.Fatalf("Load() table count = %d, want %d", len(loaded), len(db))
	}
	if len(loaded["t1"]) != len(db["t1"]) {
		t.Errorf("Load() t1 key count = %d, want %d", len(loaded["t1"]), len(db["t1"]))
	}
}

func TestLoadMissingFileReturnsEmptyDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.msgpack")
	db, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(db) != 0 {
		t.Errorf("Load(missing) = %v, want empty", db)
	}
}

func TestLoadCorruptFileIsError(t *testing.T) {
	badPath := filepath.Join(t.TempDir(), "garbage.msgpack")
	if err := os.WriteFile(badPath, []byte{0xff, 0xff, 0xff, 0xff}, 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := Load(badPath); err == nil {
		t.Error("Load(garbage) error = nil, want error")
	}
}

func TestAutosaveWritesOnEachTick(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auto.msgpack")
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	Autosave(ctx, &wg, path, 10*time.Millisecond, func() value.Database {
		return sampleDatabase()
	})

	time.Sleep(50 * time.Millisecond)
	cancel()
	wg.Wait()

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded) == 0 {
		t.Error("Autosave() never wrote a snapshot within the test window")
	}
}

func TestAutosaveZeroIntervalNeverTicks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never.msgpack")
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	Autosave(ctx, &wg, path, 0, func() value.Database { return sampleDatabase() })
	cancel()
	wg.Wait()

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("Autosave() with zero interval wrote a snapshot: %v", loaded)
	}
}

func TestSaveOnShutdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shutdown.msgpack")
	if err := SaveOnShutdown(path, func() value.Database { return sampleDatabase() }); err != nil {
		t.Fatalf("SaveOnShutdown() error = %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded) != 1 {
		t.Errorf("Load() table count = %d, want 1", len(loaded))
	}
}
