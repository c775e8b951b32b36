package store

import (
	"sync"
	"testing"
	"time"

	"github.com/nhr-fau/voidkv/internal/value"
)

func lifetime(seconds uint64) *uint64 { return &seconds }

func TestInsertTableAndGetTable(t *testing.T) {
	s := New()

	if err := s.InsertTable("t1", map[string]value.InsertTableValue{
		"a": {Value: value.NewInt(1)},
	}); err != nil {
		t.Fatalf("InsertTable() error = %v", err)
	}

	if err := s.InsertTable("t1", nil); err != ErrAlreadyExists {
		t.Errorf("InsertTable() duplicate error = %v, want ErrAlreadyExists", err)
	}

	tbl, err := s.GetTable("t1")
	if err != nil {
		t.Fatalf("GetTable() error = %v", err)
	}
	if len(tbl) != 1 {
		t.Errorf("GetTable() len = %d, want 1", len(tbl))
	}

	if _, err := s.GetTable("nope"); err != ErrNoSuchTable {
		t.Errorf("GetTable(missing) error = %v, want ErrNoSuchTable", err)
	}
}

func TestDeleteTableIdempotent(t *testing.T) {
	s := New()
	s.DeleteTable("never-existed")
	if err := s.InsertTable("t1", nil); err != nil {
		t.Fatalf("InsertTable() error = %v", err)
	}
	s.DeleteTable("t1")
	s.DeleteTable("t1")
	if _, err := s.GetTable("t1"); err != ErrNoSuchTable {
		t.Errorf("GetTable() after delete error = %v, want ErrNoSuchTable", err)
	}
}

func TestInsertGetDelete(t *testing.T) {
	s := New()
	if err := s.InsertTable("t1", nil); err != nil {
		t.Fatalf("InsertTable() error = %v", err)
	}

	if err := s.Insert("t1", "k1", value.InsertTableValue{Value: value.NewString("v1")}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := s.Insert("t1", "k1", value.InsertTableValue{Value: value.NewString("v2")}); err != ErrAlreadyExists {
		t.Errorf("Insert() duplicate error = %v, want ErrAlreadyExists", err)
	}
	if err := s.Insert("missing", "k1", value.InsertTableValue{}); err != ErrNoSuchTable {
		t.Errorf("Insert(missing table) error = %v, want ErrNoSuchTable", err)
	}

	tv, err := s.Get("t1", "k1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if s, ok := tv.Value.String(); !ok || s != "v1" {
		t.Errorf("Get() value = %+v, want v1", tv.Value)
	}

	if err := s.Delete("t1", "k1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete("t1", "k1"); err != nil {
		t.Errorf("Delete() repeat error = %v, want nil", err)
	}
	if _, err := s.Get("t1", "k1"); err != ErrNoSuchKey {
		t.Errorf("Get() after delete error = %v, want ErrNoSuchKey", err)
	}

	if _, err := s.Get("nope", "k1"); err != ErrNoSuchTable {
		t.Errorf("Get(missing table) error = %v, want ErrNoSuchTable", err)
	}
	if err := s.Delete("nope", "k1"); err != ErrNoSuchTable {
		t.Errorf("Delete(missing table) error = %v, want ErrNoSuchTable", err)
	}
}

func TestLifetimeZeroExpiresImmediately(t *testing.T) {
	s := New()
	if err := s.InsertTable("t1", nil); err != nil {
		t.Fatalf("InsertTable() error = %v", err)
	}
	if err := s.Insert("t1", "k1", value.InsertTableValue{Value: value.NewInt(1), Lifetime: lifetime(0)}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	// Force time forward past the immediate-expiry boundary without a
	// real sleep.
	s.now = func() time.Time { return time.Now().Add(time.Second) }

	if _, err := s.Get("t1", "k1"); err != ErrKeyExpired {
		t.Errorf("Get() of zero-lifetime key error = %v, want ErrKeyExpired", err)
	}
}

func TestExpiredKeyIsRemovedOnRead(t *testing.T) {
	s := New()
	if err := s.InsertTable("t1", nil); err != nil {
		t.Fatalf("InsertTable() error = %v", err)
	}
	if err := s.Insert("t1", "k1", value.InsertTableValue{Value: value.NewInt(1), Lifetime: lifetime(5)}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	s.now = func() time.Time { return time.Now().Add(10 * time.Second) }

	if _, err := s.Get("t1", "k1"); err != ErrKeyExpired {
		t.Fatalf("Get() error = %v, want ErrKeyExpired", err)
	}

	keys, err := s.ListKeys("t1")
	if err != nil {
		t.Fatalf("ListKeys() error = %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("ListKeys() after expiry = %v, want empty (entry removed on prior read)", keys)
	}
}

func TestInsertTableInitialContents(t *testing.T) {
	s := New()
	err := s.InsertTable("t1", map[string]value.InsertTableValue{
		"a": {Value: value.NewInt(1)},
		"b": {Value: value.NewInt(2)},
	})
	if err != nil {
		t.Fatalf("InsertTable() error = %v", err)
	}

	keys, err := s.ListKeys("t1")
	if err != nil {
		t.Fatalf("ListKeys() error = %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("ListKeys() = %v, want 2 entries", keys)
	}
}

func TestSnapshotIsIndependentOfLiveStore(t *testing.T) {
	s := New()
	if err := s.InsertTable("t1", map[string]value.InsertTableValue{
		"a": {Value: value.NewInt(1)},
	}); err != nil {
		t.Fatalf("InsertTable() error = %v", err)
	}

	db := s.Snapshot()
	if err := s.Insert("t1", "b", value.InsertTableValue{Value: value.NewInt(2)}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	if len(db["t1"]) != 1 {
		t.Errorf("Snapshot() table length = %d, want 1 (unaffected by later insert)", len(db["t1"]))
	}
}

func TestFromDatabaseRoundTrip(t *testing.T) {
	db := value.Database{
		"t1": value.Table{
			"a": {Value: value.NewInt(1), Expiry: value.NoExpiry},
		},
	}
	s := FromDatabase(db)
	tv, err := s.Get("t1", "a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if i, ok := tv.Value.Int(); !ok || i != 1 {
		t.Errorf("Get() value = %+v, want 1", tv.Value)
	}
}

func TestConcurrentAccessAcrossTablesDoesNotDeadlock(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		name := string(rune('a' + i))
		if err := s.InsertTable(name, nil); err != nil {
			t.Fatalf("InsertTable(%s) error = %v", name, err)
		}
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = s.Insert(name, "k", value.InsertTableValue{Value: value.NewInt(int64(j))})
				_, _ = s.Get(name, "k")
				_ = s.Delete(name, "k")
			}
		}(name)
	}
	wg.Wait()
}
