package value

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

func TestExpiryInstantExpired(t *testing.T) {
	now := time.Unix(1000, 0)

	tests := []struct {
		name string
		e    ExpiryInstant
		want bool
	}{
		{"no expiry never expires", NoExpiry, false},
		{"future instant not expired", ExpiryAt(1001), false},
		{"past instant expired", ExpiryAt(999), true},
		{"exactly now expired", ExpiryAt(1000), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.Expired(now); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExpiryAfter(t *testing.T) {
	now := time.Unix(1000, 0)
	e := ExpiryAfter(now, 30)
	if !e.IsSet() {
		t.Fatal("ExpiryAfter() produced an unset instant")
	}
	if e.Unix() != 1030 {
		t.Errorf("Unix() = %d, want 1030", e.Unix())
	}
}

func TestExpiryInstantJSONRoundTrip(t *testing.T) {
	for _, e := range []ExpiryInstant{NoExpiry, ExpiryAt(0), ExpiryAt(123456)} {
		data, err := json.Marshal(e)
		if err != nil {
			t.Fatalf("MarshalJSON() error = %v", err)
		}
		var out ExpiryInstant
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("UnmarshalJSON(%s) error = %v", data, err)
		}
		if out != e {
			t.Errorf("JSON round trip = %+v, want %+v", out, e)
		}
	}
}

func TestExpiryInstantMsgpackRoundTrip(t *testing.T) {
	for _, e := range []ExpiryInstant{NoExpiry, ExpiryAt(0), ExpiryAt(123456)} {
		data, err := msgpack.Marshal(e)
		if err != nil {
			t.Fatalf("EncodeMsgpack() error = %v", err)
		}
		var out ExpiryInstant
		if err := msgpack.Unmarshal(data, &out); err != nil {
			t.Fatalf("DecodeMsgpack() error = %v", err)
		}
		if out != e {
			t.Errorf("msgpack round trip = %+v, want %+v", out, e)
		}
	}
}

func TestInsertTableValueToStored(t *testing.T) {
	now := time.Unix(2000, 0)

	noLifetime := InsertTableValue{Value: NewInt(7)}
	stored := noLifetime.ToStored(now)
	if stored.Expiry.IsSet() {
		t.Errorf("ToStored() with nil lifetime produced a set expiry: %+v", stored.Expiry)
	}

	lifetime := uint64(60)
	withLifetime := InsertTableValue{Value: NewInt(7), Lifetime: &lifetime}
	stored = withLifetime.ToStored(now)
	if !stored.Expiry.IsSet() || stored.Expiry.Unix() != 2060 {
		t.Errorf("ToStored() with lifetime = %+v, want expiry at 2060", stored.Expiry)
	}
}

func TestTableAndDatabaseClone(t *testing.T) {
	tbl := Table{
		"k1": {Value: NewString("v1"), Expiry: NoExpiry},
	}
	db := Database{"t1": tbl}

	cloned := db.Clone()
	clonedTbl := cloned["t1"]
	clonedTbl["k2"] = TableValue{Value: NewInt(1), Expiry: NoExpiry}

	if _, ok := db["t1"]["k2"]; ok {
		t.Error("mutating cloned database's table leaked into original")
	}
	if len(tbl) != 1 {
		t.Errorf("original table length = %d, want 1", len(tbl))
	}
}
