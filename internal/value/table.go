package value

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// ExpiryInstant is an absolute wall-clock time expressed as seconds since
// the UNIX epoch. The zero value (NoExpiry) means "no expiry".
type ExpiryInstant struct {
	set  bool
	unix int64
}

// NoExpiry is the absent ExpiryInstant.
var NoExpiry = ExpiryInstant{}

// ExpiryAt builds an ExpiryInstant for an absolute unix-seconds timestamp.
func ExpiryAt(unixSeconds int64) ExpiryInstant {
	return ExpiryInstant{set: true, unix: unixSeconds}
}

// ExpiryAfter builds an ExpiryInstant lifetime seconds after now.
func ExpiryAfter(now time.Time, lifetimeSeconds uint64) ExpiryInstant {
	return ExpiryInstant{set: true, unix: now.Unix() + int64(lifetimeSeconds)}
}

func (e ExpiryInstant) IsSet() bool   { return e.set }
func (e ExpiryInstant) Unix() int64   { return e.unix }

// Expired reports whether e is set and at or before now: liveness
// requires strictly-greater-than, so an instant exactly equal to now has
// already expired.
func (e ExpiryInstant) Expired(now time.Time) bool {
	return e.set && e.unix <= now.Unix()
}

func (e ExpiryInstant) MarshalJSON() ([]byte, error) {
	if !e.set {
		return []byte("null"), nil
	}
	return json.Marshal(e.unix)
}

func (e *ExpiryInstant) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*e = NoExpiry
		return nil
	}
	var u int64
	if err := json.Unmarshal(data, &u); err != nil {
		return err
	}
	*e = ExpiryInstant{set: true, unix: u}
	return nil
}

var (
	_ msgpack.CustomEncoder = ExpiryInstant{}
	_ msgpack.CustomDecoder = (*ExpiryInstant)(nil)
)

func (e ExpiryInstant) EncodeMsgpack(enc *msgpack.Encoder) error {
	if !e.set {
		return enc.EncodeNil()
	}
	return enc.EncodeInt64(e.unix)
}

func (e *ExpiryInstant) DecodeMsgpack(dec *msgpack.Decoder) error {
	raw, err := dec.DecodeInterface()
	if err != nil {
		return err
	}
	if raw == nil {
		*e = NoExpiry
		return nil
	}
	switch t := raw.(type) {
	case int64:
		*e = ExpiryInstant{set: true, unix: t}
	case uint64:
		*e = ExpiryInstant{set: true, unix: int64(t)}
	case int:
		*e = ExpiryInstant{set: true, unix: int64(t)}
	default:
		return fmt.Errorf("value: unexpected expiry token of type %T", raw)
	}
	return nil
}

// TableValue is the stored form of a key's value.
type TableValue struct {
	Value  PrimitiveValue `json:"value" msgpack:"value"`
	Expiry ExpiryInstant  `json:"expiry" msgpack:"expiry"`
}

// Clone returns a deep copy; no observer may retain a reference into the
// store's internal state.
func (tv TableValue) Clone() TableValue {
	return TableValue{Value: tv.Value.Clone(), Expiry: tv.Expiry}
}

// InsertTableValue is the request form of a key's value: a lifetime in
// seconds is translated to an absolute ExpiryInstant at insertion time.
type InsertTableValue struct {
	Value    PrimitiveValue `json:"value" msgpack:"value"`
	Lifetime *uint64        `json:"lifetime,omitempty" msgpack:"lifetime,omitempty"`
}

// ToStored converts the request form into the stored form, resolving
// Lifetime relative to now.
func (itv InsertTableValue) ToStored(now time.Time) TableValue {
	if itv.Lifetime == nil {
		return TableValue{Value: itv.Value, Expiry: NoExpiry}
	}
	return TableValue{Value: itv.Value, Expiry: ExpiryAfter(now, *itv.Lifetime)}
}

// Table is a snapshot mapping from string key to TableValue, returned by
// Store.GetTable as a cloned, store-independent copy.
type Table map[string]TableValue

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	cp := make(Table, len(t))
	for k, v := range t {
		cp[k] = v.Clone()
	}
	return cp
}

// Database is the on-disk snapshot shape: table name -> Table.
type Database map[string]Table

// Clone returns a deep copy of the database.
func (d Database) Clone() Database {
	cp := make(Database, len(d))
	for name, tbl := range d {
		cp[name] = tbl.Clone()
	}
	return cp
}
