// Package value defines the data model shared by the store, the wire
// codecs and the snapshot format: PrimitiveValue, TableValue, Table and
// Database.
package value

import "fmt"

// Kind discriminates the variant held by a PrimitiveValue.
type Kind uint8

const (
	KindString Kind = iota
	KindInt
	KindUint
	KindFloat
	KindBool
	KindArray
)

// PrimitiveValue is a tagged union of string / i64 / u64 / f64 / bool /
// array-of-self. It is encoded untagged on the wire: JSON and MessagePack
// both carry enough type information in the token itself (string, integer,
// float, bool, array) for a decoder to pick the right variant.
type PrimitiveValue struct {
	kind  Kind
	str   string
	i     int64
	u     uint64
	f     float64
	b     bool
	array []PrimitiveValue
}

func NewString(s string) PrimitiveValue { return PrimitiveValue{kind: KindString, str: s} }
func NewInt(i int64) PrimitiveValue     { return PrimitiveValue{kind: KindInt, i: i} }
func NewUint(u uint64) PrimitiveValue   { return PrimitiveValue{kind: KindUint, u: u} }
func NewFloat(f float64) PrimitiveValue { return PrimitiveValue{kind: KindFloat, f: f} }
func NewBool(b bool) PrimitiveValue     { return PrimitiveValue{kind: KindBool, b: b} }
func NewArray(a []PrimitiveValue) PrimitiveValue {
	if a == nil {
		a = []PrimitiveValue{}
	}
	return PrimitiveValue{kind: KindArray, array: a}
}

func (v PrimitiveValue) Kind() Kind { return v.kind }

func (v PrimitiveValue) String() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

func (v PrimitiveValue) Int() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

func (v PrimitiveValue) Uint() (uint64, bool) {
	if v.kind != KindUint {
		return 0, false
	}
	return v.u, true
}

func (v PrimitiveValue) Float() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return v.f, true
}

func (v PrimitiveValue) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v PrimitiveValue) Array() ([]PrimitiveValue, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.array, true
}

// Clone returns a deep copy so stored values never alias a caller's slice.
func (v PrimitiveValue) Clone() PrimitiveValue {
	if v.kind != KindArray {
		return v
	}
	cp := make([]PrimitiveValue, len(v.array))
	for i, e := range v.array {
		cp[i] = e.Clone()
	}
	return PrimitiveValue{kind: KindArray, array: cp}
}

func (v PrimitiveValue) GoString() string {
	switch v.kind {
	case KindString:
		return fmt.Sprintf("%q", v.str)
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindUint:
		return fmt.Sprintf("%d", v.u)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	default:
		return fmt.Sprintf("%v", v.array)
	}
}
