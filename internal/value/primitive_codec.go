package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"
)

// MarshalJSON emits the value untagged: the JSON token itself (string,
// number, bool, array) carries the type.
func (v PrimitiveValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindInt:
		return json.Marshal(v.i)
	case KindUint:
		return json.Marshal(v.u)
	case KindFloat:
		return json.Marshal(v.f)
	case KindBool:
		return json.Marshal(v.b)
	case KindArray:
		return json.Marshal(v.array)
	default:
		return nil, fmt.Errorf("value: unknown PrimitiveValue kind %d", v.kind)
	}
}

// UnmarshalJSON selects the variant by JSON token type: strings/bools are
// unambiguous, arrays recurse, and numbers disambiguate int vs uint vs
// float by trying the narrowest lossless representation first.
func (v *PrimitiveValue) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	parsed, err := fromJSONToken(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func fromJSONToken(raw interface{}) (PrimitiveValue, error) {
	switch t := raw.(type) {
	case nil:
		return PrimitiveValue{}, fmt.Errorf("value: null is not a valid PrimitiveValue")
	case string:
		return NewString(t), nil
	case bool:
		return NewBool(t), nil
	case json.Number:
		return fromJSONNumber(t)
	case []interface{}:
		arr := make([]PrimitiveValue, len(t))
		for i, e := range t {
			pv, err := fromJSONToken(e)
			if err != nil {
				return PrimitiveValue{}, err
			}
			arr[i] = pv
		}
		return NewArray(arr), nil
	default:
		return PrimitiveValue{}, fmt.Errorf("value: unsupported JSON token of type %T", raw)
	}
}

func fromJSONNumber(n json.Number) (PrimitiveValue, error) {
	s := n.String()
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return NewInt(i), nil
	}
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return NewUint(u), nil
	}
	f, err := n.Float64()
	if err != nil {
		return PrimitiveValue{}, fmt.Errorf("value: invalid numeric token %q: %w", s, err)
	}
	return NewFloat(f), nil
}

var (
	_ msgpack.CustomEncoder = (*PrimitiveValue)(nil)
	_ msgpack.CustomDecoder = (*PrimitiveValue)(nil)
)

// EncodeMsgpack writes the value untagged using MessagePack's native
// type family (fixint/uint/float/str/bool/array): the wire type itself
// carries the tag, for both the snapshot format and the binary
// transport.
func (v PrimitiveValue) EncodeMsgpack(enc *msgpack.Encoder) error {
	switch v.kind {
	case KindString:
		return enc.EncodeString(v.str)
	case KindInt:
		return enc.EncodeInt64(v.i)
	case KindUint:
		return enc.EncodeUint64(v.u)
	case KindFloat:
		return enc.EncodeFloat64(v.f)
	case KindBool:
		return enc.EncodeBool(v.b)
	case KindArray:
		if err := enc.EncodeArrayLen(len(v.array)); err != nil {
			return err
		}
		for _, e := range v.array {
			if err := enc.Encode(e); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("value: unknown PrimitiveValue kind %d", v.kind)
	}
}

func (v *PrimitiveValue) DecodeMsgpack(dec *msgpack.Decoder) error {
	raw, err := dec.DecodeInterface()
	if err != nil {
		return err
	}

	parsed, err := fromMsgpackToken(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func fromMsgpackToken(raw interface{}) (PrimitiveValue, error) {
	switch t := raw.(type) {
	case nil:
		return PrimitiveValue{}, fmt.Errorf("value: nil is not a valid PrimitiveValue")
	case string:
		return NewString(t), nil
	case []byte:
		return NewString(string(t)), nil
	case bool:
		return NewBool(t), nil
	case int8:
		return NewInt(int64(t)), nil
	case int16:
		return NewInt(int64(t)), nil
	case int32:
		return NewInt(int64(t)), nil
	case int64:
		return NewInt(t), nil
	case int:
		return NewInt(int64(t)), nil
	case uint8:
		return NewUint(uint64(t)), nil
	case uint16:
		return NewUint(uint64(t)), nil
	case uint32:
		return NewUint(uint64(t)), nil
	case uint64:
		return NewUint(t), nil
	case float32:
		return NewFloat(float64(t)), nil
	case float64:
		return NewFloat(t), nil
	case []interface{}:
		arr := make([]PrimitiveValue, len(t))
		for i, e := range t {
			pv, err := fromMsgpackToken(e)
			if err != nil {
				return PrimitiveValue{}, err
			}
			arr[i] = pv
		}
		return NewArray(arr), nil
	default:
		return PrimitiveValue{}, fmt.Errorf("value: unsupported MessagePack token of type %T", raw)
	}
}
