package value

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

var (
	_ msgpack.CustomEncoder = Response{}
	_ msgpack.CustomDecoder = (*Response)(nil)
)

// EncodeMsgpack mirrors MarshalJSON: a flat map of field name to value,
// built as a MessagePack map so the binary transport round-trips through
// the exact same schema as the JSON transport.
func (r Response) EncodeMsgpack(enc *msgpack.Encoder) error {
	fields := map[string]interface{}{"status": r.Status}

	switch p := r.Payload.(type) {
	case nil:
	case PongPayload:
	case TablesPayload:
		fields["tables"] = p.Tables
	case KeysPayload:
		fields["keys"] = p.Keys
	case TablePayload:
		fields["table"] = p.Table
	case TableValuePayload:
		fields["table"] = p.Table
		fields["key"] = p.Key
		fields["value"] = p.Value
	default:
		return fmt.Errorf("value: unknown payload type %T", p)
	}

	if err := enc.EncodeMapLen(len(fields)); err != nil {
		return err
	}
	// Deterministic order keeps encoded bytes stable for tests; status
	// first, then whichever payload fields are present in declaration
	// order matching the JSON encoder.
	order := []string{"status", "tables", "keys", "table", "key", "value"}
	for _, k := range order {
		v, ok := fields[k]
		if !ok {
			continue
		}
		if err := enc.EncodeString(k); err != nil {
			return err
		}
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
	return nil
}

func (r *Response) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return err
	}

	raw := make(map[string]msgpack.RawMessage, n)
	for i := 0; i < n; i++ {
		key, err := dec.DecodeString()
		if err != nil {
			return err
		}
		var val msgpack.RawMessage
		if err := dec.Decode(&val); err != nil {
			return err
		}
		raw[key] = val
	}

	statusRaw, ok := raw["status"]
	if !ok {
		return fmt.Errorf("value: response missing \"status\" field")
	}
	var status Status
	if err := msgpack.Unmarshal(statusRaw, &status); err != nil {
		return err
	}

	payload, err := decodeMsgpackPayload(raw, status)
	if err != nil {
		return err
	}

	r.Status = status
	r.Payload = payload
	return nil
}

// decodeMsgpackPayload mirrors decodeJSONPayload's field-co-occurrence
// rule: a successful response with none of the known fields is a Pong;
// any other status with no fields carries no payload at all.
func decodeMsgpackPayload(fields map[string]msgpack.RawMessage, status Status) (Payload, error) {
	if raw, ok := fields["tables"]; ok {
		var tables []string
		if err := msgpack.Unmarshal(raw, &tables); err != nil {
			return nil, err
		}
		return TablesPayload{Tables: tables}, nil
	}

	if raw, ok := fields["keys"]; ok {
		var keys []string
		if err := msgpack.Unmarshal(raw, &keys); err != nil {
			return nil, err
		}
		return KeysPayload{Keys: keys}, nil
	}

	if keyRaw, ok := fields["key"]; ok {
		var key string
		if err := msgpack.Unmarshal(keyRaw, &key); err != nil {
			return nil, err
		}
		var table string
		if raw, ok := fields["table"]; ok {
			if err := msgpack.Unmarshal(raw, &table); err != nil {
				return nil, err
			}
		}
		var tv TableValue
		if raw, ok := fields["value"]; ok {
			if err := msgpack.Unmarshal(raw, &tv); err != nil {
				return nil, err
			}
		}
		return TableValuePayload{Table: table, Key: key, Value: tv}, nil
	}

	if raw, ok := fields["table"]; ok {
		var table Table
		if err := msgpack.Unmarshal(raw, &table); err != nil {
			return nil, err
		}
		return TablePayload{Table: table}, nil
	}

	if status == StatusSuccess {
		return PongPayload{}, nil
	}
	return nil, nil
}
