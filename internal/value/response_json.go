package value

import (
	"encoding/json"
	"fmt"
)

func (r Response) MarshalJSON() ([]byte, error) {
	out := map[string]json.RawMessage{}

	statusRaw, err := json.Marshal(r.Status)
	if err != nil {
		return nil, err
	}
	out["status"] = statusRaw

	switch p := r.Payload.(type) {
	case nil:
		// no payload fields
	case PongPayload:
		// Pong carries no extra fields beyond status; it is distinguished
		// purely by which request produced it.
	case TablesPayload:
		raw, err := json.Marshal(p.Tables)
		if err != nil {
			return nil, err
		}
		out["tables"] = raw
	case KeysPayload:
		raw, err := json.Marshal(p.Keys)
		if err != nil {
			return nil, err
		}
		out["keys"] = raw
	case TablePayload:
		raw, err := json.Marshal(p.Table)
		if err != nil {
			return nil, err
		}
		out["table"] = raw
	case TableValuePayload:
		tableRaw, err := json.Marshal(p.Table)
		if err != nil {
			return nil, err
		}
		keyRaw, err := json.Marshal(p.Key)
		if err != nil {
			return nil, err
		}
		valueRaw, err := json.Marshal(p.Value)
		if err != nil {
			return nil, err
		}
		out["table"] = tableRaw
		out["key"] = keyRaw
		out["value"] = valueRaw
	default:
		return nil, fmt.Errorf("value: unknown payload type %T", p)
	}

	return json.Marshal(out)
}

func (r *Response) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	statusRaw, ok := fields["status"]
	if !ok {
		return fmt.Errorf("value: response missing \"status\" field")
	}
	var status Status
	if err := json.Unmarshal(statusRaw, &status); err != nil {
		return err
	}

	payload, err := decodeJSONPayload(fields, status)
	if err != nil {
		return err
	}

	r.Status = status
	r.Payload = payload
	return nil
}

// decodeJSONPayload disambiguates which (if any) payload variant is
// present by which field names co-occur: "key" alongside "table" means
// the table field is a string (TableValuePayload); "table" alone means
// it is an object (TablePayload). A successful response with none of
// these fields is a Pong; any other status with no fields carries no
// payload at all.
func decodeJSONPayload(fields map[string]json.RawMessage, status Status) (Payload, error) {
	if raw, ok := fields["tables"]; ok {
		var tables []string
		if err := json.Unmarshal(raw, &tables); err != nil {
			return nil, err
		}
		return TablesPayload{Tables: tables}, nil
	}

	if raw, ok := fields["keys"]; ok {
		var keys []string
		if err := json.Unmarshal(raw, &keys); err != nil {
			return nil, err
		}
		return KeysPayload{Keys: keys}, nil
	}

	if keyRaw, ok := fields["key"]; ok {
		var key string
		if err := json.Unmarshal(keyRaw, &key); err != nil {
			return nil, err
		}
		var table string
		if raw, ok := fields["table"]; ok {
			if err := json.Unmarshal(raw, &table); err != nil {
				return nil, err
			}
		}
		var tv TableValue
		if raw, ok := fields["value"]; ok {
			if err := json.Unmarshal(raw, &tv); err != nil {
				return nil, err
			}
		}
		return TableValuePayload{Table: table, Key: key, Value: tv}, nil
	}

	if raw, ok := fields["table"]; ok {
		var table Table
		if err := json.Unmarshal(raw, &table); err != nil {
			return nil, err
		}
		return TablePayload{Table: table}, nil
	}

	if status == StatusSuccess {
		return PongPayload{}, nil
	}
	return nil, nil
}
