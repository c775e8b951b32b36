package value

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Action is the uppercase, space-separated request discriminator.
type Action string

const (
	ActionPing        Action = "PING"
	ActionAuth        Action = "AUTH"
	ActionListTables  Action = "LIST TABLE"
	ActionInsertTable Action = "INSERT TABLE"
	ActionGetTable    Action = "GET TABLE"
	ActionDeleteTable Action = "DELETE TABLE"
	ActionList        Action = "LIST"
	ActionGet         Action = "GET"
	ActionDelete      Action = "DELETE"
	ActionInsert      Action = "INSERT"
)

// Request is the single flattened wire shape for every request action.
// Unlike Response it has no field-name collisions across actions, so a
// plain struct with omitempty fields round-trips through both encodings
// without a custom (de)serializer.
type Request struct {
	Action Action `json:"action" msgpack:"action"`

	Username string `json:"username,omitempty" msgpack:"username,omitempty"`
	Password string `json:"password,omitempty" msgpack:"password,omitempty"`

	Table string `json:"table,omitempty" msgpack:"table,omitempty"`
	Key   string `json:"key,omitempty" msgpack:"key,omitempty"`

	Contents map[string]InsertTableValue `json:"contents,omitempty" msgpack:"contents,omitempty"`

	Value    *PrimitiveValue `json:"value,omitempty" msgpack:"value,omitempty"`
	Lifetime *uint64         `json:"lifetime,omitempty" msgpack:"lifetime,omitempty"`
}

// Status is the closed response status enumeration.
type Status uint8

const (
	StatusSuccess Status = iota
	StatusConnLimit
	StatusBadRequest
	StatusServerError
	StatusRequestTooLarge
	StatusResponseTooLarge
	StatusUnauthorized
	StatusPermissionDenied
	StatusBadCredentials
	StatusAlreadyExists
	StatusNoSuchTable
	StatusNoSuchKey
	StatusKeyExpired
)

var statusWire = [...]string{
	StatusSuccess:          "OK",
	StatusConnLimit:        "Too many connections",
	StatusBadRequest:       "Malformed request",
	StatusServerError:      "Server error",
	StatusRequestTooLarge:  "Request too large",
	StatusResponseTooLarge: "Response too large",
	StatusUnauthorized:     "Unauthorized",
	StatusPermissionDenied: "Permission denied",
	StatusBadCredentials:   "Invalid credentials",
	StatusAlreadyExists:    "Already exists",
	StatusNoSuchTable:      "No such table",
	StatusNoSuchKey:        "No such key",
	StatusKeyExpired:       "Key expired",
}

func (s Status) String() string {
	if int(s) < len(statusWire) {
		return statusWire[s]
	}
	return "Unknown status"
}

func StatusFromWire(s string) (Status, error) {
	for i, w := range statusWire {
		if w == s {
			return Status(i), nil
		}
	}
	return 0, fmt.Errorf("value: unknown status %q", s)
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := StatusFromWire(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s Status) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeString(s.String())
}

func (s *Status) DecodeMsgpack(dec *msgpack.Decoder) error {
	str, err := dec.DecodeString()
	if err != nil {
		return err
	}
	parsed, err := StatusFromWire(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Payload is the closed set of response payload shapes. Every variant's
// wire representation is flattened directly into the response object.
type Payload interface{ isPayload() }

type PongPayload struct{}

func (PongPayload) isPayload() {}

type TablesPayload struct{ Tables []string }

func (TablesPayload) isPayload() {}

type KeysPayload struct{ Keys []string }

func (KeysPayload) isPayload() {}

type TablePayload struct{ Table Table }

func (TablePayload) isPayload() {}

type TableValuePayload struct {
	Table string
	Key   string
	Value TableValue
}

func (TableValuePayload) isPayload() {}

// Response carries a Status and an optional flattened Payload. Two
// payload variants (TablePayload, TableValuePayload) both use the wire
// field name "table" with different types (an object vs. a string), so
// Response implements its own (de)serialization rather than relying on a
// single flattened struct: encoding switches on the payload's concrete
// type, decoding sniffs which payload is present from which field names
// co-occur (the same disambiguation a hand-written flattened-union
// decoder needs in any language without the original's enum dispatch).
type Response struct {
	Status  Status
	Payload Payload
}

func StatusOnly(status Status) Response { return Response{Status: status} }
func OK(payload Payload) Response       { return Response{Status: StatusSuccess, Payload: payload} }

var OKEmpty = Response{Status: StatusSuccess}
