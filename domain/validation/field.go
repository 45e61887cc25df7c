package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// ErrMalformedBody is returned by ParseBody when the request body is not a JSON object.
var ErrMalformedBody = errors.New("request body must be a JSON object")

// Field is a single request value. It tells an absent key apart from an
// explicit null, which partial updates depend on.
type Field struct {
	Present bool   `json:"present,omitempty"`
	Null    bool   `json:"null,omitempty"`
	Value   string `json:"value,omitempty"`
	// Numeric is set when the value was supplied as a JSON number.
	Numeric bool `json:"numeric,omitempty"`
	// Malformed is set for booleans, arrays and objects.
	Malformed bool `json:"malformed,omitempty"`
}

// String returns a present string field.
func String(v string) Field {
	return Field{Present: true, Value: v}
}

// Null returns a present field holding null.
func Null() Field {
	return Field{Present: true, Null: true}
}

// Filled reports whether the field holds a non-blank value.
func (f Field) Filled() bool {
	return f.Present && !f.Null && (f.Malformed || strings.TrimSpace(f.Value) != "")
}

// Text returns the trimmed value. Null and absent fields yield "".
func (f Field) Text() string {
	return strings.TrimSpace(f.Value)
}

// Ptr returns the trimmed value, or nil for an absent, null or blank field.
func (f Field) Ptr() *string {
	if !f.Filled() || f.Malformed {
		return nil
	}
	s := f.Text()
	return &s
}

// Body is a decoded JSON object keyed by request field name.
type Body map[string]Field

// Get returns the named field; missing keys yield an absent Field.
func (b Body) Get(name string) Field {
	return b[name]
}

// ParseBody decodes a JSON object into Fields. An empty body is an empty object.
func ParseBody(data []byte) (Body, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Body{}, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return nil, ErrMalformedBody
	}

	body := make(Body, len(raw))
	for name, value := range raw {
		body[name] = decodeField(value)
	}
	return body, nil
}

func decodeField(raw json.RawMessage) Field {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Field{Present: true, Null: true}
	}

	switch raw[0] {
	case 'n':
		return Null()
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Field{Present: true, Malformed: true}
		}
		return String(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return Field{Present: true, Value: string(raw), Numeric: true}
	default:
		return Field{Present: true, Malformed: true}
	}
}
