package lsp

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// RequestID represents a JSON-RPC 2.0 id, which the spec allows to be a
// string, a number, or null. The client always mints int64 ids for its own
// outgoing requests, but must decode whatever a language server echoes
// back or sends in a server-to-client request.
type RequestID struct {
	intValue *int64
	strValue *string
}

// NewIntID builds a RequestID around the client's own monotonic counter.
func NewIntID(n int64) RequestID {
	return RequestID{intValue: &n}
}

// UnmarshalJSON accepts null, a JSON number, or a JSON string (falling back
// to parsing the string as an integer so servers that stringify numeric
// ids still round-trip through the pending-reply map).
func (id *RequestID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		id.intValue = &n
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		id.strValue = &s
		if parsed, err := strconv.ParseInt(s, 10, 64); err == nil {
			id.intValue = &parsed
		}
		return nil
	}

	return fmt.Errorf("id must be string, number, or null, got: %s", string(data))
}

// MarshalJSON emits the numeric form when available, else the string form,
// else null.
func (id RequestID) MarshalJSON() ([]byte, error) {
	if id.intValue != nil {
		return json.Marshal(*id.intValue)
	}
	if id.strValue != nil {
		return json.Marshal(*id.strValue)
	}
	return []byte("null"), nil
}

// Key returns a map-safe key for the pending-reply table.
func (id RequestID) Key() int64 {
	if id.intValue != nil {
		return *id.intValue
	}
	return 0
}

// IsSet reports whether the id carries any value (as opposed to null).
func (id RequestID) IsSet() bool {
	return id.intValue != nil || id.strValue != nil
}
