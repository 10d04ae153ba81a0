// Package protocol defines the JSON-RPC 2.0 envelope and MCP data model
// shared by every transport, the protocol engine, and both the server and
// client cores.
package protocol

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is the disjoint union of a signed 64-bit integer or a string that
// JSON-RPC uses to correlate requests and responses. The zero value is the
// "unset" id and must never be sent on the wire; notifications carry no ID
// at all and are represented by leaving it unset.
type ID struct {
	str      string
	num      int64
	isString bool
	isSet    bool
}

// NewIntID builds a numeric request id.
func NewIntID(n int64) ID {
	return ID{num: n, isSet: true}
}

// NewStringID builds a string request id.
func NewStringID(s string) ID {
	return ID{str: s, isString: true, isSet: true}
}

// IsSet reports whether the id carries a value (false for notifications).
func (id ID) IsSet() bool { return id.isSet }

// IsString reports whether the id is the string half of the union.
func (id ID) IsString() bool { return id.isSet && id.isString }

// String renders the id for logging and map-key-free comparisons.
func (id ID) String() string {
	if !id.isSet {
		return "<unset>"
	}
	if id.isString {
		return id.str
	}
	return strconv.FormatInt(id.num, 10)
}

// Equal reports whether two ids refer to the same request.
func (id ID) Equal(other ID) bool {
	return id.isSet == other.isSet && id.isString == other.isString &&
		id.str == other.str && id.num == other.num
}

// MarshalJSON renders the id as a bare JSON number or string, or `null` when
// unset (used only when echoing the id of a malformed request).
func (id ID) MarshalJSON() ([]byte, error) {
	if !id.isSet {
		return []byte("null"), nil
	}
	if id.isString {
		return json.Marshal(id.str)
	}
	return json.Marshal(id.num)
}

// UnmarshalJSON accepts a JSON number, string, or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ID{}
		return nil
	}
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*id = NewStringID(asString)
		return nil
	}
	var asNumber json.Number
	if err := json.Unmarshal(data, &asNumber); err != nil {
		return fmt.Errorf("protocol: id must be a string, number, or null: %w", err)
	}
	n, err := asNumber.Int64()
	if err != nil {
		return fmt.Errorf("protocol: id number out of int64 range: %w", err)
	}
	*id = NewIntID(n)
	return nil
}
