// Package rpc holds the JSON-RPC 2.0 message model shared by the node and its client:
// identifiers, requests, responses, the error object and the decoding helpers.
package rpc

import (
	"encoding/json"
	"math"
	"strconv"
)

const (
	JSONRPCVersion = "2.0"
)

// ID is a request identifier. An ID is either absent or present with a
// string or numeric value; zero and "" are present values.
type ID struct {
	value   any
	present bool
}

func NoID() ID                  { return ID{} }
func StringID(s string) ID      { return ID{value: s, present: true} }
func IntID(n int64) ID          { return ID{value: n, present: true} }
func FloatID(f float64) ID      { return ID{value: f, present: true} }
func NumberID(n json.Number) ID { return ID{value: n, present: true} }
func (id ID) IsPresent() bool   { return id.present }
func (id ID) Value() any        { return id.value }

// String renders the id for logs. Absent ids render as "null".
func (id ID) String() string {
	if !id.present {
		return "null"
	}
	switch v := id.value.(type) {
	case string:
		return strconv.Quote(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case json.Number:
		return v.String()
	}
	return "null"
}

// Equal compares ids by presence and wire representation.
func (id ID) Equal(other ID) bool {
	return id.present == other.present && id.String() == other.String()
}

func (id ID) MarshalJSON() ([]byte, error) {
	if !id.present {
		return []byte("null"), nil
	}
	return json.Marshal(id.value)
}

// idFromDecoded accepts the value of a decoded "id" member. nil maps to an
// absent id when allowNull is set and is rejected otherwise.
func idFromDecoded(v any, allowNull bool) (ID, bool) {
	switch t := v.(type) {
	case nil:
		return NoID(), allowNull
	case string:
		return StringID(t), true
	case json.Number:
		return NumberID(t), true
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return IntID(int64(t)), true
		}
		return FloatID(t), true
	case int:
		return IntID(int64(t)), true
	case int64:
		return IntID(t), true
	}
	return ID{}, false
}
