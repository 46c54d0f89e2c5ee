package rpc

import (
	"encoding/json"
)

const (
	msgInvalidVersion = "Invalid JSON-RPC version"
	msgMethodRequired = "Method is required and must be a string"
	msgInvalidParams  = "Params must be a structured value or omitted"
	msgInvalidID      = "Id must be a string, integer, float, or omitted"
	msgCallNeedsID    = "A procedure call requires an id"
	msgInvalidObject  = "Invalid request"
)

// Request is a validated call or notification. Requests are immutable;
// a Request without an id is a notification.
type Request struct {
	method string
	params any
	id     ID
}

// NewRequest builds a request. Params are normalised into map[string]any or
// []any; any other shape fails with an invalid params error.
func NewRequest(method string, params any, id ID) (Request, error) {
	if method == "" {
		return Request{}, NewInvalidRequest(msgMethodRequired)
	}
	p, err := normalizeParams(params)
	if err != nil {
		return Request{}, err
	}
	return Request{method: method, params: p, id: id}, nil
}

// NewCall builds a request that expects a response.
func NewCall(method string, params any, id ID) (Request, error) {
	if !id.IsPresent() {
		return Request{}, NewInvalidRequest(msgCallNeedsID)
	}
	return NewRequest(method, params, id)
}

func NewNotification(method string, params any) (Request, error) {
	return NewRequest(method, params, NoID())
}

func (r Request) Method() string       { return r.method }
func (r Request) ID() ID               { return r.id }
func (r Request) IsNotification() bool { return !r.id.IsPresent() }

// Params returns map[string]any, []any or nil when the request carries none.
func (r Request) Params() any { return r.params }

// ParamsOrEmpty returns the params, or an empty map when absent.
func (r Request) ParamsOrEmpty() any {
	if r.params == nil {
		return map[string]any{}
	}
	return r.params
}

func (r Request) hasParams() bool {
	switch p := r.params.(type) {
	case map[string]any:
		return len(p) > 0
	case []any:
		return len(p) > 0
	}
	return false
}

// RequestFromDecoded validates a decoded JSON value as a request.
// An explicit null id is treated the same as a missing one.
func RequestFromDecoded(v any) (Request, error) {
	obj, ok := v.(map[string]any)
	if !ok || len(obj) == 0 {
		return Request{}, NewInvalidRequest(msgInvalidObject)
	}

	if ver, ok := obj["jsonrpc"].(string); !ok || ver != JSONRPCVersion {
		return Request{}, NewInvalidRequest(msgInvalidVersion)
	}

	method, ok := obj["method"].(string)
	if !ok || method == "" {
		return Request{}, NewInvalidRequest(msgMethodRequired)
	}

	req := Request{method: method}
	if raw, present := obj["params"]; present {
		switch raw.(type) {
		case map[string]any, []any:
			req.params = raw
		default:
			return Request{}, NewInvalidRequest(msgInvalidParams)
		}
	}

	if raw, present := obj["id"]; present {
		id, ok := idFromDecoded(raw, false)
		if !ok {
			return Request{}, NewInvalidRequest(msgInvalidID)
		}
		req.id = id
	}
	return req, nil
}

// Decoded returns the request as a generic JSON value. Params and id are
// left out when absent.
func (r Request) Decoded() map[string]any {
	out := map[string]any{
		"jsonrpc": JSONRPCVersion,
		"method":  r.method,
	}
	if r.hasParams() {
		out["params"] = r.params
	}
	if r.id.IsPresent() {
		out["id"] = r.id.Value()
	}
	return out
}

type wireRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      *ID    `json:"id,omitempty"`
}

func (r Request) MarshalJSON() ([]byte, error) {
	w := wireRequest{
		JSONRPC: JSONRPCVersion,
		Method:  r.method,
	}
	if r.hasParams() {
		w.Params = r.params
	}
	if r.id.IsPresent() {
		id := r.id
		w.ID = &id
	}
	return json.Marshal(w)
}

func normalizeParams(params any) (any, error) {
	switch p := params.(type) {
	case nil:
		return nil, nil
	case map[string]any, []any:
		return p, nil
	case json.RawMessage:
		return normalizeRawParams(p)
	}
	data, err := json.Marshal(params)
	if err != nil {
		return nil, NewInvalidParams(err.Error())
	}
	return normalizeRawParams(data)
}

func normalizeRawParams(data []byte) (any, error) {
	v, err := Decode(data)
	if err != nil {
		return nil, NewInvalidParams(err.Error())
	}
	switch v.(type) {
	case nil:
		return nil, nil
	case map[string]any, []any:
		return v, nil
	}
	return nil, NewInvalidParams(msgInvalidParams)
}
