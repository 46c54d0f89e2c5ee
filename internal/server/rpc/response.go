package rpc

import (
	"encoding/json"
	"math"
)

// Response carries either a result or an error object, never both.
type Response struct {
	result any
	err    *Error
	id     ID
}

func NewResponse(result any, id ID) Response {
	return Response{result: result, id: id}
}

// NewErrorResponse wraps err into a response. A nil err becomes an internal error.
func NewErrorResponse(err *Error, id ID) Response {
	if err == nil {
		err = NewInternalError("")
	}
	return Response{err: err, id: id}
}

func (r Response) Result() any   { return r.result }
func (r Response) Err() *Error   { return r.err }
func (r Response) IsError() bool { return r.err != nil }
func (r Response) ID() ID        { return r.id }

type wireResult struct {
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result"`
	ID      ID     `json:"id"`
}

type wireError struct {
	JSONRPC string `json:"jsonrpc"`
	Error   *Error `json:"error"`
	ID      ID     `json:"id"`
}

func (r Response) MarshalJSON() ([]byte, error) {
	if r.err != nil {
		return json.Marshal(wireError{JSONRPC: JSONRPCVersion, Error: r.err, ID: r.id})
	}
	return json.Marshal(wireResult{JSONRPC: JSONRPCVersion, Result: r.result, ID: r.id})
}

// Decoded returns the response as a generic JSON value.
func (r Response) Decoded() map[string]any {
	out := map[string]any{
		"jsonrpc": JSONRPCVersion,
		"id":      r.id.Value(),
	}
	if r.err != nil {
		out["error"] = map[string]any{
			"code":    r.err.Code,
			"message": r.err.Message,
			"data":    r.err.Data,
		}
	} else {
		out["result"] = r.result
	}
	return out
}

// ResponseFromDecoded validates a decoded JSON value as a response.
// Failures are reported with the ErrResponse* codes.
func ResponseFromDecoded(v any) (Response, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return Response{}, NewError(ErrResponseVersion, "", nil)
	}
	if ver, ok := obj["jsonrpc"].(string); !ok || ver != JSONRPCVersion {
		return Response{}, NewError(ErrResponseVersion, "", nil)
	}

	result, hasResult := obj["result"]
	rawErr, hasError := obj["error"]
	if hasResult == hasError {
		return Response{}, NewError(ErrResponsePayload, "", nil)
	}

	rawID, present := obj["id"]
	if !present {
		return Response{}, NewError(ErrResponseID, "", nil)
	}
	id, ok := idFromDecoded(rawID, true)
	if !ok {
		return Response{}, NewError(ErrResponseID, "", nil)
	}

	if hasResult {
		return NewResponse(result, id), nil
	}
	errObj, ok := rawErr.(map[string]any)
	if !ok {
		return Response{}, NewError(ErrResponsePayload, "", nil)
	}
	return NewErrorResponse(errorFromDecoded(errObj), id), nil
}

func errorFromDecoded(obj map[string]any) *Error {
	code := ErrUnknown
	switch c := obj["code"].(type) {
	case json.Number:
		if n, err := c.Int64(); err == nil {
			code = int(n)
		} else if f, err := c.Float64(); err == nil {
			code = int(math.Trunc(f))
		}
	case float64:
		code = int(c)
	}
	message := ErrUnknownS
	if m, ok := obj["message"].(string); ok {
		message = m
	}
	return &Error{Code: code, Message: message, Data: obj["data"]}
}
