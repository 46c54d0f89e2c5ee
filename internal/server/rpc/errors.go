package rpc

import (
	"errors"
	"fmt"
)

const (
	ErrParseError  = -32700
	ErrParseErrorS = "Invalid json received by the server"

	ErrInvalidRequest  = -32600
	ErrInvalidRequestS = "Invalid request object"

	ErrMethodNotFound  = -32601
	ErrMethodNotFoundS = "The requested method does not exist"

	ErrInvalidParams  = -32602
	ErrInvalidParamsS = "Invalid method parameter(s)"

	ErrInternalError  = -32603
	ErrInternalErrorS = "An internal error occurred"

	ErrSessionIsTaken  = -32030
	ErrSessionIsTakenS = "The session is already taken"
)

// Codes raised by the client while reading a reply that breaks the protocol.
const (
	ErrUnknown  = -32500
	ErrUnknownS = "Unknown error"

	ErrResponseVersion  = -32501
	ErrResponseVersionS = `Invalid response: "jsonrpc" must be "2.0"`

	ErrResponsePayload  = -32502
	ErrResponsePayloadS = `Invalid response: "result" or "error" must be present`

	ErrResponseID  = -32503
	ErrResponseIDS = `Invalid response: "id" must be present and be a string, integer, float, or null`
)

var defaultMessages = map[int]string{
	ErrParseError:      ErrParseErrorS,
	ErrInvalidRequest:  ErrInvalidRequestS,
	ErrMethodNotFound:  ErrMethodNotFoundS,
	ErrInvalidParams:   ErrInvalidParamsS,
	ErrInternalError:   ErrInternalErrorS,
	ErrSessionIsTaken:  ErrSessionIsTakenS,
	ErrUnknown:         ErrUnknownS,
	ErrResponseVersion: ErrResponseVersionS,
	ErrResponsePayload: ErrResponsePayloadS,
	ErrResponseID:      ErrResponseIDS,
}

// Error is the error object carried by a failed Response.
// A nil Data is written as null.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// NewError builds an error object. An empty message is replaced by the
// default message of a known code.
func NewError(code int, message string, data any) *Error {
	if message == "" {
		message = defaultMessages[code]
	}
	return &Error{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

func NewParseError(message string) *Error     { return NewError(ErrParseError, message, nil) }
func NewInvalidRequest(message string) *Error { return NewError(ErrInvalidRequest, message, nil) }
func NewMethodNotFound(message string) *Error { return NewError(ErrMethodNotFound, message, nil) }
func NewInvalidParams(message string) *Error  { return NewError(ErrInvalidParams, message, nil) }
func NewInternalError(message string) *Error  { return NewError(ErrInternalError, message, nil) }

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithData returns a copy of e carrying data.
func (e *Error) WithData(data any) *Error {
	c := *e
	c.Data = data
	return &c
}

// HasCode reports whether err carries a jsonrpc error with the given code.
func HasCode(err error, code int) bool {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Code == code
	}
	return false
}

// Coder is implemented by failures that carry their own numeric code.
type Coder interface {
	ErrorCode() int
}

// FromError converts any failure into an error object: an *Error in the
// chain is returned as is, a Coder keeps its code, everything else becomes
// an internal error with the failure's message.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr
	}
	var coded Coder
	if errors.As(err, &coded) {
		return NewError(coded.ErrorCode(), err.Error(), nil)
	}
	return NewInternalError(err.Error())
}
