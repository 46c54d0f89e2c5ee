package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/buger/jsonparser"
)

var ErrTrailingData = errors.New("unexpected data after top-level value")

// Decode parses exactly one JSON value. Numbers are kept as json.Number so
// integer and float ids survive a round trip.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, ErrTrailingData
	}
	return v, nil
}

// RecoverID peeks at the "id" member of a raw message that failed validation.
// Anything but a string or number yields an absent id.
func RecoverID(raw []byte) ID {
	value, dataType, _, err := jsonparser.Get(raw, "id")
	if err != nil {
		return NoID()
	}
	switch dataType {
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return NoID()
		}
		return StringID(s)
	case jsonparser.Number:
		return NumberID(json.Number(value))
	}
	return NoID()
}
