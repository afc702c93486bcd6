package features

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// Decode reads one JSON object from r. Numbers are kept as json.Number so integers survive exactly.
func Decode(r io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		return nil, &MalformedBodyError{Err: err}
	}
	if raw == nil {
		return nil, &MalformedBodyError{Err: errors.New("body must be a JSON object")}
	}
	if dec.More() {
		return nil, &MalformedBodyError{Err: errors.New("trailing data after JSON object")}
	}
	return raw, nil
}

// DecodeBytes is Decode over a byte slice.
func DecodeBytes(b []byte) (map[string]any, error) {
	return Decode(bytes.NewReader(b))
}
