// Package json provides JSON serialization for Augustus.
//
// It wraps goccy/go-json so the rest of the codebase has a single import
// point for JSON handling. Schema documents are parsed once per open, so
// no encoder pooling is needed here.
package json

import (
	gojson "github.com/goccy/go-json"
)

// Marshal serializes a value to JSON
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// MarshalIndent serializes a value to indented JSON
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return gojson.MarshalIndent(v, prefix, indent)
}

// Unmarshal deserializes JSON into a value
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// Valid reports whether data is well-formed JSON
func Valid(data []byte) bool {
	return gojson.Valid(data)
}
