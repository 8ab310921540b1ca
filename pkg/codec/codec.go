// Package codec turns state values into bytes for a storage backend and back.
package codec

import (
	"fmt"
	"reflect"
	"strings"
)

// Codec serializes and parses persisted state.
type Codec interface {
	Serialize(value any) ([]byte, error)
	Parse(data []byte) (any, error)
	// SetRecords registers structural types the codec should preserve. Codecs
	// without type support ignore it.
	SetRecords(records []Record)
}

// Record registers a Go type under a stable name.
type Record struct {
	Name string
	Type reflect.Type
}

// RecordOf returns the Record for T.
func RecordOf[T any](name string) Record {
	return Record{Name: name, Type: reflect.TypeOf((*T)(nil)).Elem()}
}

// Names accepted by ByName.
const (
	NameJSON    = "json"
	NameYAML    = "yaml"
	NameRecords = "records"
)

// ByName returns a new codec for name.
func ByName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameJSON:
		return JSON(), nil
	case NameYAML, "yml":
		return YAML(), nil
	case NameRecords:
		return Records(), nil
	default:
		return nil, fmt.Errorf("codec: unknown codec %q", name)
	}
}
