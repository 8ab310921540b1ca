package codec

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/goliatone/go-rehydrate/pkg/tree"
)

const (
	recordTag     = "@@record"
	recordValue   = "value"
	orderedRecord = "ordered"
)

// RecordsCodec is a JSON codec that tags ordered trees and registered Go
// types so Parse rebuilds them instead of returning plain maps.
type RecordsCodec struct {
	mu     sync.RWMutex
	byName map[string]reflect.Type
	byType map[reflect.Type]string
}

// Records returns an empty RecordsCodec. *tree.Ordered is always preserved.
func Records(records ...Record) *RecordsCodec {
	c := &RecordsCodec{}
	c.SetRecords(records)
	return c
}

// SetRecords replaces the registered types.
func (c *RecordsCodec) SetRecords(records []Record) {
	byName := make(map[string]reflect.Type, len(records))
	byType := make(map[reflect.Type]string, len(records))
	for _, record := range records {
		if record.Name == "" || record.Name == orderedRecord || record.Type == nil {
			continue
		}
		byName[record.Name] = record.Type
		byType[record.Type] = record.Name
	}
	c.mu.Lock()
	c.byName = byName
	c.byType = byType
	c.mu.Unlock()
}

func (c *RecordsCodec) Serialize(value any) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	encoded, err := c.encode(value)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(encoded)
	if err != nil {
		return nil, fmt.Errorf("codec: records serialize: %w", err)
	}
	return data, nil
}

func (c *RecordsCodec) Parse(data []byte) (any, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("codec: records parse: %w", err)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.decode(raw)
}

func (c *RecordsCodec) encode(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if name, ok := c.byType[reflect.TypeOf(value)]; ok {
		return map[string]any{recordTag: name, recordValue: value}, nil
	}
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			encoded, err := c.encode(item)
			if err != nil {
				return nil, err
			}
			out[key] = encoded
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			encoded, err := c.encode(item)
			if err != nil {
				return nil, err
			}
			out[i] = encoded
		}
		return out, nil
	}
	if agg, ok := tree.Of(value); ok {
		entries := make([]any, 0, agg.Len())
		for _, key := range agg.Keys() {
			item, _ := agg.Get(key)
			encoded, err := c.encode(item)
			if err != nil {
				return nil, err
			}
			entries = append(entries, []any{key, encoded})
		}
		return map[string]any{recordTag: orderedRecord, recordValue: entries}, nil
	}
	return value, nil
}

func (c *RecordsCodec) decode(value any) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		if name, ok := v[recordTag].(string); ok && len(v) == 2 {
			return c.decodeRecord(name, v[recordValue])
		}
		out := make(map[string]any, len(v))
		for key, item := range v {
			decoded, err := c.decode(item)
			if err != nil {
				return nil, err
			}
			out[key] = decoded
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			decoded, err := c.decode(item)
			if err != nil {
				return nil, err
			}
			out[i] = decoded
		}
		return out, nil
	default:
		return value, nil
	}
}

func (c *RecordsCodec) decodeRecord(name string, payload any) (any, error) {
	if name == orderedRecord {
		entries, ok := payload.([]any)
		if !ok {
			return nil, fmt.Errorf("codec: ordered record expects entries, got %T", payload)
		}
		out := tree.NewOrdered()
		for _, entry := range entries {
			pair, ok := entry.([]any)
			if !ok || len(pair) != 2 {
				return nil, fmt.Errorf("codec: malformed ordered entry %v", entry)
			}
			key, ok := pair[0].(string)
			if !ok {
				return nil, fmt.Errorf("codec: ordered key %v is not a string", pair[0])
			}
			item, err := c.decode(pair[1])
			if err != nil {
				return nil, err
			}
			out = out.Set(key, item)
		}
		return out, nil
	}

	typ, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("codec: record %q not registered", name)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("codec: record %q: %w", name, err)
	}
	target := reflect.New(typ)
	if err := json.Unmarshal(data, target.Interface()); err != nil {
		return nil, fmt.Errorf("codec: record %q: %w", name, err)
	}
	return target.Elem().Interface(), nil
}
