package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Ordered is a persistent map that remembers insertion order. The zero value
// is an empty map ready to use; every update returns a new *Ordered.
type Ordered struct {
	keys   []string
	values map[string]any
}

// NewOrdered builds an Ordered map from alternating key/value pairs.
func NewOrdered(pairs ...any) *Ordered {
	if len(pairs)%2 != 0 {
		panic("tree: NewOrdered expects key/value pairs")
	}
	out := &Ordered{}
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("tree: NewOrdered key %v is not a string", pairs[i]))
		}
		out = out.Set(key, pairs[i+1])
	}
	return out
}

// FromMap builds an Ordered map from m. Keys listed in order come first; the
// remaining keys follow in sorted order.
func FromMap(m map[string]any, order ...string) *Ordered {
	out := &Ordered{}
	seen := make(map[string]struct{}, len(m))
	for _, key := range order {
		if value, ok := m[key]; ok {
			out = out.Set(key, value)
			seen[key] = struct{}{}
		}
	}
	for _, key := range (mapAggregate{m: m}).Keys() {
		if _, ok := seen[key]; ok {
			continue
		}
		out = out.Set(key, m[key])
	}
	return out
}

// Set returns a copy of o with key set to value. Existing keys keep their
// position.
func (o *Ordered) Set(key string, value any) *Ordered {
	next := o.clone(1)
	if _, exists := next.values[key]; !exists {
		next.keys = append(next.keys, key)
	}
	next.values[key] = value
	return next
}

// Delete returns a copy of o without key.
func (o *Ordered) Delete(key string) *Ordered {
	if o == nil {
		return &Ordered{}
	}
	if _, ok := o.values[key]; !ok {
		return o
	}
	next := &Ordered{
		keys:   make([]string, 0, len(o.keys)-1),
		values: make(map[string]any, len(o.values)-1),
	}
	for _, k := range o.keys {
		if k == key {
			continue
		}
		next.keys = append(next.keys, k)
		next.values[k] = o.values[k]
	}
	return next
}

// Range calls fn for every entry in insertion order until fn returns false.
func (o *Ordered) Range(fn func(key string, value any) bool) {
	if o == nil {
		return
	}
	for _, key := range o.keys {
		if !fn(key, o.values[key]) {
			return
		}
	}
}

func (o *Ordered) Keys() []string {
	if o == nil {
		return nil
	}
	return append([]string(nil), o.keys...)
}

func (o *Ordered) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	value, ok := o.values[key]
	return value, ok
}

func (o *Ordered) With(key string, value any) Aggregate {
	return o.Set(key, value)
}

func (o *Ordered) Without(key string) Aggregate {
	return o.Delete(key)
}

func (o *Ordered) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

func (o *Ordered) Value() any {
	return o
}

// MarshalJSON encodes the map as a JSON object keeping insertion order.
func (o *Ordered) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		encodedValue, err := json.Marshal(o.values[key])
		if err != nil {
			return nil, fmt.Errorf("tree: marshal key %q: %w", key, err)
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		buf.Write(encodedValue)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping the document's key order.
func (o *Ordered) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("tree: expected JSON object, got %v", tok)
	}
	next := &Ordered{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("tree: expected object key, got %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("tree: decode key %q: %w", key, err)
		}
		next = next.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*o = *next
	return nil
}

func (o *Ordered) clone(extra int) *Ordered {
	if o == nil {
		return &Ordered{values: make(map[string]any, extra)}
	}
	next := &Ordered{
		keys:   make([]string, len(o.keys), len(o.keys)+extra),
		values: make(map[string]any, len(o.values)+extra),
	}
	copy(next.keys, o.keys)
	for k, v := range o.values {
		next.values[k] = v
	}
	return next
}
