package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/goliatone/go-rehydrate/pkg/codec"
	"github.com/goliatone/go-rehydrate/pkg/migrate"
	"github.com/goliatone/go-rehydrate/pkg/transform"
	"github.com/goliatone/go-rehydrate/pkg/tree"
)

// Persistor adapts a Backend to Storage.
//
// Read path: backend get, codec parse, marker extraction, migrations,
// transform decode (last registered transform first).
// Write path: transform encode (first registered transform first), version
// marker, codec serialize, backend set. A nil value removes the key.
type Persistor struct {
	backend Backend

	mu         sync.RWMutex
	codec      codec.Codec
	transforms transform.Pipeline
	migrations migrate.Table
}

// PersistorOption configures a Persistor.
type PersistorOption func(*Persistor)

// WithCodec selects the codec. The default is codec.JSON().
func WithCodec(c codec.Codec) PersistorOption {
	return func(p *Persistor) {
		p.SetCodec(c)
	}
}

// WithTransforms sets the transform pipeline.
func WithTransforms(transforms ...transform.Transform) PersistorOption {
	return func(p *Persistor) {
		p.SetTransforms(transforms...)
	}
}

// WithMigrations sets the migration table.
func WithMigrations(table migrate.Table) PersistorOption {
	return func(p *Persistor) {
		p.SetMigrations(table)
	}
}

// NewPersistor wraps backend.
func NewPersistor(backend Backend, opts ...PersistorOption) *Persistor {
	p := &Persistor{backend: backend, codec: codec.JSON()}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// SetCodec replaces the codec; nil restores the JSON default.
func (p *Persistor) SetCodec(c codec.Codec) {
	if c == nil {
		c = codec.JSON()
	}
	p.mu.Lock()
	p.codec = c
	p.mu.Unlock()
}

// SetTransforms replaces the transform pipeline. Nil entries are dropped.
func (p *Persistor) SetTransforms(transforms ...transform.Transform) {
	pipeline := make(transform.Pipeline, 0, len(transforms))
	for _, t := range transforms {
		if t != nil {
			pipeline = append(pipeline, t)
		}
	}
	p.mu.Lock()
	p.transforms = pipeline
	p.mu.Unlock()
}

// SetMigrations replaces the migration table.
func (p *Persistor) SetMigrations(table migrate.Table) {
	p.mu.Lock()
	p.migrations = table
	p.mu.Unlock()
}

func (p *Persistor) pipeline() (codec.Codec, transform.Pipeline, migrate.Table) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.codec, p.transforms, p.migrations
}

// Get implements Storage.
func (p *Persistor) Get(ctx context.Context, key string) (any, bool, error) {
	envelope, ok, err := p.Read(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	return envelope.State, true, nil
}

// Read returns the decoded envelope stored under key.
func (p *Persistor) Read(ctx context.Context, key string) (Envelope, bool, error) {
	if p.backend == nil {
		return Envelope{}, false, ErrNoBackend
	}
	data, ok, err := p.backend.Get(ctx, key)
	if err != nil {
		return Envelope{}, false, fmt.Errorf("storage: get %q: %w", key, err)
	}
	if !ok {
		return Envelope{}, false, nil
	}

	c, transforms, migrations := p.pipeline()
	parsed, err := c.Parse(data)
	if err != nil {
		return Envelope{}, false, fmt.Errorf("storage: get %q: %w", key, err)
	}

	state, version := splitMarker(parsed)
	if len(migrations) > 0 {
		state, version, err = migrations.Apply(state, version)
		if err != nil {
			return Envelope{}, false, fmt.Errorf("storage: get %q: %w", key, err)
		}
	}
	state, err = transforms.Decode(state)
	if err != nil {
		return Envelope{}, false, fmt.Errorf("storage: get %q: %w", key, err)
	}

	return Envelope{
		Version:   version,
		Versioned: version != migrate.NoVersion,
		State:     state,
	}, true, nil
}

// Set implements Storage.
func (p *Persistor) Set(ctx context.Context, key string, value any, version int) error {
	if p.backend == nil {
		return ErrNoBackend
	}
	c, transforms, _ := p.pipeline()
	encoded, err := transforms.Encode(value)
	if err != nil {
		return fmt.Errorf("storage: set %q: %w", key, err)
	}
	if encoded == nil {
		return p.Remove(ctx, key)
	}

	data, err := c.Serialize(withMarker(encoded, version))
	if err != nil {
		return fmt.Errorf("storage: set %q: %w", key, err)
	}
	if err := p.backend.Set(ctx, key, data); err != nil {
		return fmt.Errorf("storage: set %q: %w", key, err)
	}
	return nil
}

// Remove implements Storage.
func (p *Persistor) Remove(ctx context.Context, key string) error {
	if p.backend == nil {
		return ErrNoBackend
	}
	if err := p.backend.Remove(ctx, key); err != nil {
		return fmt.Errorf("storage: remove %q: %w", key, err)
	}
	return nil
}

func withMarker(value any, version int) any {
	agg, ok := tree.Of(value)
	if !ok {
		return value
	}
	marker := map[string]any{"version": nil}
	if version >= 0 {
		marker["version"] = version
	}
	return agg.With(MarkerKey, marker).Value()
}

// splitMarker removes the envelope marker and returns the stored version.
func splitMarker(value any) (any, int) {
	agg, ok := tree.Of(value)
	if !ok {
		return value, migrate.NoVersion
	}
	raw, ok := agg.Get(MarkerKey)
	if !ok {
		return value, migrate.NoVersion
	}
	version := migrate.NoVersion
	if marker, ok := tree.Of(raw); ok {
		if v, ok := marker.Get("version"); ok {
			if n, ok := asVersion(v); ok {
				version = n
			}
		}
	}
	return agg.Without(MarkerKey).Value(), version
}

func asVersion(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, v >= 0
	case int64:
		return int(v), v >= 0
	case float64:
		return int(v), v >= 0
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil && n >= 0
	default:
		return 0, false
	}
}
