// Package hydrate decodes rehydrated slice values into typed Go structs.
package hydrate

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Context identifies the slice a value belongs to.
type Context struct {
	Slice string
	Key   string
}

// PreHook lets callers mutate or normalise an object payload before decoding.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook lets callers adjust or validate the decoded value.
type PostHook[T any] func(Context, *T) error

// CustomDecoder replaces the default JSON decoding when provided.
type CustomDecoder[T any] func(Context, any) (T, error)

// DecoderOption configures a Decoder instance.
type DecoderOption[T any] func(*Decoder[T])

// Decoder converts slice values (maps, ordered trees, scalars) into T.
type Decoder[T any] struct {
	preHooks     []PreHook
	postHooks    []PostHook[T]
	configureDec []func(*json.Decoder)
	custom       CustomDecoder[T]
}

// WithPreHook applies hook prior to decoding. Pre-hooks require the slice
// value to be an object.
func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithPostHook applies hook after decoding completes.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// WithUseNumber enables json.Decoder.UseNumber during decoding.
func WithUseNumber[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.configureDec = append(d.configureDec, func(dec *json.Decoder) {
			dec.UseNumber()
		})
	}
}

// WithDisallowUnknownFields invokes json.Decoder.DisallowUnknownFields.
func WithDisallowUnknownFields[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.configureDec = append(d.configureDec, func(dec *json.Decoder) {
			dec.DisallowUnknownFields()
		})
	}
}

// WithCustomDecoder replaces the default JSON decoding path.
func WithCustomDecoder[T any](decoder CustomDecoder[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.custom = decoder
	}
}

func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode converts value into T applying configured hooks. The input is never
// mutated.
func (d *Decoder[T]) Decode(ctx Context, value any) (T, error) {
	var zero T

	if value == nil {
		return zero, fmt.Errorf("hydrate: slice %q has no value", ctx.Slice)
	}

	buffer, err := json.Marshal(value)
	if err != nil {
		return zero, fmt.Errorf("hydrate: marshal slice %q: %w", ctx.Slice, err)
	}

	var current any
	if len(d.preHooks) > 0 {
		payload := map[string]any{}
		if err := json.Unmarshal(buffer, &payload); err != nil {
			return zero, fmt.Errorf("hydrate: slice %q is not an object: %w", ctx.Slice, err)
		}
		for _, hook := range d.preHooks {
			if hook == nil {
				continue
			}
			next, err := hook(ctx, payload)
			if err != nil {
				return zero, fmt.Errorf("hydrate: pre-hook for slice %q failed: %w", ctx.Slice, err)
			}
			if next != nil {
				payload = next
			}
		}
		current = payload
		if buffer, err = json.Marshal(payload); err != nil {
			return zero, fmt.Errorf("hydrate: marshal slice %q: %w", ctx.Slice, err)
		}
	}

	var result T
	if d.custom != nil {
		if current == nil {
			if err := json.Unmarshal(buffer, &current); err != nil {
				return zero, fmt.Errorf("hydrate: clone slice %q: %w", ctx.Slice, err)
			}
		}
		result, err = d.custom(ctx, current)
		if err != nil {
			return zero, fmt.Errorf("hydrate: custom decoder for slice %q failed: %w", ctx.Slice, err)
		}
	} else {
		decoder := json.NewDecoder(bytes.NewReader(buffer))
		for _, configure := range d.configureDec {
			if configure != nil {
				configure(decoder)
			}
		}
		if err := decoder.Decode(&result); err != nil {
			return zero, fmt.Errorf("hydrate: decode slice %q: %w", ctx.Slice, err)
		}
	}

	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, &result); err != nil {
			return zero, fmt.Errorf("hydrate: post-hook for slice %q failed: %w", ctx.Slice, err)
		}
	}

	return result, nil
}
