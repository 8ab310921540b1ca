// Package activity reports slice lifecycle events (rehydrated, persisted,
// storage failures) to pluggable hooks.
package activity

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Event is one slice lifecycle occurrence.
type Event struct {
	Verb  string
	Slice string
	// Key is the storage key the slice is persisted under.
	Key     string
	Version int
	// Found reports whether storage held data for the slice.
	Found bool
	// Replayed counts buffered actions released after rehydration.
	Replayed int
	Err      error

	// ActorID and TenantID are free-form; sinks parse them as they need.
	ActorID    string
	TenantID   string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// Subject names what the event is about: the slice, or its key when the
// slice is unknown.
func (e Event) Subject() string {
	if slice := strings.TrimSpace(e.Slice); slice != "" {
		return slice
	}
	return strings.TrimSpace(e.Key)
}

// Valid reports whether the event carries a verb and a subject.
func (e Event) Valid() bool {
	return strings.TrimSpace(e.Verb) != "" && e.Subject() != ""
}

// ActivityHook receives normalized slice events.
type ActivityHook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function to ActivityHook.
type HookFunc func(ctx context.Context, event Event) error

func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks is a set of hooks notified together.
type Hooks []ActivityHook

func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify normalizes event and hands it to every hook. Invalid events are
// dropped; hook failures are joined.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}
	event = Normalize(event)
	if !event.Valid() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Normalize trims the textual fields, copies metadata and stamps the time.
func Normalize(event Event) Event {
	out := event
	for _, field := range []*string{&out.Verb, &out.Slice, &out.Key, &out.ActorID, &out.TenantID, &out.Channel} {
		*field = strings.TrimSpace(*field)
	}
	out.Metadata = cloneMap(event.Metadata)
	if out.OccurredAt.IsZero() {
		out.OccurredAt = time.Now()
	}
	return out
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
