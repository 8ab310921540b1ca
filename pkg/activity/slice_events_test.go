package activity

import (
	"errors"
	"testing"
)

func TestRehydratedEventData(t *testing.T) {
	data := Rehydrated("counter", "rehydrate@counter", true, 2).Data()

	if data["slice"] != "counter" || data["key"] != "rehydrate@counter" {
		t.Fatalf("expected slice and key, got %v", data)
	}
	if data["found"] != true || data["replayed"] != 2 {
		t.Fatalf("unexpected metadata %v", data)
	}
	if _, ok := data["version"]; ok {
		t.Fatalf("expected no version on rehydrated events, got %v", data)
	}
}

func TestFailureEventsCarryError(t *testing.T) {
	cause := errors.New("disk full")

	write := WriteFailed("todos", "rehydrate@todos", 3, cause)
	data := write.Data()
	if write.Verb != VerbWriteFailed || data["error"] != "disk full" || data["version"] != 3 {
		t.Fatalf("unexpected write failure event %+v", data)
	}

	read := ReadFailed("", "rehydrate@todos", cause)
	if read.Verb != VerbReadFailed || read.Subject() != "rehydrate@todos" {
		t.Fatalf("expected key fallback for subject, got %+v", read)
	}
	if _, ok := read.Data()["slice"]; ok {
		t.Fatalf("expected no slice entry without a slice")
	}
}

func TestEventDataCopiesMetadata(t *testing.T) {
	meta := map[string]any{"source": "test"}
	event := Persisted("counter", "", 1)
	event.Metadata = meta

	data := event.Data()
	if data["source"] != "test" || data["version"] != 1 {
		t.Fatalf("unexpected data %v", data)
	}
	if _, ok := meta["version"]; ok {
		t.Fatalf("expected caller metadata untouched")
	}
}
