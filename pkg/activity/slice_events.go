package activity

// Verbs emitted by the rehydration engine.
const (
	VerbSliceRehydrated = "slice.rehydrated"
	VerbSlicePersisted  = "slice.persisted"
	VerbReadFailed      = "storage.read_failed"
	VerbWriteFailed     = "storage.write_failed"
)

// ObjectTypeSlice is the object type sinks record slice events under.
const ObjectTypeSlice = "slice"

// Rehydrated reports a slice reaching its final loaded state.
func Rehydrated(slice, key string, found bool, replayed int) Event {
	return Event{Verb: VerbSliceRehydrated, Slice: slice, Key: key, Found: found, Replayed: replayed}
}

// Persisted reports a completed slice write.
func Persisted(slice, key string, version int) Event {
	return Event{Verb: VerbSlicePersisted, Slice: slice, Key: key, Version: version}
}

// ReadFailed reports a storage read that failed and was treated as absent.
func ReadFailed(slice, key string, err error) Event {
	return Event{Verb: VerbReadFailed, Slice: slice, Key: key, Err: err}
}

// WriteFailed reports a storage write that failed and was skipped.
func WriteFailed(slice, key string, version int, err error) Event {
	return Event{Verb: VerbWriteFailed, Slice: slice, Key: key, Version: version, Err: err}
}

// Data flattens the slice fields of the event over its metadata. Version is
// included for writes, found and replayed for rehydrations.
func (e Event) Data() map[string]any {
	data := cloneMap(e.Metadata)
	if data == nil {
		data = map[string]any{}
	}
	if e.Slice != "" {
		data["slice"] = e.Slice
	}
	if e.Key != "" {
		data["key"] = e.Key
	}
	switch e.Verb {
	case VerbSlicePersisted, VerbWriteFailed:
		data["version"] = e.Version
	case VerbSliceRehydrated:
		data["found"] = e.Found
		data["replayed"] = e.Replayed
	}
	if e.Err != nil {
		data["error"] = e.Err.Error()
	}
	return data
}
