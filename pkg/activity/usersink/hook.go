// Package usersink forwards slice events to a go-users ActivitySink.
package usersink

import (
	"context"
	"strings"

	"github.com/goliatone/go-rehydrate/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook records slice events as go-users activity records. The slice is the
// record object; key, version and failure details travel in Data.
type Hook struct {
	Sink usertypes.ActivitySink
	// ActorID and TenantID stand in when the event carries no parseable id.
	ActorID  uuid.UUID
	TenantID uuid.UUID
}

func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	event = activity.Normalize(event)
	if !event.Valid() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return h.Sink.Log(ctx, h.record(event))
}

func (h Hook) record(event activity.Event) usertypes.ActivityRecord {
	return usertypes.ActivityRecord{
		ActorID:    idOr(event.ActorID, h.ActorID),
		TenantID:   idOr(event.TenantID, h.TenantID),
		Verb:       event.Verb,
		ObjectType: activity.ObjectTypeSlice,
		ObjectID:   event.Subject(),
		Channel:    event.Channel,
		Data:       event.Data(),
		OccurredAt: event.OccurredAt,
	}
}

func idOr(raw string, fallback uuid.UUID) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return id
}
