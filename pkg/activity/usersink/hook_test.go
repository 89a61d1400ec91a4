package usersink_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-params/pkg/activity"
	"github.com/goliatone/go-params/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsSnapshotEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	tenantID := uuid.New()
	objectID := uuid.New().String()

	event := activity.BuildParamsInEvent(activity.SnapshotEventInput{
		ActorID:    actorID.String(),
		TenantID:   tenantID.String(),
		UserID:     "not-a-uuid",
		ObjectID:   objectID,
		Schema:     "CreateUser",
		Channel:    "audit",
		Message:    "[users] create",
		Payload:    map[string]any{"name": "Ada"},
		OccurredAt: now,
	})

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID || record.TenantID != tenantID {
		t.Fatalf("unexpected identity: %+v", record)
	}
	if record.UserID != uuid.Nil {
		t.Fatalf("expected invalid user id to map to uuid.Nil, got %s", record.UserID)
	}
	if record.Verb != activity.VerbParamsIn || record.ObjectType != activity.ObjectTypeParams || record.ObjectID != objectID {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "audit" || record.OccurredAt != now {
		t.Fatalf("unexpected channel or timestamp: %+v", record)
	}
	if record.Data["schema"] != "CreateUser" || record.Data["message"] != "[users] create" {
		t.Fatalf("expected metadata passthrough, got %v", record.Data)
	}
	if input, ok := record.Data["input"].(map[string]any); !ok || input["name"] != "Ada" {
		t.Fatalf("expected input snapshot, got %v", record.Data["input"])
	}
}

func TestHookNotifyFiltersVerbs(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink, Verbs: []string{activity.VerbParamsOut}}

	in := activity.BuildParamsInEvent(activity.SnapshotEventInput{Schema: "Search"})
	out := activity.BuildParamsOutEvent(activity.SnapshotEventInput{Schema: "Search"})
	if err := hook.Notify(context.Background(), in); err != nil {
		t.Fatalf("notify in: %v", err)
	}
	if err := hook.Notify(context.Background(), out); err != nil {
		t.Fatalf("notify out: %v", err)
	}
	if len(sink.records) != 1 || sink.records[0].Verb != activity.VerbParamsOut {
		t.Fatalf("expected only params.out forwarded, got %+v", sink.records)
	}
}

func TestHookNotifySkipsInvalidEventsAndNilSink(t *testing.T) {
	sink := &recordingSink{}
	_ = usersink.Hook{Sink: sink}.Notify(context.Background(), activity.Event{})
	if len(sink.records) != 0 {
		t.Fatalf("expected no records for empty event, got %d", len(sink.records))
	}
	if err := (usersink.Hook{}).Notify(context.Background(), activity.Event{Verb: "x", ObjectType: "y", ObjectID: "z"}); err != nil {
		t.Fatalf("expected nil sink to be a no-op, got %v", err)
	}
}

func TestHookNotifyDefaultsTimestamp(t *testing.T) {
	sink := &recordingSink{}
	err := usersink.Hook{Sink: sink}.Notify(context.Background(), activity.Event{
		Verb:       activity.VerbParamsOut,
		ObjectType: activity.ObjectTypeParams,
		ObjectID:   "1",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 || sink.records[0].OccurredAt.IsZero() {
		t.Fatalf("expected a record with a timestamp, got %+v", sink.records)
	}
}
