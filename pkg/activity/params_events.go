package activity

import (
	"strings"
	"time"
)

// Verbs emitted by the logging facade.
const (
	VerbParamsIn  = "params.in"
	VerbParamsOut = "params.out"
)

// ObjectTypeParams is the object type reported for parameter objects. The
// schema name is reported separately in metadata.
const ObjectTypeParams = "params"

// SnapshotEventInput describes a logged snapshot of a parameter object.
type SnapshotEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	ObjectID   string
	Schema     string
	LogTag     string
	Channel    string
	Message    string
	Payload    any
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildParamsInEvent builds the event recorded when input is logged.
func BuildParamsInEvent(input SnapshotEventInput) Event {
	return buildSnapshotEvent(VerbParamsIn, "input", input)
}

// BuildParamsOutEvent builds the event recorded when output is logged.
func BuildParamsOutEvent(input SnapshotEventInput) Event {
	return buildSnapshotEvent(VerbParamsOut, "output", input)
}

func buildSnapshotEvent(verb, payloadKey string, input SnapshotEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	if schema := strings.TrimSpace(input.Schema); schema != "" {
		metadata["schema"] = schema
	}
	if tag := strings.TrimSpace(input.LogTag); tag != "" {
		metadata["log_tag"] = tag
	}
	if input.Payload != nil {
		metadata[payloadKey] = input.Payload
	}

	objectID := strings.TrimSpace(input.ObjectID)
	if objectID == "" {
		objectID = strings.TrimSpace(input.Schema)
	}
	if objectID == "" {
		objectID = ObjectTypeParams
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTypeParams,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Message:    strings.TrimSpace(input.Message),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
