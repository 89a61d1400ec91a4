package params

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/goliatone/go-params/pkg/activity"
	"github.com/rs/zerolog"
)

type logEntry struct {
	level   string
	message string
	context []any
}

type recordingLogger struct {
	entries []logEntry
}

func (l *recordingLogger) Info(message string, context []any) {
	l.entries = append(l.entries, logEntry{level: "info", message: message, context: context})
}

func (l *recordingLogger) Error(message string, context []any) {
	l.entries = append(l.entries, logEntry{level: "error", message: message, context: context})
}

func TestInfoAndErrorNormalizeContext(t *testing.T) {
	logger := &recordingLogger{}
	o := New(MustDefine("Search", Field("term", "go")), WithLogger(logger))

	o.Info("scalar", 42)
	o.Info("empty", nil)
	o.Error("list", []any{"a", 1})

	want := []logEntry{
		{level: "info", message: "[Search]|scalar", context: []any{42}},
		{level: "info", message: "[Search]|empty", context: []any{}},
		{level: "error", message: "[Search]|list", context: []any{"a", 1}},
	}
	if !reflect.DeepEqual(want, logger.entries) {
		t.Fatalf("log mismatch:\nwant: %#v\n got: %#v", want, logger.entries)
	}
}

func TestInLogsSnapshotWhenEmpty(t *testing.T) {
	logger := &recordingLogger{}
	o := New(MustDefine("Search", Field("term", "go")), WithLogger(logger), WithLogTag("[api]"))

	o.In(nil)
	o.In(map[string]any{})
	o.In(map[string]any{"raw": true}, "received")

	if len(logger.entries) != 3 {
		t.Fatalf("expected three entries, got %d", len(logger.entries))
	}
	snapshot := []any{map[string]any{"term": "go"}}
	if logger.entries[0].message != "[api]|In" || !reflect.DeepEqual(snapshot, logger.entries[0].context) {
		t.Fatalf("unexpected implicit snapshot entry: %#v", logger.entries[0])
	}
	if !reflect.DeepEqual(snapshot, logger.entries[1].context) {
		t.Fatalf("expected empty input to log the snapshot, got %#v", logger.entries[1])
	}
	if logger.entries[2].message != "[api]|received" || !reflect.DeepEqual([]any{map[string]any{"raw": true}}, logger.entries[2].context) {
		t.Fatalf("unexpected explicit input entry: %#v", logger.entries[2])
	}
}

func TestOutReturnsOutputAndLogsOnce(t *testing.T) {
	logger := &recordingLogger{}
	o := New(MustDefine("Search"), WithLogger(logger))
	output := map[string]any{"total": 3}

	got := o.Out(output)

	if !reflect.DeepEqual(output, got) {
		t.Fatalf("expected identity, got %#v", got)
	}
	if len(logger.entries) != 1 || logger.entries[0].message != "[Search]|Out" {
		t.Fatalf("expected exactly one Out entry, got %#v", logger.entries)
	}

	typed := Return(o, []string{"a"}, "done")
	if !reflect.DeepEqual([]string{"a"}, typed) || logger.entries[1].message != "[Search]|done" {
		t.Fatalf("unexpected Return behaviour: %v %#v", typed, logger.entries)
	}
}

func TestLoggingWithoutLoggerIsSafe(t *testing.T) {
	o := New(MustDefine("Quiet"))
	o.Info("nothing", nil)
	o.In(nil)
	if o.Out(1) != 1 {
		t.Fatalf("expected Out to pass through without a logger")
	}
	LoggerFuncs{}.Info("dropped", nil)
}

func TestInOutEmitActivity(t *testing.T) {
	capture := &activity.CaptureHook{}
	o := New(MustDefine("Search", Field("term", "go")),
		WithID("req-1"),
		WithActivityHooks(capture),
		WithActivityConfig(activity.Config{Enabled: true, Channel: "audit"}),
	)

	o.In(nil)
	o.Out(map[string]any{"total": 1})

	events := capture.Events()
	if len(events) != 2 {
		t.Fatalf("expected two events, got %d", len(events))
	}
	in, out := events[0], events[1]
	if in.Verb != activity.VerbParamsIn || in.ObjectID != "req-1" || in.Channel != "audit" || in.Message != "[Search]|In" {
		t.Fatalf("unexpected in event: %+v", in)
	}
	if snapshot, ok := in.Metadata["input"].(map[string]any); !ok || snapshot["term"] != "go" {
		t.Fatalf("expected snapshot in metadata, got %+v", in.Metadata)
	}
	if out.Verb != activity.VerbParamsOut || out.Metadata["schema"] != "Search" {
		t.Fatalf("unexpected out event: %+v", out)
	}
}

func TestActivityDisabledByDefault(t *testing.T) {
	capture := &activity.CaptureHook{}
	o := New(MustDefine("Search"), WithActivityHooks(capture))
	o.In(nil)
	if len(capture.Events()) != 0 {
		t.Fatalf("expected no events without enabling activity")
	}
}

func TestActivityFailuresAreLogged(t *testing.T) {
	logger := &recordingLogger{}
	boom := errors.New("sink down")
	o := New(MustDefine("Search"),
		WithLogger(logger),
		WithActivityHooks(&activity.CaptureHook{Err: boom}),
		WithActivityConfig(activity.Config{Enabled: true}),
	)

	if got := o.Out("ok"); got != "ok" {
		t.Fatalf("expected Out to return output despite hook failure")
	}
	last := logger.entries[len(logger.entries)-1]
	if last.level != "error" || last.message != "[Search]|activity" {
		t.Fatalf("expected activity error entry, got %#v", last)
	}
	if err, ok := last.context[0].(error); !ok || !errors.Is(err, boom) {
		t.Fatalf("expected hook error in context, got %#v", last.context)
	}
}

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(zerolog.New(&buf))
	o := New(MustDefine("Search"), WithLogger(logger))

	o.Info("hello", "world")
	o.Error("failed", []any{errors.New("boom")})

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("expected two log lines, got %q", buf.String())
	}
	var info, failure map[string]any
	if err := json.Unmarshal(lines[0], &info); err != nil {
		t.Fatalf("decode info: %v", err)
	}
	if err := json.Unmarshal(lines[1], &failure); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if info["level"] != "info" || info["message"] != "[Search]|hello" {
		t.Fatalf("unexpected info line: %v", info)
	}
	if ctx, ok := info["context"].([]any); !ok || len(ctx) != 1 || ctx[0] != "world" {
		t.Fatalf("expected context field, got %v", info["context"])
	}
	if failure["level"] != "error" || failure["error"] != "boom" {
		t.Fatalf("unexpected error line: %v", failure)
	}
}
