package params

import (
	"context"
	"reflect"
	"strings"

	"github.com/goliatone/go-params/pkg/activity"
)

// Logger receives the messages produced by the logging facade.
type Logger interface {
	Info(message string, context []any)
	Error(message string, context []any)
}

// LoggerFuncs adapts plain functions to Logger. Nil funcs drop the message.
type LoggerFuncs struct {
	InfoFunc  func(message string, context []any)
	ErrorFunc func(message string, context []any)
}

func (l LoggerFuncs) Info(message string, context []any) {
	if l.InfoFunc != nil {
		l.InfoFunc(message, context)
	}
}

func (l LoggerFuncs) Error(message string, context []any) {
	if l.ErrorFunc != nil {
		l.ErrorFunc(message, context)
	}
}

type noopLogger struct{}

func (noopLogger) Info(string, []any)  {}
func (noopLogger) Error(string, []any) {}

// WithLogger injects the logger used by Info, Error, In and Out.
func WithLogger(logger Logger) Option {
	return func(cfg *objectConfig) {
		cfg.logger = logger
	}
}

// WithActivityHooks attaches hooks that receive params.in and params.out
// events. Emission also has to be enabled through WithActivityConfig or
// WithConfig.
func WithActivityHooks(hooks ...activity.ActivityHook) Option {
	return func(cfg *objectConfig) {
		cfg.hooks = append(cfg.hooks, hooks...)
	}
}

// WithActivityConfig sets the activity emission config.
func WithActivityConfig(activityCfg activity.Config) Option {
	return func(cfg *objectConfig) {
		cfg.activity = activityCfg
	}
}

const (
	defaultInMessage  = "In"
	defaultOutMessage = "Out"
)

// Info logs message under the object's tag.
func (o *Object) Info(message string, context any) {
	o.log().Info(o.tagged(message), contextArgs(context))
}

// Error logs message under the object's tag.
func (o *Object) Error(message string, context any) {
	o.log().Error(o.tagged(message), contextArgs(context))
}

// In logs the input of an operation. An empty input logs the full snapshot.
func (o *Object) In(input any, message ...string) {
	if isEmptyInput(input) {
		input = o.Snapshot()
	}
	msg := firstMessage(message, defaultInMessage)
	o.Info(msg, input)
	o.emit(activity.BuildParamsInEvent, msg, input)
}

// Out logs output once and returns it unchanged.
func (o *Object) Out(output any, message ...string) any {
	msg := firstMessage(message, defaultOutMessage)
	o.Info(msg, output)
	o.emit(activity.BuildParamsOutEvent, msg, output)
	return output
}

// Return is Out for typed call sites: return params.Return(o, result).
func Return[T any](o *Object, output T, message ...string) T {
	o.Out(output, message...)
	return output
}

func (o *Object) emit(build func(activity.SnapshotEventInput) activity.Event, message string, payload any) {
	if o == nil || !o.emitter.Enabled() {
		return
	}
	event := build(activity.SnapshotEventInput{
		ObjectID: o.id,
		Schema:   o.schema.name,
		LogTag:   o.logTag,
		Message:  o.tagged(message),
		Payload:  payload,
	})
	if err := o.emitter.Emit(context.Background(), event); err != nil {
		o.log().Error(o.tagged("activity"), []any{err})
	}
}

func (o *Object) log() Logger {
	if o == nil || o.logger == nil {
		return noopLogger{}
	}
	return o.logger
}

func (o *Object) tagged(message string) string {
	if o == nil || o.logTag == "" {
		return message
	}
	return o.logTag + "|" + message
}

// contextArgs turns a logging context into the sequence a Logger expects.
func contextArgs(context any) []any {
	switch typed := context.(type) {
	case nil:
		return []any{}
	case []any:
		return typed
	default:
		return []any{typed}
	}
}

func isEmptyInput(input any) bool {
	if input == nil {
		return true
	}
	value := reflect.ValueOf(input)
	switch value.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.String:
		return value.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return value.IsNil()
	default:
		return false
	}
}

func firstMessage(messages []string, fallback string) string {
	for _, message := range messages {
		if message = strings.TrimSpace(message); message != "" {
			return message
		}
	}
	return fallback
}
