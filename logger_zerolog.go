package params

import "github.com/rs/zerolog"

type zerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger adapts a zerolog logger. Context values are attached as
// the "context" field.
func NewZerologLogger(logger zerolog.Logger) Logger {
	return zerologLogger{logger: logger}
}

func (l zerologLogger) Info(message string, context []any) {
	l.event(l.logger.Info(), context).Msg(message)
}

func (l zerologLogger) Error(message string, context []any) {
	event := l.logger.Error()
	for _, value := range context {
		if err, ok := value.(error); ok {
			event = event.Err(err)
			break
		}
	}
	l.event(event, context).Msg(message)
}

func (l zerologLogger) event(event *zerolog.Event, context []any) *zerolog.Event {
	if len(context) == 0 {
		return event
	}
	return event.Interface("context", context)
}
