package events

import (
	"github.com/sirupsen/logrus"
)

// LogSink renders events as structured logrus entries. One field per Event
// attribute, plus "event" naming the Kind.
type LogSink struct {
	log *logrus.Entry
}

// NewLogSink builds a LogSink that writes through logger, tagged with
// component=events the way every other long-running piece of the core
// tags its own logger.
func NewLogSink(logger *logrus.Logger) *LogSink {
	return &LogSink{log: logger.WithField("component", "events")}
}

// Emit implements Sink.
func (s *LogSink) Emit(evt Event) {
	entry := s.log.WithField("event", string(evt.Kind))
	for k, v := range evt.Fields {
		entry = entry.WithField(k, v)
	}

	switch evt.Kind {
	case KindPluginLoadError, KindResolveError:
		entry.Warn(string(evt.Kind))
	case KindPluginShadowed:
		entry.Info(string(evt.Kind))
	default:
		entry.Debug(string(evt.Kind))
	}
}
