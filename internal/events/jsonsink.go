package events

import (
	"io"
	"sync"

	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// JSONSink renders each event as one JSON line. Because every Kind carries
// a different, variably-shaped field set, lines are assembled field-by-
// field with sjson rather than marshaled from one fixed struct per variant.
type JSONSink struct {
	mu     sync.Mutex
	w      io.Writer
	pretty bool
}

// NewJSONSink writes newline-delimited JSON events to w. When human is true
// (an interactive terminal, typically), each line is pretty-printed with
// tidwall/pretty for manual inspection instead of emitted compact.
func NewJSONSink(w io.Writer, human bool) *JSONSink {
	return &JSONSink{w: w, pretty: human}
}

// Emit implements Sink.
func (s *JSONSink) Emit(evt Event) {
	line, err := s.render(evt)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Write(line)
	s.w.Write([]byte("\n"))
}

func (s *JSONSink) render(evt Event) ([]byte, error) {
	doc := "{}"

	doc, err := sjson.Set(doc, "event", string(evt.Kind))
	if err != nil {
		return nil, err
	}
	if !evt.At.IsZero() {
		doc, err = sjson.Set(doc, "at", evt.At.Format("2006-01-02T15:04:05.000Z07:00"))
		if err != nil {
			return nil, err
		}
	}

	for k, v := range evt.Fields {
		doc, err = sjson.Set(doc, k, v)
		if err != nil {
			return nil, err
		}
	}

	out := []byte(doc)
	if s.pretty {
		out = pretty.Pretty(out)
		out = pretty.Color(out, nil)
	}
	return out, nil
}
