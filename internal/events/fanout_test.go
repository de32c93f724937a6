package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingSink struct {
	kinds []Kind
}

func (s *recordingSink) Emit(evt Event) {
	s.kinds = append(s.kinds, evt.Kind)
}

func TestFanoutDispatchesToEverySink(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	fanout := Fanout{a, b, NilSink{}}

	fanout.Emit(PluginLoaded("/x/gh.lua", []string{"gh"}))

	assert.Equal(t, []Kind{KindPluginLoaded}, a.kinds)
	assert.Equal(t, []Kind{KindPluginLoaded}, b.kinds)
}
