package events

// Fanout composes sinks so the core can emit once per event and have every
// configured sink observe it, mirroring a classic pub/sub bus but without
// the subscribe-by-topic machinery bunnylol has no use for (every sink
// gets every event).
type Fanout []Sink

// Emit dispatches evt to every member sink in order.
func (f Fanout) Emit(evt Event) {
	for _, s := range f {
		s.Emit(evt)
	}
}

// NilSink discards every event. Used when the host embedding the core
// declines to provide a sink.
type NilSink struct{}

// Emit implements Sink.
func (NilSink) Emit(Event) {}
