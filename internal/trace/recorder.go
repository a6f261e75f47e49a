package trace

import "sync"

// Sink is the minimal interface the pipeline depends on.
//
// Record must be inert: it must not panic and must not return errors. The
// caller must assume Record may be a no-op.
type Sink interface {
	Record(event Event)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Record(Event) {}

// SafeRecord records an event and guarantees inertness even if the sink is
// buggy. It swallows panics.
func SafeRecord(s Sink, event Event) {
	if s == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	s.Record(event)
}

// Recorder collects events in memory. It is safe for concurrent use and a nil
// *Recorder records nothing.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder { return &Recorder{} }

// Record appends event, copying its Kinds so the caller may reuse the slice.
func (r *Recorder) Record(event Event) {
	if r == nil {
		return
	}
	if event.Kinds != nil {
		event.Kinds = append([]string{}, event.Kinds...)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Snapshot returns a copy of the events recorded so far, in arrival order.
func (r *Recorder) Snapshot() []Event {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event{}, r.events...)
}

// Trace wraps a snapshot for runID; later records do not affect it.
func (r *Recorder) Trace(runID string) RunTrace {
	return RunTrace{RunID: runID, Events: r.Snapshot()}
}
