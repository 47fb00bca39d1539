// pkg/diag/recorder.go
package diag

import "sync"

// Recorder keeps events in memory
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record stores e. Preview tables are cloned.
func (r *Recorder) Record(e Event) {
	if e.Preview != nil {
		e.Preview = e.Preview.Clone()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// ByStage returns recorded events for one stage
func (r *Recorder) ByStage(stage string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Stage == stage {
			out = append(out, e)
		}
	}
	return out
}

// Warnings returns recorded warning events
func (r *Recorder) Warnings() []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Level == LevelWarn {
			out = append(out, e)
		}
	}
	return out
}
