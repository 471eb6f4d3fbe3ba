package testutil

import (
	"sync"

	"github.com/aicell-lab/hypha-artifact/artifacttypes"
)

// ProgressRecorder records progress events for assertions.
type ProgressRecorder struct {
	mu     sync.Mutex
	events []artifacttypes.ProgressEvent
}

// Record is an artifacttypes.ProgressFunc.
func (r *ProgressRecorder) Record(event artifacttypes.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns all recorded events in order.
func (r *ProgressRecorder) Events() []artifacttypes.ProgressEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]artifacttypes.ProgressEvent(nil), r.events...)
}

// OfKind returns the recorded events of the given kind.
func (r *ProgressRecorder) OfKind(kind artifacttypes.EventKind) []artifacttypes.ProgressEvent {
	var out []artifacttypes.ProgressEvent
	for _, e := range r.Events() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the number of recorded events of the given kind.
func (r *ProgressRecorder) Count(kind artifacttypes.EventKind) int {
	return len(r.OfKind(kind))
}

// Reset clears the recorded events.
func (r *ProgressRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
