// Package progress serializes progress events for a caller-supplied sink.
package progress

import (
	"sync"

	"github.com/aicell-lab/hypha-artifact/artifacttypes"
)

// Reporter forwards progress events to a sink, one at a time. A Reporter
// with a nil sink discards every event.
type Reporter struct {
	mu        sync.Mutex
	sink      artifacttypes.ProgressFunc
	operation string
}

// NewReporter creates a reporter for one transfer run.
func NewReporter(sink artifacttypes.ProgressFunc, dir artifacttypes.Direction) *Reporter {
	return &Reporter{
		sink:      sink,
		operation: dir.String(),
	}
}

// Start reports the number of files in the run.
func (r *Reporter) Start(total int) {
	r.emit(artifacttypes.ProgressEvent{
		Kind:  artifacttypes.EventStart,
		Total: total,
	})
}

// InProgress reports that path was admitted after index files completed.
func (r *Reporter) InProgress(path string, index int) {
	r.emit(artifacttypes.ProgressEvent{
		Kind:  artifacttypes.EventInProgress,
		Path:  path,
		Index: index,
	})
}

// Success reports that path finished.
func (r *Reporter) Success(path string) {
	r.emit(artifacttypes.ProgressEvent{
		Kind: artifacttypes.EventSuccess,
		Path: path,
	})
}

// Error reports that path failed with err.
func (r *Reporter) Error(path string, err error) {
	r.emit(artifacttypes.ProgressEvent{
		Kind:    artifacttypes.EventError,
		Path:    path,
		Message: err.Error(),
	})
}

func (r *Reporter) emit(event artifacttypes.ProgressEvent) {
	if r.sink == nil {
		return
	}
	event.Operation = r.operation

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sink(event)
}
