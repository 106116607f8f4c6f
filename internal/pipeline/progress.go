package pipeline

import "sync"

// Phase distinguishes stage lifecycle notifications.
type Phase string

const (
	PhaseStarted  Phase = "started"
	PhaseFinished Phase = "finished"
)

// ProgressEvent is an advisory notification of stage progress. Step is
// 1-based; Total is fixed for the whole run.
type ProgressEvent struct {
	Step    int
	Total   int
	Phase   Phase
	Message string
}

// Reporter buffers progress events for an observer without ever blocking
// the pipeline. When the buffer is full the oldest event is dropped;
// progress is advisory, not authoritative.
type Reporter struct {
	mu     sync.Mutex
	events chan ProgressEvent
	closed bool
}

// NewReporter builds a reporter with the given buffer capacity. A
// non-positive capacity gets a small default.
func NewReporter(buffer int) *Reporter {
	if buffer <= 0 {
		buffer = 16
	}
	return &Reporter{events: make(chan ProgressEvent, buffer)}
}

// Events returns the channel observers consume. The channel is closed by
// Close once the run is over.
func (r *Reporter) Events() <-chan ProgressEvent {
	return r.events
}

// Close ends the event stream. Publishing after Close is a no-op.
func (r *Reporter) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.closed {
		r.closed = true
		close(r.events)
	}
}

func (r *Reporter) publish(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	for {
		select {
		case r.events <- event:
			return
		default:
		}
		// Buffer full: drop the oldest event to make room.
		select {
		case <-r.events:
		default:
		}
	}
}
