package render

import (
	"sync"

	"github.com/azye/tabdog/internal/sessions"
	"github.com/azye/tabdog/pkg/models"
)

// DefaultBatchSize is how many sessions one batch holds.
const DefaultBatchSize = 20

// Batch is one page of groups delivered to a Sink.
type Batch struct {
	// Seq counts batches within a run, starting at 0.
	Seq    int
	Groups []Group
	// More reports whether the run holds a live continuation after this batch.
	More bool
}

// Sink receives batches. It is called outside the run's lock and may call
// Resume on the same run.
type Sink func(Batch)

// Renderer paginates an already loaded tab list into groups. Only the most
// recent run can produce output; starting a new one cancels the last.
type Renderer struct {
	mu        sync.Mutex
	batchSize int
	build     builder
	current   *Run
}

// New creates a renderer. A batchSize below one uses DefaultBatchSize.
func New(batchSize int, dates sessions.DateFormatter) *Renderer {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &Renderer{batchSize: batchSize, build: newBuilder(dates)}
}

// BatchSize returns the configured page size.
func (r *Renderer) BatchSize() int { return r.batchSize }

// Render starts a fresh run over tabs, cancels the previous one and delivers
// the first batch before returning.
func (r *Renderer) Render(tabs []models.TabRecord, meta models.SessionMetadata, sink Sink) *Run {
	run := &Run{
		sessions:  sessions.Group(tabs),
		meta:      meta.Clone(),
		batchSize: r.batchSize,
		build:     r.build,
		sink:      sink,
		armed:     true,
	}

	r.mu.Lock()
	prev := r.current
	r.current = run
	r.mu.Unlock()
	if prev != nil {
		prev.Cancel()
	}

	run.Resume()
	return run
}

// Cancel detaches the current run, if any.
func (r *Renderer) Cancel() {
	r.mu.Lock()
	prev := r.current
	r.current = nil
	r.mu.Unlock()
	if prev != nil {
		prev.Cancel()
	}
}

// Run is one pass over a snapshot. At most one continuation is armed at a
// time; Resume consumes it and re-arms only if sessions remain.
type Run struct {
	mu        sync.Mutex
	sessions  []sessions.Session
	meta      models.SessionMetadata
	batchSize int
	build     builder
	sink      Sink

	cursor    int
	seq       int
	armed     bool
	cancelled bool
}

// Resume renders exactly the next batch if the continuation is armed. It
// reports whether a batch was delivered.
func (run *Run) Resume() bool {
	run.mu.Lock()
	if run.cancelled || !run.armed {
		run.mu.Unlock()
		return false
	}
	run.armed = false

	end := run.cursor + run.batchSize
	if end > len(run.sessions) {
		end = len(run.sessions)
	}
	batch := Batch{Seq: run.seq, Groups: make([]Group, 0, end-run.cursor)}
	for _, s := range run.sessions[run.cursor:end] {
		batch.Groups = append(batch.Groups, run.build.group(s, run.meta))
	}
	run.cursor = end
	run.seq++
	run.armed = run.cursor < len(run.sessions)
	batch.More = run.armed
	sink := run.sink
	run.mu.Unlock()

	if sink != nil {
		sink(batch)
	}
	return true
}

// Cancel detaches the continuation. Later Resume calls do nothing.
func (run *Run) Cancel() {
	run.mu.Lock()
	run.cancelled = true
	run.armed = false
	run.mu.Unlock()
}

// Pending reports whether a continuation is armed.
func (run *Run) Pending() bool {
	run.mu.Lock()
	defer run.mu.Unlock()
	return run.armed && !run.cancelled
}

// Rendered is how many sessions have been delivered so far.
func (run *Run) Rendered() int {
	run.mu.Lock()
	defer run.mu.Unlock()
	return run.cursor
}

// Total is how many sessions the snapshot holds.
func (run *Run) Total() int { return len(run.sessions) }
