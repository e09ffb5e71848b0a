package batch

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"invoiceflow/internal/domain"
)

// Run is one asynchronous execution of a batch. Observers poll Snapshot or
// consume Subscribe; Results becomes available once Done is closed.
type Run struct {
	ID      string
	tracker statusTracker
	cancel  context.CancelFunc

	mu      sync.Mutex
	results []domain.ExtractionResult
	done    chan struct{}
}

// Start launches a batch run in the background and returns immediately.
func (o *Orchestrator) Start(records []domain.IntakeRecord) (*Run, error) {
	if len(records) == 0 {
		return nil, domain.ErrEmptyBatch
	}

	ctx, cancel := context.WithCancel(context.Background())
	run := &Run{
		ID:     uuid.New().String(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	// Seed statuses before returning so the first poll never sees a
	// partially initialized map.
	run.tracker.initAll(records)

	go func() {
		defer cancel()
		results, _ := o.process(ctx, records, &run.tracker)
		run.mu.Lock()
		run.results = results
		run.mu.Unlock()
		close(run.done)
		// The terminal event fires exactly once, after results are
		// visible, so an observer that sees it can read Results.
		run.tracker.finish()
	}()

	return run, nil
}

// Cancel aborts the run; unsettled items flip to cancelled.
func (r *Run) Cancel() {
	r.cancel()
}

// Done is closed when the run has settled.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Snapshot returns the current per-item status map.
func (r *Run) Snapshot() map[string]domain.ProcessingStatus {
	return r.tracker.snapshot()
}

// Subscribe returns a channel of status events ending with the terminal one.
func (r *Run) Subscribe() <-chan Event {
	return r.tracker.subscribe()
}

// Results returns the settled result sequence, or false while running.
func (r *Run) Results() ([]domain.ExtractionResult, bool) {
	select {
	case <-r.done:
	default:
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.results, true
}

// Registry tracks active and settled runs by id.
type Registry struct {
	mu   sync.Mutex
	runs map[string]*Run
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{runs: make(map[string]*Run)}
}

// Put registers a run.
func (reg *Registry) Put(run *Run) {
	reg.mu.Lock()
	reg.runs[run.ID] = run
	reg.mu.Unlock()
}

// Get looks up a run by id.
func (reg *Registry) Get(id string) (*Run, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	run, ok := reg.runs[id]
	return run, ok
}
