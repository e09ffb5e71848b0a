package batch

import (
	"sync"

	"invoiceflow/internal/domain"
)

// Event is one observable state change of a batch run. Done is true for
// the single terminal event, which carries no item id.
type Event struct {
	ID     string                  `json:"id,omitempty"`
	Status domain.ProcessingStatus `json:"status,omitempty"`
	Done   bool                    `json:"done,omitempty"`
}

// subscriberBuffer is the event channel capacity per subscriber. One slot
// is reserved for the terminal event so it is delivered even to a consumer
// that stopped draining.
const subscriberBuffer = 64

// statusTracker owns the per-item status map. The orchestrator is the only
// writer; observers read through Snapshot or Subscribe. Every update is
// published under one lock region so readers never see a torn state.
type statusTracker struct {
	mu   sync.Mutex
	m    map[string]domain.ProcessingStatus
	subs []chan Event
	done bool
}

// initAll seeds every id with StatusPending in one atomic step.
func (t *statusTracker) initAll(records []domain.IntakeRecord) {
	t.mu.Lock()
	t.m = make(map[string]domain.ProcessingStatus, len(records))
	for _, r := range records {
		t.m[r.ID] = domain.StatusPending
	}
	t.mu.Unlock()
}

// set transitions one id and notifies subscribers. Sends are serialized
// under the lock and never block, so a stalled batch is impossible.
func (t *statusTracker) set(id string, status domain.ProcessingStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.m[id] = status
	ev := Event{ID: id, Status: status}
	for _, ch := range t.subs {
		// Slow observers drop intermediate events; the last buffer slot
		// stays free so the terminal event always fits.
		if len(ch) < cap(ch)-1 {
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

// finish publishes the terminal event exactly once and closes subscriptions.
// The reserved buffer slot guarantees the send succeeds even for an
// observer that stopped draining.
func (t *statusTracker) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return
	}
	t.done = true
	for _, ch := range t.subs {
		ch <- Event{Done: true}
		close(ch)
	}
	t.subs = nil
}

// snapshot returns a copy of the status map.
func (t *statusTracker) snapshot() map[string]domain.ProcessingStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]domain.ProcessingStatus, len(t.m))
	for k, v := range t.m {
		out[k] = v
	}
	return out
}

// subscribe registers an observer channel. A run that has already finished
// yields an immediately closed channel carrying only the terminal event.
func (t *statusTracker) subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		ch <- Event{Done: true}
		close(ch)
		return ch
	}
	t.subs = append(t.subs, ch)
	t.mu.Unlock()
	return ch
}
