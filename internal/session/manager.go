package session

import (
	"context"
	"log"
	"sync"

	"invoiceflow/internal/domain"
	"invoiceflow/internal/port"
)

// Manager owns the analysis session id for the active batch. Its state
// machine is absent -> active(id) -> absent; re-adoption while active is a
// no-op, so the first settled writer wins under concurrent adoption.
type Manager struct {
	api port.SessionAPI

	mu sync.Mutex
	id string
}

// NewManager creates a Manager backed by the remote session API.
func NewManager(api port.SessionAPI) *Manager {
	return &Manager{api: api}
}

// Current returns the active session id, or false when absent.
func (m *Manager) Current() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id, m.id != ""
}

// Adopt installs a session id if none is active. Idempotent: adopting the
// same or a different id while one is active changes nothing. Returns true
// when this call installed the id.
func (m *Manager) Adopt(id string) bool {
	if id == "" {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.id != "" {
		return false
	}
	m.id = id
	log.Printf("session: adopted %s", id)
	return true
}

// CreateFromResults issues one create-session call carrying the full result
// set and adopts the returned id. Used in explicit session mode after the
// batch settles. No automatic retry on failure.
func (m *Manager) CreateFromResults(ctx context.Context, results []domain.ExtractionResult) error {
	if _, active := m.Current(); active {
		return nil
	}
	id, err := m.api.CreateSession(ctx, results)
	if err != nil {
		log.Printf("session: create-session failed: %v", err)
		return err
	}
	m.Adopt(id)
	return nil
}

// Destroy deletes the session remotely best-effort and always resets local
// state to absent, even when the remote delete fails.
func (m *Manager) Destroy(ctx context.Context) {
	m.mu.Lock()
	id := m.id
	m.id = ""
	m.mu.Unlock()

	if id == "" {
		return
	}
	if err := m.api.DeleteSession(ctx, id); err != nil {
		log.Printf("session: remote delete of %s failed (local state already cleared): %v", id, err)
		return
	}
	log.Printf("session: destroyed %s", id)
}

// Status fetches the remote status of the active session.
func (m *Manager) Status(ctx context.Context) (*port.SessionStatus, error) {
	id, active := m.Current()
	if !active {
		return nil, domain.ErrNoSession
	}
	return m.api.GetSessionStatus(ctx, id)
}
