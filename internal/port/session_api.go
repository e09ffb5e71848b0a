package port

import (
	"context"

	"invoiceflow/internal/domain"
)

// SessionStatus describes a server-side session.
type SessionStatus struct {
	SessionID    string `json:"session_id"`
	InvoiceCount int    `json:"invoice_count"`
	CreatedAt    string `json:"created_at"`
	ExpiresAt    string `json:"expires_at"`
	Active       bool   `json:"active"`
}

// SessionStats reports server-wide session usage.
type SessionStats struct {
	ActiveSessions     int `json:"active_sessions"`
	MaxConcurrentUsers int `json:"max_concurrent_users"`
}

// SessionAPI abstracts the remote session endpoints.
type SessionAPI interface {
	// CreateSession submits the full result set and returns the new session id.
	CreateSession(ctx context.Context, results []domain.ExtractionResult) (string, error)
	// DeleteSession removes a session server-side. Best-effort for callers.
	DeleteSession(ctx context.Context, sessionID string) error
	// GetSessionStatus fetches the status of one session.
	GetSessionStatus(ctx context.Context, sessionID string) (*SessionStatus, error)
	// GetSessionStats fetches server-wide session statistics.
	GetSessionStats(ctx context.Context) (*SessionStats, error)
}
