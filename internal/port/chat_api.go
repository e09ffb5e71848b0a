package port

import "context"

// ChatAPI abstracts the remote conversational endpoint.
type ChatAPI interface {
	// Ask sends one question scoped to a session and returns the answer text.
	Ask(ctx context.Context, sessionID, message string) (string, error)
}

// HealthAPI abstracts the remote liveness endpoint.
type HealthAPI interface {
	Health(ctx context.Context) error
}
