package chat

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"invoiceflow/internal/domain"
	"invoiceflow/internal/port"
	"invoiceflow/internal/session"
)

// fallbackAnswer is appended when the remote chat call fails; the transcript
// never surfaces a raw error.
const fallbackAnswer = "Sorry, I couldn't process that question right now. Please try again."

// Client sends user questions to the remote chat endpoint and keeps the
// append-only transcript. Dispatch is serialized so transcript order always
// equals question issuance order, never response arrival order.
type Client struct {
	api      port.ChatAPI
	sessions *session.Manager

	dispatch sync.Mutex // one question in flight at a time

	mu       sync.Mutex
	messages []domain.ChatMessage
}

// NewClient creates a chat Client gated on the session manager.
func NewClient(api port.ChatAPI, sessions *session.Manager) *Client {
	return &Client{api: api, sessions: sessions}
}

// Enabled reports whether questions can currently be sent.
func (c *Client) Enabled() bool {
	_, active := c.sessions.Current()
	return active
}

// Ask validates locally, sends the question, and appends both sides of the
// exchange to the transcript. An absent session or empty question is
// rejected before any network call.
func (c *Client) Ask(ctx context.Context, question string) (*domain.ChatMessage, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.ErrEmptyQuestion
	}
	sessionID, active := c.sessions.Current()
	if !active {
		return nil, domain.ErrNoSession
	}

	c.dispatch.Lock()
	defer c.dispatch.Unlock()

	c.append(domain.RoleUser, question)

	answer, err := c.api.Ask(ctx, sessionID, question)
	if err != nil {
		log.Printf("chat: remote call failed: %v", err)
		answer = fallbackAnswer
	}

	msg := c.append(domain.RoleAssistant, answer)
	return &msg, nil
}

// Transcript returns a copy of the conversation in append order.
func (c *Client) Transcript() []domain.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Reset clears the transcript. Destroying the session does not do this;
// the conversation stays visible until an explicit panel reset.
func (c *Client) Reset() {
	c.mu.Lock()
	c.messages = nil
	c.mu.Unlock()
}

func (c *Client) append(role domain.ChatRole, content string) domain.ChatMessage {
	msg := domain.ChatMessage{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.mu.Unlock()
	return msg
}
