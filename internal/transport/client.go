package transport

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"invoiceflow/internal/config"
	"invoiceflow/internal/domain"
	"invoiceflow/internal/port"
)

// Client is the single configured HTTP client for the remote extraction
// service. It implements port.DocumentExtractor, port.SessionAPI,
// port.ChatAPI and port.HealthAPI.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a Client from the API config.
func NewClient(cfg *config.APIConfig) *Client {
	return NewClientWithEndpoint(cfg.BaseURL, cfg.Timeout())
}

// NewClientWithEndpoint creates a Client pointing at a custom base URL
// (for testing).
func NewClientWithEndpoint(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 300 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// processRequest models the POST /process-document request body.
type processRequest struct {
	FileData     string  `json:"file_data"`
	FileName     string  `json:"file_name"`
	DocumentType string  `json:"document_type"`
	SessionID    *string `json:"session_id"`
}

// processResponse models the POST /process-document response body.
type processResponse struct {
	Success              bool                     `json:"success"`
	SessionID            string                   `json:"session_id,omitempty"`
	DocumentName         string                   `json:"document_name,omitempty"`
	StructuredData       *domain.InvoiceData      `json:"structured_data,omitempty"`
	RawText              string                   `json:"raw_text,omitempty"`
	Validation           *domain.ValidationReport `json:"validation,omitempty"`
	ExtractionConfidence *float64                 `json:"extraction_confidence,omitempty"`
	FileData             string                   `json:"file_data,omitempty"`
	Error                string                   `json:"error,omitempty"`
	Detail               string                   `json:"detail,omitempty"`
}

// ProcessDocument submits one document for extraction. The raw bytes are
// base64-encoded without a data-URL prefix, as the service expects.
func (c *Client) ProcessDocument(ctx context.Context, input port.ExtractInput) (*port.ExtractOutput, error) {
	req := processRequest{
		FileData:     base64.StdEncoding.EncodeToString(input.Record.Data),
		FileName:     input.Record.Name,
		DocumentType: "invoice",
	}
	if input.SessionID != "" {
		req.SessionID = &input.SessionID
	}

	var resp processResponse
	if err := c.postJSON(ctx, "process-document", "/process-document", req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &ServiceError{Op: "process-document", StatusCode: http.StatusOK, Message: serviceMessage(resp.Error, resp.Detail)}
	}

	out := &port.ExtractOutput{
		SessionID:    resp.SessionID,
		DocumentName: resp.DocumentName,
		Data:         resp.StructuredData,
		RawText:      resp.RawText,
		Validation:   resp.Validation,
	}
	if out.DocumentName == "" {
		out.DocumentName = input.Record.Name
	}
	// The service reports confidence on a 0..1 scale; expose percent.
	if resp.ExtractionConfidence != nil {
		pct := *resp.ExtractionConfidence * 100
		out.ConfidencePercent = &pct
	}
	if resp.FileData != "" {
		decoded, err := base64.StdEncoding.DecodeString(resp.FileData)
		if err == nil {
			out.FileData = decoded
		}
	}
	return out, nil
}

// createSessionRequest models the POST /create-session request body.
type createSessionRequest struct {
	Invoices []domain.ExtractionResult `json:"invoices"`
}

// sessionResponse models the POST /create-session response body.
type sessionResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id,omitempty"`
	Error     string `json:"error,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// CreateSession submits the full result set and returns the new session id.
func (c *Client) CreateSession(ctx context.Context, results []domain.ExtractionResult) (string, error) {
	var resp sessionResponse
	if err := c.postJSON(ctx, "create-session", "/create-session", createSessionRequest{Invoices: results}, &resp); err != nil {
		return "", err
	}
	if !resp.Success || resp.SessionID == "" {
		return "", &ServiceError{Op: "create-session", StatusCode: http.StatusOK, Message: serviceMessage(resp.Error, resp.Detail)}
	}
	return resp.SessionID, nil
}

// DeleteSession removes a session server-side. Any 2xx response is accepted.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/session/"+sessionID, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return &TransportError{Op: "delete-session", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ServiceError{Op: "delete-session", StatusCode: resp.StatusCode, Message: errorFromBody(body)}
	}
	return nil
}

// GetSessionStatus fetches the status of one session.
func (c *Client) GetSessionStatus(ctx context.Context, sessionID string) (*port.SessionStatus, error) {
	var status port.SessionStatus
	if err := c.getJSON(ctx, "session-status", "/session/"+sessionID+"/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetSessionStats fetches server-wide session statistics.
func (c *Client) GetSessionStats(ctx context.Context) (*port.SessionStats, error) {
	var stats port.SessionStats
	if err := c.getJSON(ctx, "session-stats", "/sessions/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// chatRequest models the POST /chat request body.
type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// chatResponse models the POST /chat response body.
type chatResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// Ask sends one question scoped to a session and returns the answer text.
func (c *Client) Ask(ctx context.Context, sessionID, message string) (string, error) {
	var resp chatResponse
	if err := c.postJSON(ctx, "chat", "/chat", chatRequest{SessionID: sessionID, Message: message}, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", &ServiceError{Op: "chat", StatusCode: http.StatusOK, Message: serviceMessage(resp.Error, resp.Detail)}
	}
	return resp.Response, nil
}

// Health checks the remote service's liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	var body struct {
		Status string `json:"status"`
	}
	return c.getJSON(ctx, "health", "/health", &body)
}

func (c *Client) postJSON(ctx context.Context, op, path string, reqBody, respBody interface{}) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshaling %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(op, req, respBody)
}

func (c *Client) getJSON(ctx context.Context, op, path string, respBody interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(op, req, respBody)
}

func (c *Client) do(op string, req *http.Request, respBody interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ServiceError{Op: op, StatusCode: resp.StatusCode, Message: errorFromBody(body)}
	}

	if err := json.Unmarshal(body, respBody); err != nil {
		return &ServiceError{Op: op, StatusCode: resp.StatusCode, Message: fmt.Sprintf("malformed response body: %v", err)}
	}
	return nil
}

// errorFromBody pulls a structured error message out of a failure payload.
// The service uses either {"error": "..."} or FastAPI's {"detail": "..."}.
func errorFromBody(body []byte) string {
	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return serviceMessage(payload.Error, payload.Detail)
}

func serviceMessage(errMsg, detail string) string {
	if errMsg != "" {
		return errMsg
	}
	return detail
}
