package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invoiceflow/internal/batch"
	"invoiceflow/internal/chat"
	"invoiceflow/internal/config"
	"invoiceflow/internal/domain"
	"invoiceflow/internal/handler"
	"invoiceflow/internal/intake"
	"invoiceflow/internal/port"
	"invoiceflow/internal/router"
	"invoiceflow/internal/session"
	"invoiceflow/internal/transport"
	"invoiceflow/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// harness wires the full HTTP surface against mocked remote APIs.
type harness struct {
	engine    *gin.Engine
	registry  *batch.Registry
	sessions  *session.Manager
	extractor *mocks.MockDocumentExtractor
	session   *mocks.MockSessionAPI
	chat      *mocks.MockChatAPI
	health    *mocks.MockHealthAPI
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		extractor: new(mocks.MockDocumentExtractor),
		session:   new(mocks.MockSessionAPI),
		chat:      new(mocks.MockChatAPI),
		health:    new(mocks.MockHealthAPI),
	}

	cfg := &config.Config{
		Intake: config.IntakeConfig{MaxFileSizeMB: 50},
		Export: config.ExportConfig{EntityName: "Test Entity", FilenamePrefix: "ledger"},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}

	h.sessions = session.NewManager(h.session)
	intakeSvc := intake.NewService(&cfg.Intake)
	orch := batch.NewOrchestrator(h.extractor, h.sessions, batch.Config{
		Mode:         domain.SessionModeInline,
		Concurrency:  2,
		RetryBackoff: time.Millisecond,
	})
	h.registry = batch.NewRegistry()
	chatClient := chat.NewClient(h.chat, h.sessions)

	h.engine = router.Setup(cfg,
		handler.NewBatchHandler(intakeSvc, orch, h.registry, &cfg.Export),
		handler.NewChatHandler(chatClient),
		handler.NewSessionHandler(h.sessions, h.session),
		handler.NewHealthHandler(h.health),
	)
	return h
}

func (h *harness) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	return w
}

func multipartBody(t *testing.T, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range files {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) (bool, map[string]interface{}) {
	t.Helper()
	var resp struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Success, resp.Data
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error.Code
}

func (h *harness) waitForBatch(t *testing.T, batchID string) {
	t.Helper()
	run, ok := h.registry.Get(batchID)
	require.True(t, ok)
	select {
	case <-run.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("batch did not settle")
	}
}

var pdfBytes = []byte("%PDF-1.4 test invoice body")

func TestBatchLifecycle(t *testing.T) {
	h := newHarness(t)

	h.extractor.On("ProcessDocument", mock.Anything, mock.MatchedBy(func(in port.ExtractInput) bool {
		return in.Record.Name == "good.pdf"
	})).Return(&port.ExtractOutput{
		SessionID:    "sess-1",
		DocumentName: "good.pdf",
		Data: &domain.InvoiceData{
			VendorName:    "Acme Corp",
			InvoiceNumber: "INV-001",
			Date:          "2026-08-15",
			TotalAmount:   150.5,
			LineItems:     []domain.LineItem{{Description: "Consulting", Amount: 150.5}},
		},
	}, nil)
	h.extractor.On("ProcessDocument", mock.Anything, mock.MatchedBy(func(in port.ExtractInput) bool {
		return in.Record.Name == "bad.pdf"
	})).Return(nil, &transport.ServiceError{Op: "process-document", StatusCode: 200, Message: "unreadable scan"})

	body, contentType := multipartBody(t, map[string][]byte{
		"good.pdf": pdfBytes,
		"bad.pdf":  pdfBytes,
	})
	w := h.do(t, http.MethodPost, "/api/v1/batches", body, contentType)
	require.Equal(t, http.StatusCreated, w.Code)

	success, data := decodeEnvelope(t, w)
	require.True(t, success)
	batchID, _ := data["batch_id"].(string)
	require.NotEmpty(t, batchID)

	h.waitForBatch(t, batchID)

	// Status reports done with all items terminal.
	w = h.do(t, http.MethodGet, "/api/v1/batches/"+batchID+"/status", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	_, data = decodeEnvelope(t, w)
	assert.Equal(t, true, data["done"])

	// Results carry the summary and one page.
	w = h.do(t, http.MethodGet, "/api/v1/batches/"+batchID+"/results", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	_, data = decodeEnvelope(t, w)
	summary := data["summary"].(map[string]interface{})
	assert.Equal(t, float64(2), summary["total"])
	assert.Equal(t, float64(1), summary["succeeded"])
	assert.Equal(t, float64(1), summary["failed"])

	// Session was adopted from the successful extraction.
	w = h.do(t, http.MethodGet, "/api/v1/session", nil, "")
	_, data = decodeEnvelope(t, w)
	assert.Equal(t, true, data["active"])
	assert.Equal(t, "sess-1", data["session_id"])
}

func TestBatchCreate_ConcurrentUploadsStaySeparate(t *testing.T) {
	h := newHarness(t)

	h.extractor.On("ProcessDocument", mock.Anything, mock.Anything).
		Return(&port.ExtractOutput{DocumentName: "any.pdf", Data: &domain.InvoiceData{}}, nil)

	// Two simultaneous uploads of different sizes; each batch must contain
	// exactly the files its own request carried.
	counts := []int{40, 60}
	bodies := make([]*bytes.Buffer, len(counts))
	contentTypes := make([]string, len(counts))
	for i, n := range counts {
		files := make(map[string][]byte, n)
		for j := 0; j < n; j++ {
			files[fmt.Sprintf("req%d_file%d.pdf", i, j)] = pdfBytes
		}
		bodies[i], contentTypes[i] = multipartBody(t, files)
	}

	recorders := make([]*httptest.ResponseRecorder, len(counts))
	var wg sync.WaitGroup
	for i := range counts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/batches", bodies[i])
			req.Header.Set("Content-Type", contentTypes[i])
			recorders[i] = httptest.NewRecorder()
			h.engine.ServeHTTP(recorders[i], req)
		}(i)
	}
	wg.Wait()

	for i, n := range counts {
		require.Equal(t, http.StatusCreated, recorders[i].Code)
		_, data := decodeEnvelope(t, recorders[i])
		batchID := data["batch_id"].(string)

		run, ok := h.registry.Get(batchID)
		require.True(t, ok)
		statuses := run.Snapshot()
		assert.Len(t, statuses, n, "batch %d should hold exactly its own %d files", i, n)
		h.waitForBatch(t, batchID)
	}
}

func TestBatchCreate_InvalidFileDoesNotDisturbOtherRequests(t *testing.T) {
	h := newHarness(t)

	h.extractor.On("ProcessDocument", mock.Anything, mock.Anything).
		Return(&port.ExtractOutput{DocumentName: "good.pdf", Data: &domain.InvoiceData{}}, nil)

	// A request rejected mid-validation must not clear or consume files
	// belonging to a request accepted immediately after.
	body, contentType := multipartBody(t, map[string][]byte{
		"good.pdf":  pdfBytes,
		"bad.docx":  []byte("not allowed"),
		"good2.pdf": pdfBytes,
	})
	w := h.do(t, http.MethodPost, "/api/v1/batches", body, contentType)
	require.Equal(t, http.StatusBadRequest, w.Code)

	body, contentType = multipartBody(t, map[string][]byte{"solo.pdf": pdfBytes})
	w = h.do(t, http.MethodPost, "/api/v1/batches", body, contentType)
	require.Equal(t, http.StatusCreated, w.Code)
	_, data := decodeEnvelope(t, w)
	batchID := data["batch_id"].(string)

	run, ok := h.registry.Get(batchID)
	require.True(t, ok)
	assert.Len(t, run.Snapshot(), 1)
	h.waitForBatch(t, batchID)
}

func TestBatchCreate_RejectsUnsupportedFile(t *testing.T) {
	h := newHarness(t)

	body, contentType := multipartBody(t, map[string][]byte{
		"malware.exe": []byte("MZ binary"),
	})
	w := h.do(t, http.MethodPost, "/api/v1/batches", body, contentType)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNSUPPORTED_FILE_TYPE", errorCode(t, w))
}

func TestBatchCreate_RejectsEmptyForm(t *testing.T) {
	h := newHarness(t)

	body, contentType := multipartBody(t, nil)
	w := h.do(t, http.MethodPost, "/api/v1/batches", body, contentType)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "EMPTY_BATCH", errorCode(t, w))
}

func TestBatchStatus_UnknownID(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/api/v1/batches/nope/status", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))
}

func TestBatchResults_WhileRunning(t *testing.T) {
	h := newHarness(t)

	release := make(chan struct{})
	h.extractor.On("ProcessDocument", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(&port.ExtractOutput{DocumentName: "slow.pdf"}, nil)

	body, contentType := multipartBody(t, map[string][]byte{"slow.pdf": pdfBytes})
	w := h.do(t, http.MethodPost, "/api/v1/batches", body, contentType)
	require.Equal(t, http.StatusCreated, w.Code)
	_, data := decodeEnvelope(t, w)
	batchID := data["batch_id"].(string)

	w = h.do(t, http.MethodGet, "/api/v1/batches/"+batchID+"/results", nil, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "BATCH_RUNNING", errorCode(t, w))

	close(release)
	h.waitForBatch(t, batchID)
}

func TestBatchExport_CSV(t *testing.T) {
	h := newHarness(t)

	h.extractor.On("ProcessDocument", mock.Anything, mock.Anything).
		Return(&port.ExtractOutput{
			DocumentName: "good.pdf",
			Data:         &domain.InvoiceData{VendorName: "Acme Corp", InvoiceNumber: "INV-001", TotalAmount: 150.5},
		}, nil)

	body, contentType := multipartBody(t, map[string][]byte{"good.pdf": pdfBytes})
	w := h.do(t, http.MethodPost, "/api/v1/batches", body, contentType)
	require.Equal(t, http.StatusCreated, w.Code)
	_, data := decodeEnvelope(t, w)
	batchID := data["batch_id"].(string)
	h.waitForBatch(t, batchID)

	w = h.do(t, http.MethodGet, "/api/v1/batches/"+batchID+"/export?format=csv", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment; filename=")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, w.Body.String(), "Acme Corp")

	w = h.do(t, http.MethodGet, "/api/v1/batches/"+batchID+"/export?format=pdf", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_FORMAT", errorCode(t, w))
}

func TestChatAsk_WithoutSession(t *testing.T) {
	h := newHarness(t)

	payload := bytes.NewBufferString(`{"message": "What is the total?"}`)
	w := h.do(t, http.MethodPost, "/api/v1/chat", payload, "application/json")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "NO_SESSION", errorCode(t, w))
	h.chat.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything, mock.Anything)
}

func TestChatAsk_InvalidBody(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/api/v1/chat", bytes.NewBufferString(`{}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_BODY", errorCode(t, w))
}

func TestChatAsk_RoundTrip(t *testing.T) {
	h := newHarness(t)
	h.sessions.Adopt("sess-1")

	h.chat.On("Ask", mock.Anything, "sess-1", "What is the total?").
		Return("The total is 150.50 USD.", nil).Once()

	payload := bytes.NewBufferString(`{"message": "What is the total?"}`)
	w := h.do(t, http.MethodPost, "/api/v1/chat", payload, "application/json")
	require.Equal(t, http.StatusOK, w.Code)

	_, data := decodeEnvelope(t, w)
	transcript := data["transcript"].([]interface{})
	require.Len(t, transcript, 2)

	// GET returns the same transcript.
	w = h.do(t, http.MethodGet, "/api/v1/chat", nil, "")
	_, data = decodeEnvelope(t, w)
	assert.Equal(t, true, data["enabled"])
	assert.Len(t, data["transcript"].([]interface{}), 2)

	// DELETE clears it.
	w = h.do(t, http.MethodDelete, "/api/v1/chat", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	w = h.do(t, http.MethodGet, "/api/v1/chat", nil, "")
	_, data = decodeEnvelope(t, w)
	assert.Empty(t, data["transcript"])
}

func TestSessionDestroy(t *testing.T) {
	h := newHarness(t)
	h.sessions.Adopt("sess-1")
	h.session.On("DeleteSession", mock.Anything, "sess-1").Return(nil).Once()

	w := h.do(t, http.MethodDelete, "/api/v1/session", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(t, http.MethodGet, "/api/v1/session", nil, "")
	_, data := decodeEnvelope(t, w)
	assert.Equal(t, false, data["active"])
}

func TestSessionStats_Proxy(t *testing.T) {
	h := newHarness(t)
	h.session.On("GetSessionStats", mock.Anything).
		Return(&port.SessionStats{ActiveSessions: 2, MaxConcurrentUsers: 10}, nil).Once()

	w := h.do(t, http.MethodGet, "/api/v1/session/stats", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data port.SessionStats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Data.ActiveSessions)
}

func TestHealthEndpoints(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	h.health.On("Health", mock.Anything).Return(nil).Once()
	w = h.do(t, http.MethodGet, "/readyz", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	h.health.On("Health", mock.Anything).Return(assert.AnError).Once()
	w = h.do(t, http.MethodGet, "/readyz", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
