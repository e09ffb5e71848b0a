package handler

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"invoiceflow/internal/batch"
	"invoiceflow/internal/config"
	"invoiceflow/internal/domain"
	"invoiceflow/internal/intake"
	"invoiceflow/internal/ledger"
	"invoiceflow/internal/results"
)

// BatchHandler exposes batch upload, processing, status, results and export.
type BatchHandler struct {
	intake       *intake.Service
	orchestrator *batch.Orchestrator
	registry     *batch.Registry
	exportCfg    *config.ExportConfig
}

// NewBatchHandler creates a BatchHandler.
func NewBatchHandler(in *intake.Service, orch *batch.Orchestrator, reg *batch.Registry, exportCfg *config.ExportConfig) *BatchHandler {
	return &BatchHandler{intake: in, orchestrator: orch, registry: reg, exportCfg: exportCfg}
}

// Create handles POST /api/v1/batches: reads the multipart files, runs them
// through intake, and starts asynchronous processing.
func (h *BatchHandler) Create(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_FORM", "expected multipart form with 'files' field")
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		HandleError(c, domain.ErrEmptyBatch)
		return
	}

	// Each request assembles its own record set; the intake service only
	// validates. Concurrent uploads must never share staging state.
	records := make([]domain.IntakeRecord, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			RespondError(c, http.StatusBadRequest, "UNREADABLE_FILE", "could not open uploaded file "+fh.Filename)
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			RespondError(c, http.StatusBadRequest, "UNREADABLE_FILE", "could not read uploaded file "+fh.Filename)
			return
		}
		rec, err := h.intake.Normalize(fh.Filename, data)
		if err != nil {
			HandleError(c, err)
			return
		}
		records = append(records, *rec)
	}

	run, err := h.orchestrator.Start(records)
	if err != nil {
		HandleError(c, err)
		return
	}
	h.registry.Put(run)

	RespondCreated(c, gin.H{
		"batch_id": run.ID,
		"statuses": run.Snapshot(),
	})
}

// Status handles GET /api/v1/batches/:id/status.
func (h *BatchHandler) Status(c *gin.Context) {
	run, ok := h.registry.Get(c.Param("id"))
	if !ok {
		HandleError(c, domain.ErrNotFound)
		return
	}

	_, done := run.Results()
	RespondOK(c, gin.H{
		"batch_id": run.ID,
		"done":     done,
		"statuses": run.Snapshot(),
	})
}

// Cancel handles POST /api/v1/batches/:id/cancel.
func (h *BatchHandler) Cancel(c *gin.Context) {
	run, ok := h.registry.Get(c.Param("id"))
	if !ok {
		HandleError(c, domain.ErrNotFound)
		return
	}
	run.Cancel()
	RespondOK(c, gin.H{"batch_id": run.ID, "cancelled": true})
}

// Results handles GET /api/v1/batches/:id/results with search, status and
// pagination query params.
func (h *BatchHandler) Results(c *gin.Context) {
	run, ok := h.registry.Get(c.Param("id"))
	if !ok {
		HandleError(c, domain.ErrNotFound)
		return
	}
	all, done := run.Results()
	if !done {
		HandleError(c, domain.ErrBatchRunning)
		return
	}

	statusFilter, valid := results.ParseStatusFilter(c.Query("status"))
	if !valid {
		RespondError(c, http.StatusBadRequest, "INVALID_STATUS_FILTER", "status must be one of all, success, error")
		return
	}

	pageSize := intQuery(c, "page_size", 10)
	pageNumber := intQuery(c, "page", 1)

	filtered := results.Filter(all, c.Query("search"), statusFilter)
	page := results.Paginate(filtered, pageSize, pageNumber)

	RespondOK(c, gin.H{
		"batch_id": run.ID,
		"summary":  results.Summarize(all),
		"page":     page,
	})
}

// Export handles GET /api/v1/batches/:id/export?format=csv|xlsx and streams
// the ledger file as a download.
func (h *BatchHandler) Export(c *gin.Context) {
	run, ok := h.registry.Get(c.Param("id"))
	if !ok {
		HandleError(c, domain.ErrNotFound)
		return
	}
	all, done := run.Results()
	if !done {
		HandleError(c, domain.ErrBatchRunning)
		return
	}

	rows := ledger.Rows(all, h.exportCfg.EntityName)

	format := c.DefaultQuery("format", "csv")
	var buf bytes.Buffer
	var contentType string
	switch format {
	case "csv":
		contentType = "text/csv"
		if err := ledger.WriteCSV(&buf, rows); err != nil {
			HandleError(c, err)
			return
		}
	case "xlsx":
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		if err := ledger.WriteXLSX(&buf, rows); err != nil {
			HandleError(c, err)
			return
		}
	default:
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be csv or xlsx")
		return
	}

	filename := ledger.BuildFilename(h.exportCfg.FilenamePrefix, format)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func intQuery(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
