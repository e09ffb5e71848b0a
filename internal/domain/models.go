package domain

import (
	"time"
)

// IntakeRecord is a user-selected document normalized into memory,
// immutable after creation.
type IntakeRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// LineItem is a single billed line on an invoice.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
	Amount      float64 `json:"amount"`
	Person      string  `json:"person,omitempty"`
}

// InvoiceData is the structured payload the extraction service produces
// for a successfully processed document.
type InvoiceData struct {
	VendorName    string     `json:"vendor_name"`
	InvoiceNumber string     `json:"invoice_number"`
	Date          string     `json:"date"`
	TotalAmount   float64    `json:"total_amount"`
	Currency      string     `json:"currency"`
	TaxAmount     float64    `json:"tax_amount"`
	PaymentTerms  string     `json:"payment_terms"`
	LineItems     []LineItem `json:"line_items"`
}

// ValidationReport carries the service's self-check of an extraction.
type ValidationReport struct {
	IsValid         bool     `json:"is_valid"`
	ConfidenceScore float64  `json:"confidence_score"`
	Warnings        []string `json:"warnings,omitempty"`
	Suggestions     []string `json:"suggestions,omitempty"`
}

// ExtractionResult is produced exactly once per IntakeRecord when its
// round trip settles. Data is nil whenever Status is ResultError; use the
// constructors below so the two branches stay consistent.
type ExtractionResult struct {
	ID                string            `json:"id"`
	DocumentName      string            `json:"document_name"`
	Status            ResultStatus      `json:"status"`
	Data              *InvoiceData      `json:"structured_data,omitempty"`
	ConfidencePercent *float64          `json:"confidence_percent,omitempty"`
	RawText           string            `json:"raw_text,omitempty"`
	Validation        *ValidationReport `json:"validation,omitempty"`
	ErrorMessage      string            `json:"error_message,omitempty"`
	FileData          []byte            `json:"-"`
}

// NewSuccessResult builds the success branch of an ExtractionResult.
func NewSuccessResult(id, name string, data *InvoiceData) *ExtractionResult {
	return &ExtractionResult{
		ID:           id,
		DocumentName: name,
		Status:       ResultSuccess,
		Data:         data,
	}
}

// NewErrorResult builds the error branch of an ExtractionResult.
func NewErrorResult(id, name, message string) *ExtractionResult {
	return &ExtractionResult{
		ID:           id,
		DocumentName: name,
		Status:       ResultError,
		ErrorMessage: message,
	}
}

// Succeeded reports whether the result carries structured data.
func (r *ExtractionResult) Succeeded() bool {
	return r.Status == ResultSuccess && r.Data != nil
}

// ChatMessage is one entry in the conversation transcript.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// LedgerRow is one accounts-payable journal line projected from a
// successful extraction.
type LedgerRow struct {
	Document       string  `json:"document"`
	Vendor         string  `json:"vendor"`
	DocumentNumber string  `json:"document_number"`
	Date           string  `json:"date"`
	Account        string  `json:"account"`
	Description    string  `json:"description"`
	Debit          float64 `json:"debit"`
	Credit         float64 `json:"credit"`
	Reference      string  `json:"reference"`
	Entity         string  `json:"entity"`
}

// BatchSummary aggregates a settled batch for display.
type BatchSummary struct {
	Total       int     `json:"total"`
	Succeeded   int     `json:"succeeded"`
	Failed      int     `json:"failed"`
	TotalAmount float64 `json:"total_amount"`
}
