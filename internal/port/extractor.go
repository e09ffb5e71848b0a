package port

import (
	"context"

	"invoiceflow/internal/domain"
)

// ExtractInput carries one document submission to the extraction service.
type ExtractInput struct {
	Record    domain.IntakeRecord
	SessionID string // empty when no session is known yet
}

// ExtractOutput is the normalized successful response from the service.
type ExtractOutput struct {
	SessionID         string
	DocumentName      string
	Data              *domain.InvoiceData
	ConfidencePercent *float64
	RawText           string
	Validation        *domain.ValidationReport
	FileData          []byte
}

// DocumentExtractor abstracts the remote extraction endpoint. A non-nil
// error is classified by the transport package as either a transport or a
// service failure.
type DocumentExtractor interface {
	ProcessDocument(ctx context.Context, input ExtractInput) (*ExtractOutput, error)
}
