package results

import (
	"strings"

	"invoiceflow/internal/domain"
)

// StatusFilter restricts results by their success/error branch.
type StatusFilter string

const (
	FilterAll     StatusFilter = "all"
	FilterSuccess StatusFilter = "success"
	FilterError   StatusFilter = "error"
)

// ParseStatusFilter validates a query-string filter value, defaulting to all.
func ParseStatusFilter(s string) (StatusFilter, bool) {
	switch StatusFilter(s) {
	case FilterSuccess:
		return FilterSuccess, true
	case FilterError:
		return FilterError, true
	case FilterAll, "":
		return FilterAll, true
	default:
		return FilterAll, false
	}
}

// Filter returns the subsequence of results matching the search term and
// status filter, preserving input order. The term is matched
// case-insensitively against document name, vendor name and invoice number.
func Filter(in []domain.ExtractionResult, term string, status StatusFilter) []domain.ExtractionResult {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]domain.ExtractionResult, 0, len(in))
	for i := range in {
		r := &in[i]
		switch status {
		case FilterSuccess:
			if r.Status != domain.ResultSuccess {
				continue
			}
		case FilterError:
			if r.Status != domain.ResultError {
				continue
			}
		}
		if term != "" && !matches(r, term) {
			continue
		}
		out = append(out, *r)
	}
	return out
}

func matches(r *domain.ExtractionResult, term string) bool {
	if strings.Contains(strings.ToLower(r.DocumentName), term) {
		return true
	}
	if r.Data == nil {
		return false
	}
	return strings.Contains(strings.ToLower(r.Data.VendorName), term) ||
		strings.Contains(strings.ToLower(r.Data.InvoiceNumber), term)
}

// Page is one page of results with its pagination coordinates.
type Page struct {
	Items      []domain.ExtractionResult `json:"items"`
	PageNumber int                       `json:"page"`
	PageSize   int                       `json:"page_size"`
	TotalItems int                       `json:"total_items"`
	TotalPages int                       `json:"total_pages"`
}

// Paginate slices results into a 1-based page, clamping the page number
// into the valid range. A non-positive pageSize defaults to 10.
func Paginate(in []domain.ExtractionResult, pageSize, pageNumber int) Page {
	if pageSize < 1 {
		pageSize = 10
	}
	totalPages := (len(in) + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageNumber > totalPages {
		pageNumber = totalPages
	}

	start := (pageNumber - 1) * pageSize
	end := start + pageSize
	if start > len(in) {
		start = len(in)
	}
	if end > len(in) {
		end = len(in)
	}

	return Page{
		Items:      in[start:end],
		PageNumber: pageNumber,
		PageSize:   pageSize,
		TotalItems: len(in),
		TotalPages: totalPages,
	}
}

// Summarize aggregates a settled batch: counts and the total amount across
// successful extractions.
func Summarize(in []domain.ExtractionResult) domain.BatchSummary {
	s := domain.BatchSummary{Total: len(in)}
	for i := range in {
		if in[i].Succeeded() {
			s.Succeeded++
			s.TotalAmount += in[i].Data.TotalAmount
		} else {
			s.Failed++
		}
	}
	return s
}
