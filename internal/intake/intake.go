package intake

import (
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"invoiceflow/internal/config"
	"invoiceflow/internal/domain"
)

// Service normalizes user-selected files into IntakeRecords and manages
// the set of pending items for the next batch.
type Service struct {
	cfg *config.IntakeConfig

	mu      sync.Mutex
	pending []domain.IntakeRecord
}

// NewService creates an intake Service.
func NewService(cfg *config.IntakeConfig) *Service {
	return &Service{cfg: cfg}
}

// Normalize validates a file and builds its record without touching the
// pending set. Callers assembling a batch within one request use this and
// keep the records themselves; the pending set is for staged selection.
func (s *Service) Normalize(name string, data []byte) (*domain.IntakeRecord, error) {
	// Validate file extension
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	fileType, ok := domain.AllowedExtensions[ext]
	if !ok {
		return nil, domain.ErrUnsupportedFileType
	}

	if len(data) == 0 {
		return nil, domain.ErrEmptyFile
	}

	maxBytes := s.cfg.MaxFileSizeMB * 1024 * 1024
	if int64(len(data)) > maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	// Magic-byte content type detection on the first 512 bytes
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	detectedType := http.DetectContentType(head)
	if _, validContent := domain.AllowedContentTypes[baseContentType(detectedType)]; !validContent {
		return nil, domain.ErrUnsupportedFileType
	}

	rec := domain.IntakeRecord{
		ID:          uuid.New().String(),
		Name:        name,
		Size:        int64(len(data)),
		ContentType: domain.AllowedFileTypes[fileType],
		Data:        data,
	}
	return &rec, nil
}

// Add validates a file and appends it to the pending set, returning the
// created record. The raw bytes are held in memory for the batch's lifetime.
func (s *Service) Add(name string, data []byte) (*domain.IntakeRecord, error) {
	rec, err := s.Normalize(name, data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.pending = append(s.pending, *rec)
	s.mu.Unlock()

	log.Printf("intake: added %s (%s, %d bytes) as %s", name, rec.ContentType, rec.Size, rec.ID)
	return rec, nil
}

// Remove drops one pending record by id.
func (s *Service) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.pending {
		if s.pending[i].ID == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// Pending returns a copy of the current pending set in add order.
func (s *Service) Pending() []domain.IntakeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.IntakeRecord, len(s.pending))
	copy(out, s.pending)
	return out
}

// Reset clears the pending set.
func (s *Service) Reset() {
	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
}

// Take returns the pending set and clears it, handing ownership to the
// batch orchestrator.
func (s *Service) Take() []domain.IntakeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}

// baseContentType strips parameters like "; charset=utf-8" that
// http.DetectContentType appends for text files.
func baseContentType(ct string) string {
	if i := strings.Index(ct, ";"); i >= 0 {
		return strings.TrimSpace(ct[:i])
	}
	return ct
}
