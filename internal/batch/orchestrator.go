package batch

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"invoiceflow/internal/domain"
	"invoiceflow/internal/port"
	"invoiceflow/internal/session"
	"invoiceflow/internal/transport"
)

// Config holds orchestration settings for a batch run.
type Config struct {
	// Mode selects how the session id is derived. Inline mode forces
	// sequential processing because "first successful result" is only
	// well-defined with one call in flight at a time.
	Mode domain.SessionMode
	// Concurrency bounds in-flight extractions in explicit mode.
	Concurrency int
	// MaxRetries bounds additional attempts for transport-classified
	// failures. Service rejections are terminal per item.
	MaxRetries int
	// RetryBackoff is the base delay between attempts, scaled linearly.
	RetryBackoff time.Duration
}

// Orchestrator drives per-item submission of a batch to the extraction
// service, reconciles responses into normalized results, and establishes
// the analysis session.
type Orchestrator struct {
	extractor port.DocumentExtractor
	sessions  *session.Manager
	cfg       Config
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(extractor port.DocumentExtractor, sessions *session.Manager, cfg Config) *Orchestrator {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Orchestrator{extractor: extractor, sessions: sessions, cfg: cfg}
}

// process runs the whole batch to completion and returns one result per
// input record, in input order. A single item's failure never aborts the
// batch; a fully failed batch still completes. The caller publishes the
// terminal event once results are stored (see Run).
func (o *Orchestrator) process(ctx context.Context, records []domain.IntakeRecord, tracker *statusTracker) ([]domain.ExtractionResult, error) {
	if len(records) == 0 {
		return nil, domain.ErrEmptyBatch
	}

	tracker.initAll(records)

	results := make([]domain.ExtractionResult, len(records))

	if o.cfg.Mode == domain.SessionModeInline {
		for i := range records {
			results[i] = *o.processOne(ctx, records[i], tracker)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(o.cfg.Concurrency)
		for i := range records {
			i := i
			g.Go(func() error {
				results[i] = *o.processOne(ctx, records[i], tracker)
				return nil
			})
		}
		_ = g.Wait()

		if ctx.Err() == nil && anySucceeded(results) {
			if err := o.sessions.CreateFromResults(ctx, results); err != nil {
				// Session stays absent; results are still usable.
				log.Printf("orchestrator: session creation failed after batch: %v", err)
			}
		}
	}

	log.Printf("orchestrator: batch complete (%d items, %d succeeded)", len(results), countSucceeded(results))
	return results, nil
}

// processOne drives a single item through pending -> processing ->
// completed/error/cancelled and always produces a result.
func (o *Orchestrator) processOne(ctx context.Context, rec domain.IntakeRecord, tracker *statusTracker) *domain.ExtractionResult {
	if ctx.Err() != nil {
		tracker.set(rec.ID, domain.StatusCancelled)
		return domain.NewErrorResult(rec.ID, rec.Name, "processing cancelled")
	}

	tracker.set(rec.ID, domain.StatusProcessing)

	sessionID, _ := o.sessions.Current()
	out, err := o.extract(ctx, port.ExtractInput{Record: rec, SessionID: sessionID})
	if err != nil {
		if ctx.Err() != nil {
			tracker.set(rec.ID, domain.StatusCancelled)
			return domain.NewErrorResult(rec.ID, rec.Name, "processing cancelled")
		}
		log.Printf("orchestrator: %s failed: %v", rec.Name, err)
		tracker.set(rec.ID, domain.StatusError)
		return domain.NewErrorResult(rec.ID, rec.Name, transport.UserMessage(err))
	}

	if o.cfg.Mode == domain.SessionModeInline && out.SessionID != "" {
		// First settled success wins; later adoptions are no-ops.
		o.sessions.Adopt(out.SessionID)
	}

	result := domain.NewSuccessResult(rec.ID, out.DocumentName, out.Data)
	result.ConfidencePercent = out.ConfidencePercent
	result.RawText = out.RawText
	result.Validation = out.Validation
	result.FileData = out.FileData
	if result.FileData == nil {
		result.FileData = rec.Data
	}
	tracker.set(rec.ID, domain.StatusCompleted)
	return result
}

// extract performs the network call with bounded retry for transport
// failures only.
func (o *Orchestrator) extract(ctx context.Context, input port.ExtractInput) (*port.ExtractOutput, error) {
	var lastErr error
	for attempt := 0; attempt <= o.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * o.cfg.RetryBackoff
			log.Printf("orchestrator: retrying %s in %s (attempt %d/%d)",
				input.Record.Name, backoff, attempt, o.cfg.MaxRetries)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		out, err := o.extractor.ProcessDocument(ctx, input)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !transport.IsTransport(err) || ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func anySucceeded(results []domain.ExtractionResult) bool {
	return countSucceeded(results) > 0
}

func countSucceeded(results []domain.ExtractionResult) int {
	n := 0
	for i := range results {
		if results[i].Succeeded() {
			n++
		}
	}
	return n
}
