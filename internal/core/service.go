package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultBatchTimeout bounds one batch from parse to last submission.
const DefaultBatchTimeout = 10 * time.Minute

// DefaultResultTTL is how long a finished batch stays queryable in memory.
const DefaultResultTTL = 5 * time.Minute

// historyTimeout bounds the history write after a batch finishes.
const historyTimeout = 5 * time.Second

// ErrBatchNotFound is returned for unknown or expired batch IDs.
var ErrBatchNotFound = errors.New("batch not found")

// ServiceOptions configures a Service. Zero values use defaults.
type ServiceOptions struct {
	Schema        Schema // default ListingSchema()
	MaxFileSize   int64  // default DefaultMaxFileSize
	BatchTimeout  time.Duration
	ResultTTL     time.Duration
	MaxConcurrent int
	MaxWait       time.Duration
	History       HistoryStore // default in-memory
	Archive       Archiver     // optional
}

// Service runs listing batches: parse, validate, submit, report.
type Service struct {
	schema       Schema
	maxFileSize  int64
	batchTimeout time.Duration
	resultTTL    time.Duration
	submitter    *Submitter
	limiter      *BatchLimiter
	history      HistoryStore
	archive      Archiver

	mu      sync.RWMutex
	batches map[string]*activeBatch
}

type activeBatch struct {
	ID        string
	FileName  string
	Actor     string
	IPAddress string
	StartedAt time.Time
	Cancel    context.CancelFunc
	Done      chan struct{}

	mu        sync.Mutex
	progress  BatchProgress
	result    *BatchResult
	listeners []chan BatchProgress
}

// NewService creates a Service submitting through submitter.
func NewService(submitter *Submitter, opts ServiceOptions) *Service {
	if opts.Schema == nil {
		opts.Schema = ListingSchema()
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = DefaultBatchTimeout
	}
	if opts.ResultTTL <= 0 {
		opts.ResultTTL = DefaultResultTTL
	}
	if opts.History == nil {
		opts.History = NewMemoryHistory(0)
	}

	return &Service{
		schema:       opts.Schema,
		maxFileSize:  opts.MaxFileSize,
		batchTimeout: opts.BatchTimeout,
		resultTTL:    opts.ResultTTL,
		submitter:    submitter,
		limiter:      NewBatchLimiter(opts.MaxConcurrent, opts.MaxWait),
		history:      opts.History,
		archive:      opts.Archive,
		batches:      make(map[string]*activeBatch),
	}
}

// Schema returns the upload schema.
func (s *Service) Schema() Schema { return s.schema }

// MaxFileSize returns the upload size limit in bytes.
func (s *Service) MaxFileSize() int64 { return s.maxFileSize }

// Preview parses and validates r without submitting anything.
func (s *Service) Preview(ctx context.Context, fileName string, r io.Reader) (*ParseResult, error) {
	result, err := ParseListings(ctx, r, s.schema, ParseOptions{MaxBytes: s.maxFileSize})
	if err != nil {
		return nil, fmt.Errorf("preview %s: %w", fileName, err)
	}
	return result, nil
}

// StartBatch queues data for processing and returns the batch ID. It waits
// for a limiter slot and fails with ErrTooManyBatches if none frees up.
// Request-scoped values (actor, IP) are kept; request cancellation is not.
func (s *Service) StartBatch(ctx context.Context, fileName string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", &ParseError{Err: ErrEmptyFile}
	}
	if int64(len(data)) > s.maxFileSize {
		return "", &ParseError{Err: ErrFileTooLarge}
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return "", err
	}

	batchID := uuid.NewString()
	batchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.batchTimeout)

	batch := &activeBatch{
		ID:        batchID,
		FileName:  fileName,
		Actor:     GetActorFromContext(ctx),
		IPAddress: GetIPAddressFromContext(ctx),
		StartedAt: time.Now(),
		Cancel:    cancel,
		Done:      make(chan struct{}),
		progress: BatchProgress{
			BatchID:  batchID,
			FileName: fileName,
			Phase:    PhaseStarting,
		},
	}

	s.mu.Lock()
	s.batches[batchID] = batch
	s.mu.Unlock()

	go func() {
		defer s.limiter.Release()
		defer cancel()
		s.processBatch(batchCtx, batch, data)
	}()

	return batchID, nil
}

func (s *Service) processBatch(ctx context.Context, b *activeBatch, data []byte) {
	log := slog.With("batch_id", b.ID, "file", b.FileName)
	result := &BatchResult{
		BatchID:          b.ID,
		FileName:         b.FileName,
		ValidationErrors: []string{},
		Outcome:          UploadOutcome{Errors: []string{}},
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic in batch", "panic", r)
			result.Phase = PhaseFailed
			result.Error = fmt.Sprintf("internal error: %v", r)
		}
		result.Duration = time.Since(b.StartedAt)
		// History is written before waiters wake so a finished batch is
		// always listed.
		s.recordHistory(b, result)
		b.finish(result)
		s.cleanup(b.ID, s.resultTTL)
		log.Info("batch finished",
			"phase", result.Phase,
			"rows", result.TotalRows,
			"invalid", result.InvalidRows,
			"succeeded", result.Outcome.Success,
			"failed", result.Outcome.Failed,
			"duration_ms", result.Duration.Milliseconds(),
		)
	}()

	if s.archive != nil {
		loc, err := s.archive.Archive(ctx, b.ID, b.FileName, data)
		if err != nil {
			log.Warn("archive upload failed", "error", err)
		} else {
			result.ArchiveLocation = loc
		}
	}

	b.update(func(p *BatchProgress) { p.Phase = PhaseParsing })

	parsed, err := ParseListings(ctx, bytes.NewReader(data), s.schema, ParseOptions{
		MaxBytes: s.maxFileSize,
		Progress: func(pct int) { b.update(func(p *BatchProgress) { p.Percent = pct }) },
	})
	if err != nil {
		result.Phase, result.Error = terminalPhase(ctx, err)
		return
	}

	log.Debug("upload parsed", "bytes", parsed.Bytes, "rows", parsed.Total, "invalid", len(parsed.Invalid))

	result.TotalRows = parsed.Total
	result.ValidRows = len(parsed.Rows)
	result.InvalidRows = len(parsed.Invalid)
	result.ValidationErrors = append(result.ValidationErrors, parsed.Errors()...)

	b.update(func(p *BatchProgress) {
		p.Phase = PhaseSubmitting
		p.Percent = 0
		p.TotalRows = parsed.Total
		p.ValidRows = len(parsed.Rows)
		p.Invalid = len(parsed.Invalid)
	})

	result.Outcome = s.submitter.Submit(ctx, parsed.Rows, func(done, total int) {
		b.update(func(p *BatchProgress) {
			p.Submitted = done
			p.Percent = done * 100 / total
		})
	})

	if err := ctx.Err(); err != nil {
		result.Phase, result.Error = terminalPhase(ctx, err)
		return
	}
	result.Phase = PhaseComplete
}

// terminalPhase classifies a batch-ending error.
func terminalPhase(ctx context.Context, err error) (BatchPhase, string) {
	if errors.Is(ctx.Err(), context.Canceled) {
		return PhaseCancelled, "batch cancelled"
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return PhaseFailed, "batch timed out: context deadline exceeded"
	}
	return PhaseFailed, err.Error()
}

func (s *Service) recordHistory(b *activeBatch, r *BatchResult) {
	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()

	summary := BatchSummary{
		ID:              b.ID,
		FileName:        b.FileName,
		SubmittedBy:     b.Actor,
		IPAddress:       b.IPAddress,
		Phase:           r.Phase,
		TotalRows:       r.TotalRows,
		ValidRows:       r.ValidRows,
		InvalidRows:     r.InvalidRows,
		Succeeded:       r.Outcome.Success,
		Failed:          r.Outcome.Failed,
		Errors:          append(append([]string{}, r.ValidationErrors...), r.Outcome.Errors...),
		ArchiveLocation: r.ArchiveLocation,
		Error:           r.Error,
		StartedAt:       b.StartedAt,
		FinishedAt:      b.StartedAt.Add(r.Duration),
	}
	if err := s.history.RecordBatch(ctx, summary); err != nil {
		slog.Error("record batch history failed", "batch_id", b.ID, "error", err)
	}
}

func (s *Service) lookup(batchID string) (*activeBatch, error) {
	s.mu.RLock()
	b, ok := s.batches[batchID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
	}
	return b, nil
}

// SubscribeProgress returns a channel of progress updates, starting with the
// current state. The channel is closed when the batch finishes. Slow
// subscribers miss intermediate updates.
func (s *Service) SubscribeProgress(batchID string) (<-chan BatchProgress, error) {
	b, err := s.lookup(batchID)
	if err != nil {
		return nil, err
	}

	ch := make(chan BatchProgress, 10)

	b.mu.Lock()
	defer b.mu.Unlock()
	ch <- b.progress
	if b.result != nil {
		close(ch)
		return ch, nil
	}
	b.listeners = append(b.listeners, ch)
	return ch, nil
}

// GetBatchProgress returns the current progress without blocking.
func (s *Service) GetBatchProgress(batchID string) (BatchProgress, error) {
	b, err := s.lookup(batchID)
	if err != nil {
		return BatchProgress{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.progress, nil
}

// GetBatchResult blocks until the batch finishes or ctx is done.
func (s *Service) GetBatchResult(ctx context.Context, batchID string) (*BatchResult, error) {
	b, err := s.lookup(batchID)
	if err != nil {
		return nil, err
	}

	select {
	case <-b.Done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.result, nil
}

// CancelBatch stops a running batch. Rows already submitted stay submitted.
func (s *Service) CancelBatch(batchID string) error {
	b, err := s.lookup(batchID)
	if err != nil {
		return err
	}
	b.Cancel()
	return nil
}

// ListBatches returns recent finished batches, newest first.
func (s *Service) ListBatches(ctx context.Context, limit int) ([]BatchSummary, error) {
	out, err := s.history.ListBatches(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return out, nil
}

// ActiveBatches returns progress for batches still held in memory.
func (s *Service) ActiveBatches() []BatchProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]BatchProgress, 0, len(s.batches))
	for _, b := range s.batches {
		b.mu.Lock()
		out = append(out, b.progress)
		b.mu.Unlock()
	}
	return out
}

// LimiterStatus reports batch slot usage.
func (s *Service) LimiterStatus() LimiterStatus { return s.limiter.Status() }

// WaitForBatches blocks until running batches finish or ctx is done.
func (s *Service) WaitForBatches(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// cleanup removes the batch from memory after a delay.
func (s *Service) cleanup(batchID string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.batches, batchID)
		s.mu.Unlock()
	})
}

// update mutates progress and notifies listeners.
func (b *activeBatch) update(fn func(*BatchProgress)) {
	b.mu.Lock()
	defer b.mu.Unlock()

	fn(&b.progress)
	b.progress.Seq++
	for _, ch := range b.listeners {
		select {
		case ch <- b.progress:
		default:
			// Listener is slow, skip this update
		}
	}
}

// finish stores the result, publishes the terminal progress and closes
// listeners. Only the first call has any effect.
func (b *activeBatch) finish(r *BatchResult) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.result != nil {
		return
	}
	b.result = r
	b.progress.Phase = r.Phase
	b.progress.Error = r.Error
	if r.Phase == PhaseComplete {
		b.progress.Percent = 100
	}
	b.progress.Seq++

	for _, ch := range b.listeners {
		select {
		case ch <- b.progress:
		default:
		}
		close(ch)
	}
	b.listeners = nil
	close(b.Done)
}
