package core

// submit.go is the submission driver: every accepted row becomes one
// independent create call against the business API.
//
// Calls run on a bounded worker pool. A failing row is recorded and never
// stops the others; there are no retries and nothing is rolled back.
// Outcome messages keep row order regardless of completion order.

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/JonMunkholm/visadir/internal/bizapi"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DefaultSubmitConcurrency is used when SubmitConfig.Concurrency is unset.
const DefaultSubmitConcurrency = 4

// BusinessCreator creates one business record. *bizapi.Client implements it.
type BusinessCreator interface {
	CreateBusiness(ctx context.Context, rec bizapi.BusinessRecord) error
}

// SubmitConfig bounds outbound load. Concurrency 1 submits strictly in row order.
type SubmitConfig struct {
	Concurrency   int
	RatePerSecond float64 // <= 0 disables throttling
	Burst         int
}

// UploadOutcome aggregates one submission run.
type UploadOutcome struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

// SubmissionError is a per-row submission failure.
type SubmissionError struct {
	Line int
	Name string
	Err  error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("Row %d (%s): %v", e.Line, e.Name, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// Submitter sends accepted rows to the business API.
type Submitter struct {
	api         BusinessCreator
	concurrency int
	limiter     *rate.Limiter
}

// NewSubmitter creates a submitter over api.
func NewSubmitter(api BusinessCreator, cfg SubmitConfig) *Submitter {
	s := &Submitter{api: api, concurrency: cfg.Concurrency}
	if s.concurrency <= 0 {
		s.concurrency = DefaultSubmitConcurrency
	}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return s
}

// Submit creates every row and returns the aggregate outcome. progress, if
// set, is called once per row with the number finished so far; calls are
// serialized. Rows not started before ctx is done are counted as failed.
func (s *Submitter) Submit(ctx context.Context, rows []ListingRow, progress func(done, total int)) UploadOutcome {
	results := make([]error, len(rows))

	var mu sync.Mutex
	done := 0
	finish := func(i int, err error) {
		mu.Lock()
		defer mu.Unlock()
		results[i] = err
		done++
		if progress != nil {
			progress(done, len(rows))
		}
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for i := range rows {
		if err := ctx.Err(); err != nil {
			finish(i, notSubmitted(rows[i], err))
			continue
		}
		g.Go(func() error {
			finish(i, s.submitOne(ctx, rows[i]))
			return nil
		})
	}
	_ = g.Wait()

	outcome := UploadOutcome{Errors: []string{}}
	for _, err := range results {
		if err == nil {
			outcome.Success++
			continue
		}
		outcome.Failed++
		outcome.Errors = append(outcome.Errors, err.Error())
	}

	slog.Debug("submission finished",
		"rows", len(rows),
		"success", outcome.Success,
		"failed", outcome.Failed,
	)
	return outcome
}

func (s *Submitter) submitOne(ctx context.Context, row ListingRow) error {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return notSubmitted(row, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return notSubmitted(row, err)
	}

	if err := s.api.CreateBusiness(ctx, ToBusinessRecord(row)); err != nil {
		slog.Warn("business create failed", "line", row.Line, "name", row.BusinessName, "error", err)
		return &SubmissionError{Line: row.Line, Name: row.BusinessName, Err: err}
	}
	return nil
}

func notSubmitted(row ListingRow, cause error) error {
	return &SubmissionError{
		Line: row.Line,
		Name: row.BusinessName,
		Err:  fmt.Errorf("not submitted: %w", cause),
	}
}
