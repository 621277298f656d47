package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type fakeArchiver struct {
	mu   sync.Mutex
	got  map[string][]byte
	fail error
}

func (a *fakeArchiver) Archive(_ context.Context, batchID, fileName string, data []byte) (string, error) {
	if a.fail != nil {
		return "", a.fail
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.got == nil {
		a.got = map[string][]byte{}
	}
	a.got[batchID] = data
	return "mem://" + batchID + "/" + fileName, nil
}

func newTestService(api BusinessCreator, opts ServiceOptions) *Service {
	return NewService(NewSubmitter(api, SubmitConfig{Concurrency: 2}), opts)
}

func waitResult(t *testing.T, svc *Service, id string) *BatchResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := svc.GetBatchResult(ctx, id)
	if err != nil {
		t.Fatalf("GetBatchResult() error = %v", err)
	}
	return res
}

func TestService_BatchLifecycle(t *testing.T) {
	api := &fakeCreator{fail: map[string]error{"Beta": errors.New("business api returned 409: exists")}}
	history := NewMemoryHistory(10)
	archiver := &fakeArchiver{}
	svc := newTestService(api, ServiceOptions{History: history, Archive: archiver})

	input := tsv(
		requiredHeader,
		validCells("Alpha"),
		validCells("Beta"),
		[]string{"", "Visa Agent", "Visas", "Bay", "Dubai", "+971-4-123-4567", "a@b.com"},
		validCells("Gamma"),
	)

	ctx := ContextWithActor(ContextWithIPAddress(context.Background(), "10.0.0.1"), "admin@visadir.ae")
	id, err := svc.StartBatch(ctx, "listings.tsv", []byte(input))
	if err != nil {
		t.Fatalf("StartBatch() error = %v", err)
	}

	res := waitResult(t, svc, id)
	if res.Phase != PhaseComplete {
		t.Fatalf("Phase = %s, error = %s", res.Phase, res.Error)
	}
	if res.TotalRows != 4 || res.ValidRows != 3 || res.InvalidRows != 1 {
		t.Errorf("rows total=%d valid=%d invalid=%d", res.TotalRows, res.ValidRows, res.InvalidRows)
	}
	if diff := cmp.Diff([]string{"Row 3: Business Name * is required"}, res.ValidationErrors); diff != "" {
		t.Errorf("validation errors (-want +got):\n%s", diff)
	}
	want := UploadOutcome{Success: 2, Failed: 1, Errors: []string{"Row 2 (Beta): business api returned 409: exists"}}
	if diff := cmp.Diff(want, res.Outcome); diff != "" {
		t.Errorf("outcome (-want +got):\n%s", diff)
	}
	if res.ArchiveLocation != "mem://"+id+"/listings.tsv" {
		t.Errorf("ArchiveLocation = %q", res.ArchiveLocation)
	}

	progress, err := svc.GetBatchProgress(id)
	if err != nil {
		t.Fatal(err)
	}
	if progress.Phase != PhaseComplete || progress.Percent != 100 {
		t.Errorf("final progress = %+v", progress)
	}

	if err := svc.WaitForBatches(context.Background()); err != nil {
		t.Fatalf("WaitForBatches() error = %v", err)
	}

	summaries, err := svc.ListBatches(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 1 {
		t.Fatalf("history has %d entries, want 1", len(summaries))
	}
	s := summaries[0]
	if s.ID != id || s.SubmittedBy != "admin@visadir.ae" || s.IPAddress != "10.0.0.1" {
		t.Errorf("summary = %+v", s)
	}
	if s.Succeeded != 2 || s.Failed != 1 || len(s.Errors) != 2 {
		t.Errorf("summary counts = %+v", s)
	}
}

func TestService_SubscribeProgress(t *testing.T) {
	api := &fakeCreator{delay: 10 * time.Millisecond}
	svc := newTestService(api, ServiceOptions{})

	id, err := svc.StartBatch(context.Background(), "f.tsv", []byte(tsv(requiredHeader, validCells("A"), validCells("B"))))
	if err != nil {
		t.Fatal(err)
	}

	ch, err := svc.SubscribeProgress(id)
	if err != nil {
		t.Fatal(err)
	}

	var last BatchProgress
	for p := range ch {
		last = p
	}
	// The channel may drop intermediate updates but is closed on finish.
	res := waitResult(t, svc, id)
	if res.Phase != PhaseComplete {
		t.Errorf("Phase = %s", res.Phase)
	}
	if last.BatchID != id {
		t.Errorf("last progress = %+v", last)
	}
}

func TestService_ParseFailure(t *testing.T) {
	svc := newTestService(&fakeCreator{}, ServiceOptions{})

	id, err := svc.StartBatch(context.Background(), "bad.tsv", []byte("foo\tbar\n1\t2\n"))
	if err != nil {
		t.Fatal(err)
	}

	res := waitResult(t, svc, id)
	if res.Phase != PhaseFailed {
		t.Errorf("Phase = %s, want failed", res.Phase)
	}
	if !strings.Contains(res.Error, ErrHeaderNotFound.Error()) {
		t.Errorf("Error = %q", res.Error)
	}
	if res.Outcome.Success != 0 || res.TotalRows != 0 {
		t.Errorf("partial output kept: %+v", res)
	}
}

func TestService_Cancel(t *testing.T) {
	api := &fakeCreator{delay: 50 * time.Millisecond}
	svc := NewService(NewSubmitter(api, SubmitConfig{Concurrency: 1}), ServiceOptions{})

	lines := [][]string{requiredHeader}
	for i := 0; i < 20; i++ {
		lines = append(lines, validCells("Row"))
	}
	id, err := svc.StartBatch(context.Background(), "big.tsv", []byte(tsv(lines...)))
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(30 * time.Millisecond)
	if err := svc.CancelBatch(id); err != nil {
		t.Fatalf("CancelBatch() error = %v", err)
	}

	res := waitResult(t, svc, id)
	if res.Phase != PhaseCancelled {
		t.Errorf("Phase = %s, want cancelled", res.Phase)
	}
	if res.Outcome.Success+res.Outcome.Failed != 20 {
		t.Errorf("outcome = %+v, every row should be accounted for", res.Outcome)
	}
	if res.Outcome.Failed == 0 {
		t.Error("expected unsent rows to be counted as failed")
	}
}

func TestService_RejectsEmptyAndOversized(t *testing.T) {
	svc := newTestService(&fakeCreator{}, ServiceOptions{MaxFileSize: 10})

	if _, err := svc.StartBatch(context.Background(), "e.tsv", nil); !errors.Is(err, ErrEmptyFile) {
		t.Errorf("empty: error = %v, want ErrEmptyFile", err)
	}
	if _, err := svc.StartBatch(context.Background(), "big.tsv", []byte(strings.Repeat("x", 11))); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("oversized: error = %v, want ErrFileTooLarge", err)
	}
}

func TestService_UnknownBatch(t *testing.T) {
	svc := newTestService(&fakeCreator{}, ServiceOptions{})

	if _, err := svc.GetBatchProgress("nope"); !errors.Is(err, ErrBatchNotFound) {
		t.Errorf("GetBatchProgress error = %v", err)
	}
	if err := svc.CancelBatch("nope"); !errors.Is(err, ErrBatchNotFound) {
		t.Errorf("CancelBatch error = %v", err)
	}
	if _, err := svc.SubscribeProgress("nope"); !errors.Is(err, ErrBatchNotFound) {
		t.Errorf("SubscribeProgress error = %v", err)
	}
	if _, err := svc.GetBatchResult(context.Background(), "nope"); !errors.Is(err, ErrBatchNotFound) {
		t.Errorf("GetBatchResult error = %v", err)
	}
}

func TestService_Preview(t *testing.T) {
	svc := newTestService(&fakeCreator{}, ServiceOptions{})

	res, err := svc.Preview(context.Background(), "p.tsv", strings.NewReader(tsv(requiredHeader, validCells("A"))))
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if len(res.Rows) != 1 {
		t.Errorf("rows = %d, want 1", len(res.Rows))
	}

	_, err = svc.Preview(context.Background(), "p.tsv", strings.NewReader(""))
	if !errors.Is(err, ErrEmptyFile) {
		t.Errorf("error = %v, want ErrEmptyFile", err)
	}
}

func TestService_ArchiveFailureDoesNotStopBatch(t *testing.T) {
	svc := newTestService(&fakeCreator{}, ServiceOptions{Archive: &fakeArchiver{fail: errors.New("bucket missing")}})

	id, err := svc.StartBatch(context.Background(), "f.tsv", []byte(tsv(requiredHeader, validCells("A"))))
	if err != nil {
		t.Fatal(err)
	}
	res := waitResult(t, svc, id)
	if res.Phase != PhaseComplete || res.ArchiveLocation != "" || res.Outcome.Success != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestMemoryHistory(t *testing.T) {
	h := NewMemoryHistory(2)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		_ = h.RecordBatch(ctx, BatchSummary{ID: id, FinishedAt: base.Add(time.Duration(i) * time.Hour)})
	}

	got, _ := h.ListBatches(ctx, 0)
	var ids []string
	for _, s := range got {
		ids = append(ids, s.ID)
	}
	if diff := cmp.Diff([]string{"c", "b"}, ids); diff != "" {
		t.Errorf("ids (-want +got):\n%s", diff)
	}

	pruned, _ := h.PruneBefore(ctx, base.Add(90*time.Minute))
	if pruned != 1 {
		t.Errorf("pruned = %d, want 1", pruned)
	}
	got, _ = h.ListBatches(ctx, 5)
	if len(got) != 1 || got[0].ID != "c" {
		t.Errorf("after prune = %+v", got)
	}
}

func TestService_RetentionScheduler(t *testing.T) {
	history := NewMemoryHistory(10)
	_ = history.RecordBatch(context.Background(), BatchSummary{ID: "old", FinishedAt: time.Now().Add(-48 * time.Hour)})
	_ = history.RecordBatch(context.Background(), BatchSummary{ID: "new", FinishedAt: time.Now()})

	svc := newTestService(&fakeCreator{}, ServiceOptions{History: history})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.StartRetentionScheduler(ctx, RetentionConfig{MaxAge: 24 * time.Hour, CheckInterval: time.Hour})
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		got, _ := history.ListBatches(context.Background(), 0)
		if len(got) == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	got, _ := history.ListBatches(context.Background(), 0)
	if len(got) != 1 || got[0].ID != "new" {
		t.Errorf("history after retention = %+v", got)
	}
}
