package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/JonMunkholm/visadir/internal/config"
	"github.com/JonMunkholm/visadir/internal/core"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// openTx returns a store inside a transaction that is rolled back when the
// test ends, so tests never leave rows behind.
func openTx(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	pool, err := Open(ctx, config.DatabaseConfig{URL: url, MaxConns: 2, MinConns: 0})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(pool.Close)

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })

	s := New(tx)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM batch_history`); err != nil {
		t.Fatalf("clear: %v", err)
	}
	return s
}

func summary(name string, finished time.Time) core.BatchSummary {
	return core.BatchSummary{
		ID:          uuid.NewString(),
		FileName:    name,
		SubmittedBy: "ops@visadir.ae",
		IPAddress:   "10.0.0.7",
		Phase:       core.PhaseComplete,
		TotalRows:   3,
		ValidRows:   2,
		InvalidRows: 1,
		Succeeded:   1,
		Failed:      1,
		Errors:      []string{"Row 2: Category * must be one of: Visa Agent"},
		StartedAt:   finished.Add(-time.Minute),
		FinishedAt:  finished,
	}
}

func TestStore_RecordAndList(t *testing.T) {
	s := openTx(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	older := summary("older.tsv", base)
	newer := summary("newer.tsv", base.Add(time.Hour))
	newer.Errors = nil

	for _, b := range []core.BatchSummary{older, newer} {
		if err := s.RecordBatch(ctx, b); err != nil {
			t.Fatalf("RecordBatch() error = %v", err)
		}
	}

	got, err := s.ListBatches(ctx, 10)
	if err != nil {
		t.Fatalf("ListBatches() error = %v", err)
	}

	newer.Errors = []string{}
	want := []core.BatchSummary{newer, older}
	if diff := cmp.Diff(want, got, cmpopts.EquateApproxTime(time.Millisecond)); diff != "" {
		t.Errorf("ListBatches() mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_RecordTwiceUpdates(t *testing.T) {
	s := openTx(t)
	ctx := context.Background()

	b := summary("a.tsv", time.Now().UTC())
	b.Phase = core.PhaseSubmitting
	if err := s.RecordBatch(ctx, b); err != nil {
		t.Fatalf("RecordBatch() error = %v", err)
	}
	b.Phase = core.PhaseFailed
	b.Error = "batch timed out"
	if err := s.RecordBatch(ctx, b); err != nil {
		t.Fatalf("RecordBatch() second error = %v", err)
	}

	got, err := s.ListBatches(ctx, 0)
	if err != nil {
		t.Fatalf("ListBatches() error = %v", err)
	}
	if len(got) != 1 || got[0].Phase != core.PhaseFailed || got[0].Error != "batch timed out" {
		t.Errorf("got %+v", got)
	}
}

func TestStore_PruneBefore(t *testing.T) {
	s := openTx(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_ = s.RecordBatch(ctx, summary("old.tsv", now.Add(-100*24*time.Hour)))
	_ = s.RecordBatch(ctx, summary("new.tsv", now))

	n, err := s.PruneBefore(ctx, now.Add(-90*24*time.Hour))
	if err != nil {
		t.Fatalf("PruneBefore() error = %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d, want 1", n)
	}

	got, _ := s.ListBatches(ctx, 10)
	if len(got) != 1 || got[0].FileName != "new.tsv" {
		t.Errorf("remaining = %+v", got)
	}
}
