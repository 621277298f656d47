package views

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/JonMunkholm/visadir/internal/core"
)

func TestErrorAlert_Escapes(t *testing.T) {
	var buf bytes.Buffer
	if err := ErrorAlert(`<script>alert(1)</script>`, "Try again", "ERR000").Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "<script>") {
		t.Errorf("message not escaped: %s", out)
	}
	if !strings.Contains(out, "Try again") || !strings.Contains(out, "ERR000") {
		t.Errorf("output = %s", out)
	}
}

func TestUploadSummary(t *testing.T) {
	var errs []string
	for i := 1; i <= 12; i++ {
		errs = append(errs, fmt.Sprintf("Row %d: City * is required", i))
	}
	result := &core.ParseResult{
		Ignored: []string{"Fax"},
		Rows:    []core.ListingRow{{Line: 13}},
		Invalid: []core.RowFailure{{Line: 1, Errors: errs}},
		Total:   13,
	}

	var buf bytes.Buffer
	if err := UploadSummary("listings.tsv", result).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{"listings.tsv", "<dd>13</dd>", "<code>Fax</code>", "Row 10: City * is required", "+2 more"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Row 11:") {
		t.Errorf("output shows more than the display limit:\n%s", out)
	}
}

func TestBatchStatus(t *testing.T) {
	var buf bytes.Buffer
	p := core.BatchProgress{BatchID: "b1", Phase: core.PhaseCancelled, Percent: 40, ValidRows: 5, Submitted: 2, Error: "batch cancelled"}
	if err := BatchStatus(p).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{`data-phase="cancelled"`, `value="40"`, "2 of 5 submitted", "batch cancelled"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestErrorAlert_NoAction(t *testing.T) {
	var buf bytes.Buffer
	if err := ErrorAlert("Batch not found", "", "UPL003").Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := `<div class="alert alert-error" role="alert" data-code="UPL003"><p class="alert-message">Batch not found</p><span class="alert-code">UPL003</span></div>`
	if got := buf.String(); got != want {
		t.Errorf("output =\n%s\nwant\n%s", got, want)
	}
}

func TestUploadSummary_NoErrors(t *testing.T) {
	var buf bytes.Buffer
	result := &core.ParseResult{Rows: []core.ListingRow{{Line: 1}}, Total: 1}
	if err := UploadSummary("ok.tsv", result).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()
	if strings.Contains(out, `<ul class="errors">`) || strings.Contains(out, "Ignored columns") {
		t.Errorf("unexpected sections:\n%s", out)
	}
}
