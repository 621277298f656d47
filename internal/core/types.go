package core

import "time"

// BatchPhase is the lifecycle stage of a batch.
type BatchPhase string

const (
	PhaseStarting   BatchPhase = "starting"
	PhaseParsing    BatchPhase = "parsing"
	PhaseSubmitting BatchPhase = "submitting"
	PhaseComplete   BatchPhase = "complete"
	PhaseFailed     BatchPhase = "failed"
	PhaseCancelled  BatchPhase = "cancelled"
)

// Terminal reports whether no further progress will follow.
func (p BatchPhase) Terminal() bool {
	return p == PhaseComplete || p == PhaseFailed || p == PhaseCancelled
}

// BatchProgress is a point-in-time view of a running batch. Percent is
// relative to the current phase; Seq increases with every update for the
// life of the batch.
type BatchProgress struct {
	Seq       int64      `json:"seq"`
	BatchID   string     `json:"batch_id"`
	FileName  string     `json:"file_name"`
	Phase     BatchPhase `json:"phase"`
	Percent   int        `json:"percent"`
	TotalRows int        `json:"total_rows"`
	ValidRows int        `json:"valid_rows"`
	Invalid   int        `json:"invalid_rows"`
	Submitted int        `json:"submitted"`
	Error     string     `json:"error,omitempty"` // set for failed and cancelled
}

// BatchResult is the final report of a batch.
type BatchResult struct {
	BatchID          string        `json:"batch_id"`
	FileName         string        `json:"file_name"`
	Phase            BatchPhase    `json:"phase"`
	TotalRows        int           `json:"total_rows"`
	ValidRows        int           `json:"valid_rows"`
	InvalidRows      int           `json:"invalid_rows"`
	ValidationErrors []string      `json:"validation_errors"`
	Outcome          UploadOutcome `json:"outcome"`
	ArchiveLocation  string        `json:"archive_location,omitempty"`
	Duration         time.Duration `json:"duration"`
	Error            string        `json:"error,omitempty"`
}

// BatchSummary is the persisted history record of a finished batch.
type BatchSummary struct {
	ID              string     `json:"id"`
	FileName        string     `json:"file_name"`
	SubmittedBy     string     `json:"submitted_by,omitempty"`
	IPAddress       string     `json:"ip_address,omitempty"`
	Phase           BatchPhase `json:"phase"`
	TotalRows       int        `json:"total_rows"`
	ValidRows       int        `json:"valid_rows"`
	InvalidRows     int        `json:"invalid_rows"`
	Succeeded       int        `json:"succeeded"`
	Failed          int        `json:"failed"`
	Errors          []string   `json:"errors"`
	ArchiveLocation string     `json:"archive_location,omitempty"`
	Error           string     `json:"error,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      time.Time  `json:"finished_at"`
}
