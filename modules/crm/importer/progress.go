package importer

import (
	"context"
	"time"
)

// Progress is a point-in-time snapshot of a running import, for polling
// callers. Best-effort: losing a snapshot never affects the import itself.
type Progress struct {
	RunID         string    `json:"runId"`
	Phase         string    `json:"phase"` // normalizing, writing, attaching, done
	TotalRows     int       `json:"totalRows"`
	ProcessedRows int       `json:"processedRows"`
	Created       int       `json:"created"`
	Updated       int       `json:"updated"`
	Failed        int       `json:"failed"`
	Skipped       int       `json:"skipped"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

var ErrProgressNotFound = errProgressNotFound{}

type errProgressNotFound struct{}

func (errProgressNotFound) Error() string { return "import progress not found" }

type ProgressReporter interface {
	Publish(ctx context.Context, p Progress) error
	Fetch(ctx context.Context, runID string) (*Progress, error)
}

// NopProgressReporter is used when no progress backend is configured.
type NopProgressReporter struct{}

func (NopProgressReporter) Publish(context.Context, Progress) error {
	return nil
}

func (NopProgressReporter) Fetch(context.Context, string) (*Progress, error) {
	return nil, ErrProgressNotFound
}
