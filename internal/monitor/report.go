package monitor

import (
	"time"

	"github.com/MrSnakeDoc/duewatch/internal/domain"
	"github.com/MrSnakeDoc/duewatch/internal/index"
)

// RunOptions selects what a run announces and where.
type RunOptions struct {
	// SendAll announces the full extraction as a listing instead of the
	// new activities only.
	SendAll bool
	// Destination overrides the configured destination when set.
	Destination string
}

// NoticeOutcome records the best-effort failure notice. It never changes
// the error returned by the run.
type NoticeOutcome struct {
	Attempted bool
	Err       error
}

// Report describes what a run did, including when it failed.
type Report struct {
	RunID       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Destination string
	SendAll     bool

	Extracted int
	New       []domain.Activity // nil in send-all mode

	Chunks        int  // chunks handed to the sink
	Notified      bool // a message was fully delivered
	SnapshotSaved bool

	// DeliveryErr is set when the announcement could not be delivered.
	// The snapshot is still saved in that case.
	DeliveryErr error

	FailureNotice NoticeOutcome
}

// Summary converts the report for the in-memory index.
func (r *Report) Summary(err error) index.RunSummary {
	s := index.RunSummary{
		RunID:      r.RunID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Extracted:  r.Extracted,
		New:        len(r.New),
		Notified:   r.Notified,
	}
	if err != nil {
		s.Error = err.Error()
	}
	return s
}
