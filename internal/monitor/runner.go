package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/duewatch/internal/domain"
	"github.com/MrSnakeDoc/duewatch/internal/format"
	"github.com/MrSnakeDoc/duewatch/internal/index"
	"github.com/MrSnakeDoc/duewatch/internal/logger"
	"github.com/MrSnakeDoc/duewatch/internal/notify"
	"github.com/MrSnakeDoc/duewatch/internal/observability"
	"github.com/MrSnakeDoc/duewatch/internal/sources/portal"
	"github.com/MrSnakeDoc/duewatch/internal/store"
)

// RowSource yields the raw rows of the activity table: a live browser
// session or a saved page.
type RowSource interface {
	FetchRows(ctx context.Context) ([]portal.RawRow, error)
}

// RunRecorder keeps run outcome counters outside the process.
type RunRecorder interface {
	RecordRun(ctx context.Context, outcome string) error
}

// Deps are the collaborators of a Runner. Index and Recorder are optional.
type Deps struct {
	Source      RowSource
	Extractor   *portal.Extractor
	Store       store.SnapshotStore
	Formatter   *format.Formatter
	Sink        notify.Sink
	Delivery    notify.DeliverOptions
	Destination string // default destination
	Index       *index.MemoryIndex
	Recorder    RunRecorder
	Logger      logger.Logger
}

// Runner performs one extraction-to-notification pass. It is not safe for
// concurrent use; callers serialize runs.
type Runner struct {
	deps  Deps
	now   func() time.Time
	newID func() string
}

// NewRunner creates a runner.
func NewRunner(d Deps) *Runner {
	if d.Extractor == nil {
		d.Extractor = portal.NewExtractor(nil)
	}
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	return &Runner{
		deps:  d,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Run extracts the activities, compares them with the snapshot, announces
// what needs announcing and saves the new snapshot.
//
// The snapshot is saved whenever extraction succeeded, even if nothing was
// new or delivery failed. On any error a single failure notice is attempted
// before returning; its outcome is recorded in the report only.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*Report, error) {
	report := &Report{
		RunID:       r.newID(),
		StartedAt:   r.now(),
		Destination: opts.Destination,
		SendAll:     opts.SendAll,
	}
	if report.Destination == "" {
		report.Destination = r.deps.Destination
	}
	log := r.deps.Logger.With(logger.String("run_id", report.RunID))
	log.Info("run started",
		logger.Bool("send_all", opts.SendAll),
		logger.String("destination", report.Destination))

	err := r.run(ctx, log, opts, report)
	if err != nil {
		report.FailureNotice = r.notifyFailure(ctx, log, report.Destination, err)
	}
	r.finish(ctx, log, report, err)
	return report, err
}

func (r *Runner) run(ctx context.Context, log logger.Logger, opts RunOptions, report *Report) error {
	rows, err := r.deps.Source.FetchRows(ctx)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	current := r.deps.Extractor.Extract(rows)
	domain.AssignIDs(current)
	report.Extracted = len(current)
	log.Info("activities extracted",
		logger.Int("rows", len(rows)),
		logger.Int("activities", len(current)))

	var (
		message string
		send    bool
	)
	if opts.SendAll {
		message, send = r.deps.Formatter.Listing(current, r.now()), true
	} else {
		previous, err := r.deps.Store.Load(ctx)
		if err != nil {
			return fmt.Errorf("failed to load snapshot: %w", err)
		}
		report.New = domain.Diff(current, previous)
		log.Info("snapshot compared",
			logger.Int("previous", len(previous)),
			logger.Int("new", len(report.New)))
		message, send = r.deps.Formatter.Format(report.New)
	}

	if send {
		report.DeliveryErr = r.deliver(ctx, log, report, message)
	} else {
		log.Info("no new activities, nothing to send")
	}

	if err := r.deps.Store.Save(ctx, current); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	report.SnapshotSaved = true
	if r.deps.Index != nil {
		r.deps.Index.Update(current)
	}
	observability.RecordExtraction(len(current), len(report.New))

	return report.DeliveryErr
}

func (r *Runner) deliver(ctx context.Context, log logger.Logger, report *Report, message string) error {
	chunks := r.deps.Formatter.Chunks(message)
	opts := r.deps.Delivery
	opts.Markdown = len(chunks) == 1
	if !opts.Markdown {
		// a cut can land inside a bold span, so split messages go out unformatted
		chunks = r.deps.Formatter.PlainChunks(message)
	}

	err := notify.Deliver(ctx, r.deps.Sink, report.Destination, chunks, opts)

	sent := len(chunks)
	var deliveryErr *domain.DeliveryError
	if errors.As(err, &deliveryErr) {
		sent = max(deliveryErr.Chunk-1, 0)
	}
	report.Chunks = sent
	observability.RecordChunksSent(sent)

	if err != nil {
		log.Error("delivery failed", logger.Int("chunks", len(chunks)), logger.Error(err))
		return err
	}
	report.Notified = true
	log.Info("notification sent", logger.Int("chunks", len(chunks)))
	return nil
}

// notifyFailure makes one attempt to tell the destination the run failed.
func (r *Runner) notifyFailure(ctx context.Context, log logger.Logger, destination string, cause error) NoticeOutcome {
	if r.deps.Sink == nil || destination == "" {
		return NoticeOutcome{}
	}

	text := r.deps.Formatter.Failure(cause, r.now())
	err := r.deps.Sink.Send(ctx, destination, text, notify.SendOptions{Markdown: true})
	if err != nil {
		log.Warn("failure notice could not be sent", logger.Error(err))
	}
	return NoticeOutcome{Attempted: true, Err: err}
}

func (r *Runner) finish(ctx context.Context, log logger.Logger, report *Report, err error) {
	report.FinishedAt = r.now()
	elapsed := report.FinishedAt.Sub(report.StartedAt)

	observability.RecordRun(err == nil, elapsed)
	if err == nil {
		observability.RecordSuccess(report.FinishedAt)
	}
	if r.deps.Index != nil {
		r.deps.Index.SetLastRun(report.Summary(err))
	}
	if r.deps.Recorder != nil {
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		if recErr := r.deps.Recorder.RecordRun(ctx, outcome); recErr != nil {
			log.Warn("failed to record run outcome", logger.Error(recErr))
		}
	}

	if err != nil {
		log.Error("run failed", logger.Duration("elapsed", elapsed), logger.Error(err))
		return
	}
	log.Info("run finished",
		logger.Duration("elapsed", elapsed),
		logger.Int("extracted", report.Extracted),
		logger.Int("new", len(report.New)),
		logger.Bool("notified", report.Notified))
}
