package scheduler

import (
	"context"
	"sync"

	"github.com/MrSnakeDoc/duewatch/internal/logger"
	"github.com/MrSnakeDoc/duewatch/internal/monitor"
)

// Runner is what the scheduler drives.
type Runner interface {
	Run(ctx context.Context, opts monitor.RunOptions) (*monitor.Report, error)
}

// RunScheduler serializes triggered runs on a single goroutine. It never
// starts a run on its own; external cron or the HTTP surface decide when.
type RunScheduler struct {
	runner   Runner
	logger   logger.Logger
	trigger  chan monitor.RunOptions
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	cancel   context.CancelFunc
}

// NewRunScheduler creates a scheduler.
func NewRunScheduler(runner Runner, log logger.Logger) *RunScheduler {
	return &RunScheduler{
		runner:  runner,
		logger:  log,
		trigger: make(chan monitor.RunOptions, 1),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Trigger queues a run. It reports false when a run is already queued,
// so callers can answer "busy" instead of blocking.
func (s *RunScheduler) Trigger(opts monitor.RunOptions) bool {
	select {
	case s.trigger <- opts:
		return true
	default:
		return false
	}
}

// Start launches the loop that executes queued runs.
func (s *RunScheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	go func() {
		defer close(s.done)

		for {
			select {
			case opts := <-s.trigger:
				s.logger.Info("queued run starting",
					logger.Bool("send_all", opts.SendAll))
				s.run(ctx, opts)
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop cancels the run in flight, if any, and waits for the loop to exit.
func (s *RunScheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if s.cancel != nil {
			s.cancel()
		}
	})
	if s.cancel != nil {
		<-s.done
	}
}

func (s *RunScheduler) run(ctx context.Context, opts monitor.RunOptions) {
	if _, err := s.runner.Run(ctx, opts); err != nil {
		s.logger.Error("queued run failed", logger.Error(err))
	}
}
