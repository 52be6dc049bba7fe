package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/duewatch/internal/domain"
)

const (
	DefaultPause     = time.Second
	DefaultAttempts  = 3
	DefaultRetryWait = 2 * time.Second
	maxRetryWait     = 30 * time.Second
)

// DeliverOptions controls a chunked delivery.
type DeliverOptions struct {
	Pause     time.Duration // between two chunks, never after the last one
	Attempts  int           // per chunk, including the first try
	RetryWait time.Duration // first wait after a failure, doubles up to 30s
	Markdown  bool
}

func (o DeliverOptions) withDefaults() DeliverOptions {
	if o.Pause < 0 {
		o.Pause = 0
	}
	if o.Attempts < 1 {
		o.Attempts = DefaultAttempts
	}
	if o.RetryWait <= 0 {
		o.RetryWait = DefaultRetryWait
	}
	return o
}

// Deliver sends chunks in order. Chunk N+1 is only attempted once chunk N
// went through; the first chunk that still fails after all attempts stops
// the delivery with a *domain.DeliveryError.
func Deliver(ctx context.Context, sink Sink, destination string, chunks []string, opts DeliverOptions) error {
	opts = opts.withDefaults()
	send := SendOptions{Markdown: opts.Markdown}

	for i, chunk := range chunks {
		if i > 0 && opts.Pause > 0 {
			if err := sleep(ctx, opts.Pause); err != nil {
				return deliveryError(destination, i, len(chunks), err)
			}
		}
		if err := sendWithRetry(ctx, sink, destination, chunk, send, opts); err != nil {
			return deliveryError(destination, i, len(chunks), err)
		}
	}
	return nil
}

func sendWithRetry(ctx context.Context, sink Sink, destination, text string, send SendOptions, opts DeliverOptions) error {
	wait := opts.RetryWait
	var err error
	for attempt := 1; attempt <= opts.Attempts; attempt++ {
		if err = sink.Send(ctx, destination, text, send); err == nil {
			return nil
		}
		if attempt == opts.Attempts {
			break
		}
		if sleepErr := sleep(ctx, wait); sleepErr != nil {
			return fmt.Errorf("%w (gave up after attempt %d: %v)", sleepErr, attempt, err)
		}
		wait *= 2
		if wait > maxRetryWait {
			wait = maxRetryWait
		}
	}
	return fmt.Errorf("after %d attempts: %w", opts.Attempts, err)
}

func deliveryError(destination string, index, total int, err error) error {
	chunk := 0
	if total > 1 {
		chunk = index + 1
	}
	return &domain.DeliveryError{Destination: destination, Chunk: chunk, Err: err}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
