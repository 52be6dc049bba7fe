package notify

import "context"

// SendOptions tunes a single message.
type SendOptions struct {
	// Markdown asks the transport to render the lightweight markup produced
	// by the formatter.
	Markdown bool
}

// Sink delivers one text block to a destination. Implementations may fail
// transiently; Deliver takes care of retries.
type Sink interface {
	Send(ctx context.Context, destination, text string, opts SendOptions) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, destination, text string, opts SendOptions) error

func (f SinkFunc) Send(ctx context.Context, destination, text string, opts SendOptions) error {
	return f(ctx, destination, text, opts)
}
