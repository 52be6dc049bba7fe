package notify

import (
	"context"

	"github.com/MrSnakeDoc/duewatch/internal/logger"
)

// LogSink writes messages to the log instead of delivering them.
// Used for dry runs.
type LogSink struct {
	log logger.Logger
}

func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Send(_ context.Context, destination, text string, opts SendOptions) error {
	s.log.Info("dry run: message not sent",
		logger.String("destination", destination),
		logger.Bool("markdown", opts.Markdown),
		logger.String("text", text))
	return nil
}
