package utils

import (
	"io"

	"github.com/MrSnakeDoc/duewatch/internal/logger"
)

// MustClose closes c and logs any error under what.
// Use for defer statements where we want to track close errors.
func MustClose(c io.Closer, what string, log logger.Logger) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close "+what, logger.Error(err))
	}
}
