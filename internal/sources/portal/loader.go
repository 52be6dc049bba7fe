package portal

import (
	"context"
	"fmt"
	"os"
)

// FileLoader reads raw rows from a saved portal page instead of a live
// browser session. Useful to replay a page captured during an incident.
type FileLoader struct {
	filePath string
}

// NewFileLoader creates a loader for the given HTML file.
func NewFileLoader(filePath string) *FileLoader {
	return &FileLoader{
		filePath: filePath,
	}
}

// FetchRows reads and parses the HTML file.
func (l *FileLoader) FetchRows(_ context.Context) ([]RawRow, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read portal page: %w", err)
	}

	rows, err := ParseRows(string(data))
	if err != nil {
		return nil, err
	}
	return rows, nil
}
