package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/duewatch/internal/index"
	"github.com/MrSnakeDoc/duewatch/internal/logger"
	"github.com/MrSnakeDoc/duewatch/internal/monitor"
	"github.com/MrSnakeDoc/duewatch/internal/trigger"
)

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time   // for testing, defaults to time.Now
	AllowedHosts []string           // Host headers allowed to access the server
	AllowedCIDRS []string           // IPs allowed to access the API and probes
	TrustProxy   bool               // true if running behind a trusted reverse proxy (e.g., cloudflared)
	MemoryIndex  *index.MemoryIndex // latest extraction and run summary

	SnapshotBackend string                                       // name reported by /api/status
	SnapshotPing    func(ctx context.Context) error              // nil when the backend has nothing to ping
	SnapshotSavedAt func(ctx context.Context) (time.Time, error) // optional, zero time when never saved
	RunStats        func(ctx context.Context) (map[string]int64, error)

	RunTrigger func(opts monitor.RunOptions) bool // queues a run, false when one is already queued

	// Dispatch starts the remote workflow. Nil when dispatch is not configured.
	Dispatch func(ctx context.Context, inputs trigger.Inputs) error
}

// Now returns the current time through TimeNow when set.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
