package index

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/duewatch/internal/domain"
)

// RunSummary describes the outcome of the last run, as exposed by the
// HTTP surface.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Extracted  int       `json:"extracted"`
	New        int       `json:"new"`
	Notified   bool      `json:"notified"`
	Error      string    `json:"error,omitempty"`
}

// MemoryIndex holds the latest extraction in memory. It doubles as the
// "memory" snapshot backend: Save replaces the activities, Load returns them.
type MemoryIndex struct {
	mu         sync.RWMutex
	activities []domain.Activity          // extraction order
	byID       map[string]domain.Activity // ID -> Activity
	lastUpdate time.Time
	lastRun    *RunSummary
}

// NewMemoryIndex creates an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		byID: make(map[string]domain.Activity),
	}
}

// Update replaces all activities in the index.
func (idx *MemoryIndex) Update(activities []domain.Activity) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.activities = append([]domain.Activity(nil), activities...)
	idx.byID = make(map[string]domain.Activity, len(activities))
	for _, a := range activities {
		if _, ok := idx.byID[a.ID]; !ok {
			idx.byID[a.ID] = a
		}
	}
	idx.lastUpdate = time.Now()
}

// Get retrieves an activity by ID. With duplicate ids the first one wins.
func (idx *MemoryIndex) Get(id string) (domain.Activity, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	a, ok := idx.byID[id]
	return a, ok
}

// All returns a copy of the activities in extraction order.
func (idx *MemoryIndex) All() []domain.Activity {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]domain.Activity, len(idx.activities))
	copy(out, idx.activities)
	return out
}

// Count returns the number of activities in the index.
func (idx *MemoryIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.activities)
}

// LastUpdate returns the time of the last Update, zero if none.
func (idx *MemoryIndex) LastUpdate() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastUpdate
}

// SetLastRun records the outcome of a run.
func (idx *MemoryIndex) SetLastRun(summary RunSummary) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.lastRun = &summary
}

// LastRun returns the last recorded run, if any.
func (idx *MemoryIndex) LastRun() (RunSummary, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.lastRun == nil {
		return RunSummary{}, false
	}
	return *idx.lastRun, true
}

// Load returns the indexed activities. An index that was never updated is
// an empty snapshot.
func (idx *MemoryIndex) Load(_ context.Context) ([]domain.Activity, error) {
	return idx.All(), nil
}

// Save replaces the indexed activities.
func (idx *MemoryIndex) Save(_ context.Context, activities []domain.Activity) error {
	idx.Update(activities)
	return nil
}
