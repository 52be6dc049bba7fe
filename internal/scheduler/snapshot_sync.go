package scheduler

import (
	"context"

	"github.com/MrSnakeDoc/duewatch/internal/index"
	"github.com/MrSnakeDoc/duewatch/internal/logger"
	"github.com/MrSnakeDoc/duewatch/internal/store"
)

// SnapshotSyncer fills the memory index from the snapshot store on
// startup, so the HTTP surface has data before the first run.
type SnapshotSyncer struct {
	store  store.SnapshotStore
	index  *index.MemoryIndex
	logger logger.Logger
}

// NewSnapshotSyncer creates a syncer.
func NewSnapshotSyncer(
	s store.SnapshotStore,
	idx *index.MemoryIndex,
	log logger.Logger,
) *SnapshotSyncer {
	return &SnapshotSyncer{
		store:  s,
		index:  idx,
		logger: log,
	}
}

// Sync loads the snapshot and updates the memory index. When the store
// is the index itself there is nothing to do.
func (ss *SnapshotSyncer) Sync(ctx context.Context) error {
	if src, ok := ss.store.(*index.MemoryIndex); ok && src == ss.index {
		return nil
	}
	ss.logger.Info("syncing snapshot to memory index")

	activities, err := ss.store.Load(ctx)
	if err != nil {
		return err
	}

	if len(activities) == 0 {
		ss.logger.Info("no snapshot found, index starts empty")
		return nil
	}

	ss.index.Update(activities)

	ss.logger.Info("synced snapshot to memory index",
		logger.Int("count", len(activities)))

	return nil
}
