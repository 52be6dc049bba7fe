package store

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/duewatch/internal/domain"
	"github.com/MrSnakeDoc/duewatch/internal/index"
	"github.com/MrSnakeDoc/duewatch/internal/store/file"
	redisstore "github.com/MrSnakeDoc/duewatch/internal/store/redis"
)

// SnapshotStore persists the activities of the last successful extraction.
//
// Load returns an empty slice when nothing was saved yet. A snapshot that
// exists but cannot be decoded is reported as *domain.SnapshotCorruptError,
// never as an empty snapshot. Save replaces the previous snapshot wholesale.
type SnapshotStore interface {
	Load(ctx context.Context) ([]domain.Activity, error)
	Save(ctx context.Context, activities []domain.Activity) error
}

// Backend names.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Backend string

	FilePath string // file backend

	RedisClient    *goredis.Client // redis backend
	RedisNamespace string

	Index *index.MemoryIndex // memory backend
}

// New builds the snapshot store named by opts.Backend. An empty backend
// means BackendFile.
func New(opts Options) (SnapshotStore, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendFile:
		return file.NewStore(opts.FilePath), nil
	case BackendRedis:
		if opts.RedisClient == nil {
			return nil, fmt.Errorf("redis snapshot backend requires a redis client")
		}
		return redisstore.NewStore(opts.RedisClient, opts.RedisNamespace), nil
	case BackendMemory, "mem", "inmem":
		if opts.Index == nil {
			return index.NewMemoryIndex(), nil
		}
		return opts.Index, nil
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", opts.Backend)
	}
}
