package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/duewatch/internal/domain"
)

// Store keeps the snapshot as a single JSON blob in Redis. The key has no
// TTL: a snapshot that expired would make every activity look new again.
type Store struct {
	client    *redis.Client
	namespace string
	now       func() time.Time
}

// NewStore creates a Redis snapshot store.
func NewStore(client *redis.Client, namespace string) *Store {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Store{
		client:    client,
		namespace: namespace,
		now:       time.Now,
	}
}

// Load returns the stored snapshot, or an empty slice when the key does
// not exist yet.
func (s *Store) Load(ctx context.Context) ([]domain.Activity, error) {
	key := SnapshotKey(s.namespace)
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []domain.Activity{}, nil
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	return domain.UnmarshalSnapshot("redis key "+key, data)
}

// Save replaces the snapshot and its timestamp in one MULTI/EXEC.
func (s *Store) Save(ctx context.Context, activities []domain.Activity) error {
	data, err := domain.MarshalSnapshot(activities)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, SnapshotKey(s.namespace), data, 0)
	pipe.Set(ctx, UpdatedAtKey(s.namespace), s.now().UTC().Format(time.RFC3339), 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// UpdatedAt returns when the snapshot was last saved. The zero time means
// no snapshot was ever saved.
func (s *Store) UpdatedAt(ctx context.Context) (time.Time, error) {
	raw, err := s.client.Get(ctx, UpdatedAtKey(s.namespace)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to get snapshot timestamp: %w", err)
	}

	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid snapshot timestamp %q: %w", raw, err)
	}
	return at, nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
