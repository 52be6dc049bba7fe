package redis

import (
	"context"
	"fmt"
	"strconv"
)

// RecordRun increments the counter of the given run outcome
// (e.g. "success", "failure").
func (s *Store) RecordRun(ctx context.Context, outcome string) error {
	if err := s.client.HIncrBy(ctx, RunStatsKey(s.namespace), outcome, 1).Err(); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// RunStats returns the run counters per outcome.
func (s *Store) RunStats(ctx context.Context) (map[string]int64, error) {
	raw, err := s.client.HGetAll(ctx, RunStatsKey(s.namespace)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get run stats: %w", err)
	}

	stats := make(map[string]int64, len(raw))
	for outcome, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid counter for %s: %w", outcome, err)
		}
		stats[outcome] = n
	}
	return stats, nil
}
