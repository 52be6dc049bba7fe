package redis

import "strings"

const (
	// DefaultNamespace prefixes every key written by the store.
	DefaultNamespace = "duewatch"

	keySnapshot  = "snapshot"
	keyUpdatedAt = "snapshot:updated_at"
	keyRunStats  = "runs:stats"
)

// SnapshotKey returns the key holding the JSON snapshot.
func SnapshotKey(namespace string) string {
	return join(namespace, keySnapshot)
}

// UpdatedAtKey returns the key holding the time of the last save.
func UpdatedAtKey(namespace string) string {
	return join(namespace, keyUpdatedAt)
}

// RunStatsKey returns the hash of run outcome counters.
func RunStatsKey(namespace string) string {
	return join(namespace, keyRunStats)
}

func join(namespace, key string) string {
	namespace = strings.TrimRight(namespace, ":")
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return namespace + ":" + key
}
