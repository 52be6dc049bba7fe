package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// MarshalSnapshot encodes activities as the persisted snapshot: a JSON array
// of activity objects. A nil slice is written as an empty array.
func MarshalSnapshot(activities []Activity) ([]byte, error) {
	if activities == nil {
		activities = []Activity{}
	}
	data, err := json.Marshal(activities)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

// UnmarshalSnapshot decodes a persisted snapshot read from location.
// Content that is present but not a JSON array of activities, including an
// empty blob, yields a *SnapshotCorruptError.
func UnmarshalSnapshot(location string, data []byte) ([]Activity, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &SnapshotCorruptError{Location: location, Err: errors.New("empty content")}
	}

	var activities []Activity
	if err := json.Unmarshal(data, &activities); err != nil {
		return nil, &SnapshotCorruptError{Location: location, Err: err}
	}
	if activities == nil {
		activities = []Activity{}
	}
	return activities, nil
}
