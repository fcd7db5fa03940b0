package store

import (
	"encoding/json"
	"fmt"
)

// mergeRecord applies a partial field map onto a record via a JSON
// round-trip, mirroring how the documents themselves are serialized.
// The id field is restored verbatim after the merge.
func mergeRecord[T any](record T, id string, partial map[string]any) (T, error) {
	var zero T

	base, err := json.Marshal(record)
	if err != nil {
		return zero, fmt.Errorf("merge: marshal record: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(base, &fields); err != nil {
		return zero, fmt.Errorf("merge: decode record: %w", err)
	}

	for k, v := range partial {
		fields[k] = v
	}
	fields["id"] = id

	mergedJSON, err := json.Marshal(fields)
	if err != nil {
		return zero, fmt.Errorf("merge: encode fields: %w", err)
	}
	var merged T
	if err := json.Unmarshal(mergedJSON, &merged); err != nil {
		return zero, fmt.Errorf("merge: decode merged record: %w", err)
	}
	return merged, nil
}
