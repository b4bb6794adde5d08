package provider

import (
	"encoding/json"
	"fmt"
)

// EncodeBody marshals a typed vendor request and merges overrides into
// its top-level object. Override keys replace whatever the adapter set.
func EncodeBody(v any, overrides map[string]any) ([]byte, error) {
	body, err := ToMap(v)
	if err != nil {
		return nil, err
	}
	MergeOverrides(body, overrides)
	return json.Marshal(body)
}

// ToMap converts a JSON-serializable value into a generic object.
func ToMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	m := make(map[string]any)
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("request is not a JSON object: %w", err)
	}
	return m, nil
}

// MergeOverrides copies every override into dst, replacing existing keys.
func MergeOverrides(dst map[string]any, overrides map[string]any) {
	for k, v := range overrides {
		dst[k] = v
	}
}
