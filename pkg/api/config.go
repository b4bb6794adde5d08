package api

import (
	"encoding/json"
	"maps"
)

// ResolveConfig returns the configuration to record for a call. Explicit
// overrides are recorded verbatim. Without overrides, the parameters the
// vendor reported are used. With neither, the result is nil.
func ResolveConfig(overrides, reported map[string]any) map[string]any {
	switch {
	case len(overrides) > 0:
		return maps.Clone(overrides)
	case len(reported) > 0:
		return maps.Clone(reported)
	default:
		return nil
	}
}

// SamplingParams extracts temperature and top_p from a resolved
// configuration when they are numeric.
func SamplingParams(cfg map[string]any) (temperature, topP *float64) {
	return number(cfg["temperature"]), number(cfg["top_p"])
}

func number(v any) *float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	return &f
}
