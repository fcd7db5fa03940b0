package types

import (
	"strconv"
	"strings"
)

// EntityString pulls a string entity out of a plan's entity map,
// stringifying numeric values (order numbers often arrive as JSON numbers).
func EntityString(entities map[string]any, key string) (string, bool) {
	v, ok := entities[key]
	if !ok || v == nil {
		return "", false
	}
	switch s := v.(type) {
	case string:
		if s == "" {
			return "", false
		}
		return s, true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case int:
		return strconv.Itoa(s), true
	default:
		return "", false
	}
}

// EntityFloat pulls a numeric entity out of a plan's entity map, accepting
// numeric strings (the extractor occasionally quotes prices).
func EntityFloat(entities map[string]any, key string) (float64, bool) {
	v, ok := entities[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimPrefix(n, "$"), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
