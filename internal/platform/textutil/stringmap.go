package textutil

import "strings"

// NormalizeMarkers trims marker keys and removes entries whose key ends up
// empty. Values are left untouched so password fields survive intact.
func NormalizeMarkers(values map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}
	result := make(map[string]string, len(values))
	for key, value := range values {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			continue
		}
		result[trimmedKey] = value
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

// FirstNonEmpty returns the first candidate that is non-blank after
// trimming, or the empty string.
func FirstNonEmpty(candidates ...string) string {
	for _, candidate := range candidates {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
