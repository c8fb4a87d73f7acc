package sources

import (
	"encoding/json"
	"io"
	"net/http"
)

// maxResponseBytes bounds how much of an upstream response gets buffered.
const maxResponseBytes = 8 << 20

// readBody drains an HTTP response body up to maxResponseBytes.
func readBody(resp *http.Response) ([]byte, error) {
	return io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
}

// decodeFieldBag parses a JSON object into an open field bag. The portal
// endpoints return flat objects whose values mix numbers, strings and "-"
// placeholders; a nil or non-object payload yields an empty bag.
func decodeFieldBag(raw json.RawMessage) map[string]any {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	return fields
}

// fieldFloat reads a numeric field from a bag, treating strings, placeholders
// and missing keys as absent (zero).
func fieldFloat(fields map[string]any, key string) float64 {
	switch v := fields[key].(type) {
	case float64:
		return v
	case string:
		return SafeFloat(v)
	default:
		return 0
	}
}

// fieldString reads a string field from a bag, returning "" when absent or
// non-string.
func fieldString(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}
