package store

import "encoding/json"

// Persisted rows may carry string-encoded nested JSON written by older
// clients. These helpers parse it at the ingestion boundary and degrade to
// the declared fallback on malformed input — a bad value renders as empty,
// it never errors out of a fetch.

// ParseObject decodes a JSON object from raw. Non-object or malformed input
// returns an empty map.
func ParseObject(raw string) map[string]any {
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil || out == nil {
		return map[string]any{}
	}
	return out
}

// ParseArray decodes a JSON array from raw. Non-array or malformed input
// returns an empty slice.
func ParseArray(raw string) []any {
	var out []any
	if err := json.Unmarshal([]byte(raw), &out); err != nil || out == nil {
		return []any{}
	}
	return out
}

// NormalizeRow walks a decoded row and replaces string values that look like
// encoded JSON objects/arrays with their parsed form. Values that do not
// parse are left as the raw string.
func NormalizeRow(row map[string]any) map[string]any {
	for k, v := range row {
		s, ok := v.(string)
		if !ok || len(s) < 2 {
			continue
		}
		switch s[0] {
		case '{':
			var obj map[string]any
			if err := json.Unmarshal([]byte(s), &obj); err == nil {
				row[k] = obj
			}
		case '[':
			var arr []any
			if err := json.Unmarshal([]byte(s), &arr); err == nil {
				row[k] = arr
			}
		}
	}
	return row
}
