// Package rawpath resolves dotted paths inside decoded JSON payloads.
package rawpath

import (
	"strconv"
	"strings"
)

// Lookup walks raw following a dotted path such as "response.0.league".
// Map segments are keys, list segments are indices. The boolean is false
// when any segment is absent. An empty path returns raw itself.
func Lookup(raw any, path string) (any, bool) {
	if path == "" {
		return raw, true
	}
	cur := raw
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Present is like Lookup but also treats JSON null as absent.
func Present(raw any, path string) (any, bool) {
	v, ok := Lookup(raw, path)
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Kind names the JSON kind of v for diagnostics.
func Kind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "list"
	case string:
		return "string"
	case bool:
		return "bool"
	default:
		return "number"
	}
}
