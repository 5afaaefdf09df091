package schema

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// IntParam reads a numeric parameter. Rules arrive from JSON, YAML and
// database columns, so float64, json.Number and integer kinds are accepted.
// Non-integral floats are truncated.
func (r PolicyRule) IntParam(key string) (int, bool) {
	v, ok := r.Parameters[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if f, err := n.Float64(); err == nil {
			return int(f), true
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i, true
		}
	}
	return 0, false
}

// StringParam reads a string parameter.
func (r PolicyRule) StringParam(key string) (string, bool) {
	v, ok := r.Parameters[key].(string)
	return v, ok
}

// StringsParam reads a parameter that may be a single string or a list.
func (r PolicyRule) StringsParam(key string) []string {
	switch v := r.Parameters[key].(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// CloneParameters returns a shallow copy of the rule's parameter map.
func (r PolicyRule) CloneParameters() map[string]any {
	out := make(map[string]any, len(r.Parameters))
	for k, v := range r.Parameters {
		out[k] = v
	}
	return out
}
