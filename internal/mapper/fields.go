// Package mapper converts generic agent records into the dashboard's typed
// records. Every function here is total: missing or mistyped fields become
// empty strings, zeros and empty lists.
package mapper

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// fields looks up values by key, ignoring case and '_', '-' and ' ' so that
// total_study_hours, totalStudyHours and TotalStudyHours all match.
type fields struct {
	m     map[string]any
	canon map[string]string
}

func newFields(m map[string]any) fields {
	f := fields{m: m, canon: make(map[string]string, len(m))}
	for k := range m {
		c := canonical(k)
		// map order is random; keep the choice stable when variants collide
		if prev, ok := f.canon[c]; !ok || k < prev {
			f.canon[c] = k
		}
	}
	return f
}

func canonical(k string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', ' ':
			return -1
		}
		return r
	}, strings.ToLower(k))
}

func (f fields) get(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := f.m[k]; ok && v != nil {
			return v, true
		}
		if orig, ok := f.canon[canonical(k)]; ok && f.m[orig] != nil {
			return f.m[orig], true
		}
	}
	return nil, false
}

func (f fields) str(keys ...string) string {
	v, _ := f.get(keys...)
	return text(v)
}

func (f fields) num(keys ...string) float64 {
	v, _ := f.get(keys...)
	return number(v)
}

func (f fields) integer(keys ...string) int {
	n := f.num(keys...)
	if math.IsNaN(n) || math.IsInf(n, 0) || n > math.MaxInt32 || n < math.MinInt32 {
		return 0
	}
	return int(math.Round(n))
}

// strs accepts a list (non-text elements are stringified, empty ones
// dropped) or a single string.
func (f fields) strs(keys ...string) []string {
	out := []string{}
	v, _ := f.get(keys...)
	switch t := v.(type) {
	case []any:
		for _, e := range t {
			if s := text(e); s != "" {
				out = append(out, s)
			}
		}
	case string:
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// objects returns the object elements of a list field; anything else in the
// list is skipped.
func (f fields) objects(keys ...string) []fields {
	v, _ := f.get(keys...)
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]fields, 0, len(list))
	for _, e := range list {
		if obj, ok := e.(map[string]any); ok {
			out = append(out, newFields(obj))
		}
	}
	return out
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s := text(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}

func number(v any) float64 {
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case float32:
		n = float64(t)
	case int:
		n = float64(t)
	case int64:
		n = float64(t)
	case json.Number:
		n, _ = t.Float64()
	case string:
		s := strings.TrimSuffix(strings.TrimSpace(t), "%")
		n, _ = strconv.ParseFloat(strings.TrimSpace(s), 64)
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}
