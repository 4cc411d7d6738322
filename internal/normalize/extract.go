package normalize

import (
	"encoding/json"
	"sort"
	"strings"
)

// Extract finds the first balanced {...} or [...] span in text that parses
// as JSON and returns the decoded value. Surrounding markdown fences are
// stripped first. Spans that do not parse are skipped.
func Extract(text string) (any, bool) {
	s := stripFences(text)

	// decoding is bounded by a multiple of the input size so nested spans
	// that all fail cannot add up to quadratic work
	budget := decodeBudgetFactor*len(s) + decodeBudgetSlack
	for _, sp := range balancedSpans(s) {
		n := sp.end + 1 - sp.start
		if budget -= 3 * n; budget < 0 {
			break
		}
		if v, ok := decode(s[sp.start : sp.end+1]); ok {
			return v, true
		}
	}
	return nil, false
}

const (
	decodeBudgetFactor = 8
	decodeBudgetSlack  = 1 << 16
)

type span struct {
	start, end int
}

// balancedSpans returns every balanced bracket span of s, ordered by start
// offset, in one pass. Quotes only open strings inside a span, so prose
// apostrophes and quotes never hide the JSON after them. A mismatched closer
// abandons every open span.
func balancedSpans(s string) []span {
	var (
		spans    []span
		openers  []int
		inString bool
		escaped  bool
	)

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = len(openers) > 0
		case '{', '[':
			openers = append(openers, i)
		case '}', ']':
			if len(openers) == 0 {
				continue
			}
			top := openers[len(openers)-1]
			if closerFor(s[top]) != c {
				openers = openers[:0]
				continue
			}
			openers = openers[:len(openers)-1]
			spans = append(spans, span{start: top, end: i})
		}
	}

	// spans close inner-first; callers want outer-first
	sort.Slice(spans, func(a, b int) bool { return spans[a].start < spans[b].start })
	return spans
}

func closerFor(open byte) byte {
	if open == '{' {
		return '}'
	}
	return ']'
}

// stripFences removes a leading ``` / ```json line and a trailing ``` when
// the whole text is fenced. Fences inside prose are left to the span scan.
func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func decode(span string) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(span), &v); err == nil {
		return v, true
	}
	repaired := dropTrailingCommas(span)
	if repaired == span {
		return nil, false
	}
	if err := json.Unmarshal([]byte(repaired), &v); err != nil {
		return nil, false
	}
	return v, true
}

// dropTrailingCommas removes commas directly followed (modulo whitespace) by
// a closing bracket, a common quirk of model-written JSON.
func dropTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			b.WriteByte(c)
			continue
		}
		if c == '"' {
			inString = true
		}
		if c == ',' {
			j := i + 1
			for j < len(s) && strings.IndexByte(" \t\r\n", s[j]) >= 0 {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}
