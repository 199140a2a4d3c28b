package core

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Free-text LLM output is coerced into structured data with a
// strict-then-lenient-then-default cascade. Every helper here is total:
// it never raises past its caller, it returns best-effort data.

var urlPattern = regexp.MustCompile(`https?://[^\s)\]}"']+`)

// extractJSONObject returns the first balanced {...} block in s.
func extractJSONObject(s string) (string, bool) {
	return extractBalanced(s, '{', '}')
}

// extractJSONArray returns the first balanced [...] block in s.
func extractJSONArray(s string) (string, bool) {
	return extractBalanced(s, '[', ']')
}

func extractBalanced(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
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
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// extractStringList parses a JSON array of strings from anywhere in s.
func extractStringList(s string) ([]string, bool) {
	block, ok := extractJSONArray(s)
	if !ok {
		return nil, false
	}
	var raw []any
	if err := json.Unmarshal([]byte(block), &raw); err != nil {
		return nil, false
	}
	var out []string
	for _, v := range raw {
		if str, ok := v.(string); ok {
			if str = strings.TrimSpace(str); str != "" {
				out = append(out, str)
			}
		}
	}
	return out, len(out) > 0
}

// extractURLs pulls every http(s) URL out of free text, deduplicated in
// first-seen order.
func extractURLs(s string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, u := range urlPattern.FindAllString(s, -1) {
		u = strings.TrimRight(u, ".,;")
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// stripFences removes markdown code fences wrapping an LLM response.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// isStructuralLine reports whether a line carries no content of its own.
func isStructuralLine(line string) bool {
	switch line {
	case "[", "]", "{", "}", "```", "```json", ",":
		return true
	}
	return false
}

// cleanIdeaLine strips quoting and list punctuation from one response line.
func cleanIdeaLine(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimSuffix(line, ",")
	line = strings.Trim(line, `"'`)
	return strings.TrimSpace(line)
}
