package utils

import (
	"fmt"
	"strings"
)

func UrlQuery(s string) string { return strings.ReplaceAll(s, " ", "+") }

func Str(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// Truncate cuts s to at most n runes, appending an ellipsis when shortened.
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n])) + "…"
}
