package provider

import (
	"log/slog"
	"strings"
)

// EnsureQuotes returns s wrapped in double quotes, adding only the quote
// characters that are missing. A lone `"` counts as an opening quote.
func EnsureQuotes(s string) string {
	open := strings.HasPrefix(s, `"`)
	closed := len(s) >= 2 && strings.HasSuffix(s, `"`)
	if !open {
		s = `"` + s
	}
	if !closed {
		s += `"`
	}
	return s
}

// StripQuotes removes one pair of surrounding double quotes. Values that
// aren't fully quoted are returned as-is.
func StripQuotes(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	slog.Default().Warn("txt value not quoted, returning unchanged", "value", s)
	return s
}
