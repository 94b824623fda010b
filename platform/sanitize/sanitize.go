// Package sanitize provides text sanitization for values that leave the process:
// user-visible strings and log or error text that may carry provider secrets.
package sanitize

import (
	"regexp"
	"strings"
)

const snippetMax = 256

var (
	htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)
	apiKeyKVRe    = regexp.MustCompile(`(?i)"?\b(api[_-]?key|apikey|client[_-]?secret|client[_-]?token|access[_-]?token|token)\b"?\s*[:=]\s*"?[^\s"',}]+"?`)
)

// StripHTML removes all HTML tags from a string, making it safe for text-only display.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = strings.ReplaceAll(result, "&lt;", "<")
	result = strings.ReplaceAll(result, "&gt;", ">")
	result = strings.ReplaceAll(result, "&amp;", "&")
	result = strings.ReplaceAll(result, "&quot;", "\"")
	result = strings.ReplaceAll(result, "&#39;", "'")
	// Re-strip after entity decode to catch encoded tags
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text sanitizes provider-supplied text before it is stored or shown.
func Text(s string) string {
	return StripHTML(s)
}

// Secrets removes obvious secret-bearing substrings from error and log strings.
func Secrets(s string) string {
	if s == "" {
		return ""
	}
	out := bearerTokenRe.ReplaceAllString(s, "Bearer <redacted>")
	out = apiKeyKVRe.ReplaceAllString(out, "<redacted_kv>")
	return strings.TrimSpace(out)
}

// Snippet returns a redacted, single-line hint of at most 256 bytes of body.
func Snippet(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	b := body
	if len(b) > snippetMax {
		b = b[:snippetMax]
	}
	s := Secrets(string(b))
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(body) > snippetMax {
		return s + "..."
	}
	return s
}
