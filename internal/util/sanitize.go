package util

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	plainPolicy = bluemonday.StrictPolicy()
	richPolicy  = bluemonday.UGCPolicy()
)

// SanitizePlain strips all markup and returns unescaped text. Used for notes,
// titles and tags.
func SanitizePlain(s string) string {
	return strings.TrimSpace(html.UnescapeString(plainPolicy.Sanitize(s)))
}

// SanitizeRich keeps safe formatting markup. Used for descriptions.
func SanitizeRich(s string) string {
	return strings.TrimSpace(richPolicy.Sanitize(s))
}
