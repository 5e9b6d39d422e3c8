package security

import (
	"regexp"
	"strings"
)

var (
	angleBrackets  = regexp.MustCompile(`[<>]`)
	jsScheme       = regexp.MustCompile(`(?i)javascript:`)
	inlineHandlers = regexp.MustCompile(`(?i)\bon\w+\s*=`)
)

// SanitizeInput strips the obvious script-injection vectors from free-form
// input: angle brackets, the javascript: scheme and inline event-handler
// attributes, then trims whitespace.
//
// This is a denylist, not an HTML parser. It is not XSS-proof for every
// output context; rendering layers must still encode for their own context.
func SanitizeInput(s string) string {
	s = angleBrackets.ReplaceAllString(s, "")
	s = jsScheme.ReplaceAllString(s, "")
	s = inlineHandlers.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
