// Package sanitize strips user supplied text down to a small set of formatting tags.
//
// Allowed elements are b, i, u, em, strong, br, p, ul, ol and li, all without attributes.
// Any other tag is removed while its text is kept; the contents of script and style
// elements are dropped entirely. Text is HTML-escaped, so the output is safe to render
// unescaped and sanitizing it again yields the same string.
package sanitize

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// AllowedTags lists the elements that survive sanitizing.
var AllowedTags = []string{"b", "i", "u", "em", "strong", "br", "p", "ul", "ol", "li"}

var (
	policy = NewPolicy()
	strict = bluemonday.StrictPolicy()

	lineBreak = regexp.MustCompile(`(?i)<br\s*/?>|</p>|</li>`)
)

// NewPolicy builds the allow-list policy used by [Text].
// A [bluemonday.Policy] is safe for concurrent use once built.
func NewPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(AllowedTags...)
	return p
}

// Text sanitizes s with the package policy.
func Text(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}

// Field sanitizes s and trims surrounding whitespace, the form used for titles and lyrics.
func Field(s string) string {
	return strings.TrimSpace(Text(s))
}

// Plain reduces sanitized markup to plain text for terminal and file exports.
// Line breaks, paragraph ends and list items become newlines.
func Plain(s string) string {
	if s == "" {
		return ""
	}
	s = lineBreak.ReplaceAllString(s, "\n")
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
