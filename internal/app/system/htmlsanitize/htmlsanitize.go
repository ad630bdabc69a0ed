// Package htmlsanitize cleans user-authored rich text before storage and
// display.
//
// Collaboration and role descriptions accept a limited HTML vocabulary
// (formatting, lists, tables, links, images). Everything else, notably
// scripts, event handlers, iframes, and form elements, is stripped.
// Sanitization happens at write time in the handlers; the display helpers
// exist for callers that render stored content server-side.
package htmlsanitize

import (
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// policy is the shared sanitization policy. bluemonday policies are safe
// for concurrent use once constructed.
var policy = buildPolicy()

func buildPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	// UGCPolicy covers formatting, lists, tables, links, and images.
	// Descriptions additionally use these inline elements.
	p.AllowElements("u", "s", "sub", "sup", "mark")

	// Rich-text editors emit class and inline style on table markup for
	// alignment and sizing. Allowed only there.
	tableElements := []string{"table", "thead", "tbody", "tfoot", "tr", "th", "td", "caption"}
	p.AllowAttrs("class").OnElements(tableElements...)
	p.AllowAttrs("style").OnElements(tableElements...)

	return p
}

// Sanitize returns s with disallowed tags and attributes removed.
// Empty input returns empty output.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}

// SanitizeToHTML sanitizes s and returns it as template.HTML so templates
// render it without double-escaping.
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}

// IsPlainText reports whether s contains no HTML markup. A string needs
// both '<' and '>' to count as markup, so "5 < 10" stays plain text.
func IsPlainText(s string) bool {
	return !(strings.Contains(s, "<") && strings.Contains(s, ">"))
}

// PlainTextToHTML converts plain text to a minimal HTML rendering: the
// content is escaped, newlines become <br>, and the result is wrapped in
// a single paragraph. Empty input returns empty output.
func PlainTextToHTML(s string) string {
	if s == "" {
		return ""
	}
	escaped := html.EscapeString(s)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	escaped = strings.ReplaceAll(escaped, "\n", "<br>")
	return "<p>" + escaped + "</p>"
}

// PrepareForDisplay renders stored description content for display.
// Plain text is escaped and paragraph-wrapped; HTML content is sanitized.
func PrepareForDisplay(s string) template.HTML {
	if s == "" {
		return ""
	}
	if IsPlainText(s) {
		return template.HTML(PlainTextToHTML(s))
	}
	return SanitizeToHTML(s)
}
