package diagram

import (
	"html"
	"regexp"
	"strings"
)

var (
	lineBreakRe  = regexp.MustCompile(`(?i)<br\s*/?>|\\n`)
	markupTagRe  = regexp.MustCompile(`<[^<>]*>`)
	entityCodeRe = regexp.MustCompile(`#(quot|amp|lt|gt|nbsp|\d+);`)
	iconRe       = regexp.MustCompile(`\bfa[bsr]?:fa-[\w-]+`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

// maxSanitizePasses bounds the fixpoint loop. Every pass either shrinks the
// label or leaves it unchanged, so the bound is never reached in practice.
const maxSanitizePasses = 8

// SanitizeLabel turns raw bracket contents into display text.
//
// Line-break markers (<br>, <br/>, literal \n) become spaces; markup tags,
// font-awesome icon tokens, markdown backticks and bold markers are removed;
// entity codes in both HTML (&amp;) and notation (#amp;) form are decoded;
// a matching pair of wrapping quotes is stripped; whitespace runs collapse
// to one space.
//
// The transformation is applied until it reaches a fixpoint, which makes
// SanitizeLabel idempotent for any label that does not nest more than
// maxSanitizePasses levels of entity encoding.
func SanitizeLabel(s string) string {
	for range maxSanitizePasses {
		next := sanitizeOnce(s)
		if next == s {
			return next
		}
		s = next
	}
	return s
}

func sanitizeOnce(s string) string {
	s = lineBreakRe.ReplaceAllString(s, " ")
	s = entityCodeRe.ReplaceAllStringFunc(s, decodeEntityCode)
	s = html.UnescapeString(s)
	s = lineBreakRe.ReplaceAllString(s, " ")
	s = markupTagRe.ReplaceAllString(s, "")
	s = iconRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "`", "")
	s = spaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	return strings.TrimSpace(unquote(s))
}

// unquote removes one pair of matching quotes wrapping the whole label.
func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// decodeEntityCode rewrites the notation's "#name;" and "#35;" entity forms to
// their HTML equivalents so html.UnescapeString can decode them.
func decodeEntityCode(m string) string {
	if m[1] >= '0' && m[1] <= '9' {
		return "&#" + m[1:]
	}
	return "&" + m[1:]
}
