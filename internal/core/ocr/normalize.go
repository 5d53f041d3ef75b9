package ocr

import (
	"regexp"
	"strings"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
)

var (
	reBoxNoise  = regexp.MustCompile(`(?m)^\s*[_\-=~]{3,}\s*$`)
	reTokenRule = regexp.MustCompile(`^[_\-=~.]{3,}$`)
)

// Normalize collapses noisy whitespace in full-page text.
// Conservative: keeps line breaks; collapses >2 newlines into a single blank line.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = reBoxNoise.ReplaceAllString(s, "")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// NormalizeToken cleans a single recognized word. Ruling lines and
// whitespace-only spans come back empty and are dropped by the caller.
func NormalizeToken(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '‘', '’':
			return '\''
		case '“', '”':
			return '"'
		case '–', '—':
			return '-'
		case '\u00a0':
			return ' '
		}
		return r
	}, s)
	if reTokenRule.MatchString(s) {
		return ""
	}
	return strings.TrimSpace(s)
}
