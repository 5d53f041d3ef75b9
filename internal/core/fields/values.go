package fields

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	reAmount = regexp.MustCompile(`[$€£]\s?\d+(?:,\d{3})*(?:\.\d{2})?|\b\d{1,3}(?:,\d{3})*\.\d{2}\b`)
	reEmail  = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	rePhone  = regexp.MustCompile(`\+?\d[\d\s().\-]{7,}\d`)
	reBullet = regexp.MustCompile(`^\s*(?:[-*•·]|\d+[.)])\s+`)
)

// ValidEmail reports whether s is a well-formed email address.
func ValidEmail(s string) bool {
	m := reEmail.FindString(s)
	return m != "" && m == strings.TrimSpace(s)
}

// ParseAmount converts a currency string such as "$1,020.00" to a float.
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$€£ ")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FindAmounts returns every currency amount in s in order of appearance.
func FindAmounts(s string) []float64 {
	var out []float64
	for _, m := range reAmount.FindAllString(s, -1) {
		if v, ok := ParseAmount(m); ok {
			out = append(out, v)
		}
	}
	return out
}

var monthLayouts = []string{
	"January 2006",
	"Jan 2006",
	"January, 2006",
	"2 January 2006",
	"January 2 2006",
}

// ParseDate parses free-form dates; month-year forms resolve to the first day.
func ParseDate(s string) (time.Time, bool) {
	s = strings.Trim(strings.TrimSpace(s), ",.;")
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range monthLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// stripBullet removes a leading list marker.
func stripBullet(s string) string {
	return strings.TrimSpace(reBullet.ReplaceAllString(s, ""))
}

// splitList splits a comma or semicolon separated value.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' }) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normWord lowercases a token and trims surrounding punctuation for label matching.
func normWord(s string) string {
	return strings.ToLower(strings.Trim(s, ":;,.()[]#\"'"))
}
