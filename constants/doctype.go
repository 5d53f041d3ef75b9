package constants

import (
	"strings"
)

// DocumentType is the closed set of document kinds the pipeline understands.
// Adding a member requires a matching ruleset in internal/core/rulebook.
type DocumentType string

const (
	Invoice DocumentType = "Invoice"
	Resume  DocumentType = "Resume"
	Report  DocumentType = "Report"
	Unknown DocumentType = "Unknown"
)

var allDocumentTypes = []DocumentType{
	Invoice,
	Resume,
	Report,
	Unknown,
}

// SpecificDocumentTypes returns every type except Unknown, in declaration order.
func SpecificDocumentTypes() []DocumentType {
	return []DocumentType{Invoice, Resume, Report}
}

func AsStringSlice() []string {
	result := make([]string, len(allDocumentTypes))
	for i, dt := range allDocumentTypes {
		result[i] = string(dt)
	}
	return result
}

// IsSpecific reports whether t names a concrete document type.
func (t DocumentType) IsSpecific() bool {
	return t == Invoice || t == Resume || t == Report
}

// Rank orders types for deterministic tie-breaks; more specific types rank lower.
func (t DocumentType) Rank() int {
	for i, dt := range allDocumentTypes {
		if dt == t {
			return i
		}
	}
	return len(allDocumentTypes)
}

// ParseDocumentType maps free-form labels (and common synonyms) to a DocumentType.
func ParseDocumentType(input string) (DocumentType, bool) {
	if input == "" {
		return Unknown, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	synonyms := map[string]DocumentType{
		"bill":             Invoice,
		"receipt":          Invoice,
		"tax invoice":      Invoice,
		"cv":               Resume,
		"curriculum vitae": Resume,
		"résumé":           Resume,
		"paper":            Report,
		"whitepaper":       Report,
	}

	if dt, ok := synonyms[normalized]; ok {
		return dt, true
	}

	for _, dt := range allDocumentTypes {
		if normalized == strings.ToLower(string(dt)) {
			return dt, true
		}
	}

	return Unknown, false
}
