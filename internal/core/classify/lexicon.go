package classify

import (
	"strings"

	"github.com/joseph-ayodele/docsense/constants"
)

// Keyword is one weighted lexicon entry. Phrases are matched case-insensitively
// on word boundaries.
type Keyword struct {
	Type   constants.DocumentType `yaml:"type" json:"type"`
	Phrase string                 `yaml:"phrase" json:"phrase"`
	Weight float64                `yaml:"weight" json:"weight"`
}

// DefaultKeywords is the built-in lexicon.
func DefaultKeywords() []Keyword {
	return []Keyword{
		{constants.Invoice, "invoice", 3},
		{constants.Invoice, "bill to", 2},
		{constants.Invoice, "subtotal", 2},
		{constants.Invoice, "total amount", 1.5},
		{constants.Invoice, "amount due", 1.5},
		{constants.Invoice, "due date", 2},
		{constants.Invoice, "tax", 1},
		{constants.Invoice, "quantity", 1},
		{constants.Invoice, "unit price", 1},
		{constants.Invoice, "payment terms", 1.5},

		{constants.Resume, "resume", 3},
		{constants.Resume, "curriculum vitae", 3},
		{constants.Resume, "objective", 2},
		{constants.Resume, "experience", 2},
		{constants.Resume, "education", 2},
		{constants.Resume, "skills", 2},
		{constants.Resume, "certifications", 1.5},
		{constants.Resume, "email", 0.5},
		{constants.Resume, "phone", 0.5},

		{constants.Report, "report", 2},
		{constants.Report, "abstract", 3},
		{constants.Report, "introduction", 2},
		{constants.Report, "findings", 2},
		{constants.Report, "conclusion", 2},
		{constants.Report, "methodology", 2},
		{constants.Report, "keywords", 1.5},
		{constants.Report, "author", 1.5},
	}
}

// MergeKeywords overlays extra entries on base; an entry for an existing
// (type, phrase) pair replaces its weight.
func MergeKeywords(base []Keyword, extra ...Keyword) []Keyword {
	out := make([]Keyword, 0, len(base)+len(extra))
	pos := make(map[string]int, len(base)+len(extra))
	for _, k := range append(append([]Keyword{}, base...), extra...) {
		k.Phrase = strings.ToLower(strings.Join(strings.Fields(k.Phrase), " "))
		if k.Phrase == "" || !k.Type.IsSpecific() || k.Weight <= 0 {
			continue
		}
		key := string(k.Type) + "\x00" + k.Phrase
		if i, ok := pos[key]; ok {
			out[i].Weight = k.Weight
			continue
		}
		pos[key] = len(out)
		out = append(out, k)
	}
	return out
}
