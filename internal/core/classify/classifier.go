// Package classify assigns a document type from recognized tokens.
package classify

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"

	"github.com/joseph-ayodele/docsense/constants"
	"github.com/joseph-ayodele/docsense/internal/entity"
)

// maxKeywordHits caps how often one phrase can contribute.
const maxKeywordHits = 2

var reAmount = regexp.MustCompile(`[$€£]\s?\d+(?:,\d{3})*(?:\.\d{2})?|\b\d{1,3}(?:,\d{3})*\.\d{2}\b`)

type Config struct {
	MinConfidence   float64
	AcceptThreshold float64
	TieEpsilon      float64
	UnknownPrior    float64
}

// layoutSignal is a capped per-line bonus for one document type.
type layoutSignal struct {
	Type   constants.DocumentType
	Weight float64
	Cap    float64
	Match  func(tokens []entity.Token, line entity.Line) bool
}

type Classifier struct {
	cfg      Config
	machine  *goahocorasick.Machine
	keywords map[string][]Keyword
	signals  []layoutSignal
	logger   *slog.Logger
}

// NewClassifier builds the keyword automaton. A nil or empty lexicon falls
// back to DefaultKeywords.
func NewClassifier(cfg Config, lexicon []Keyword, logger *slog.Logger) (*Classifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.UnknownPrior <= 0 {
		cfg.UnknownPrior = 2
	}
	if cfg.TieEpsilon <= 0 {
		cfg.TieEpsilon = 0.5
	}
	if cfg.AcceptThreshold <= 0 {
		cfg.AcceptThreshold = 0.6
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = 0.4
	}
	if len(lexicon) == 0 {
		lexicon = DefaultKeywords()
	}
	lexicon = MergeKeywords(lexicon)

	keywords := make(map[string][]Keyword)
	var patterns [][]rune
	for _, k := range lexicon {
		if _, ok := keywords[k.Phrase]; !ok {
			patterns = append(patterns, []rune(k.Phrase))
		}
		keywords[k.Phrase] = append(keywords[k.Phrase], k)
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, fmt.Errorf("build keyword automaton: %w", err)
	}
	return &Classifier{
		cfg:      cfg,
		machine:  m,
		keywords: keywords,
		signals:  defaultSignals(),
		logger:   logger,
	}, nil
}

func defaultSignals() []layoutSignal {
	return []layoutSignal{
		{Type: constants.Invoice, Weight: 0.75, Cap: 3, Match: isTableLine},
		{Type: constants.Report, Weight: 0.5, Cap: 3, Match: isProseLine},
		{Type: constants.Resume, Weight: 0.5, Cap: 2.5, Match: isSectionHeader},
	}
}

// Classify scores every specific type and picks the winner. It never fails:
// no tokens, low confidence, or an unresolved tie all yield Unknown.
func (c *Classifier) Classify(tokens []entity.Token) entity.Classification {
	scores := make(map[constants.DocumentType]float64, 3)
	for _, t := range constants.SpecificDocumentTypes() {
		scores[t] = 0
	}
	if len(tokens) == 0 {
		return entity.Classification{Type: constants.Unknown, RawType: constants.Unknown, Scores: scores}
	}

	lines := entity.GroupLines(tokens)
	c.scoreKeywords(tokens, lines, scores)
	c.scoreLayout(tokens, lines, scores)

	ranked := constants.SpecificDocumentTypes()
	sort.SliceStable(ranked, func(i, j int) bool {
		if scores[ranked[i]] != scores[ranked[j]] {
			return scores[ranked[i]] > scores[ranked[j]]
		}
		return ranked[i].Rank() < ranked[j].Rank()
	})
	top, second := scores[ranked[0]], scores[ranked[1]]

	out := entity.Classification{RawType: ranked[0], Scores: scores}
	if top <= 0 {
		out.Type = constants.Unknown
		return out
	}
	out.Confidence = entity.ClampUnit(top / (top + second + c.cfg.UnknownPrior))
	out.Type = ranked[0]

	switch {
	case top-second <= c.cfg.TieEpsilon && out.Confidence < c.cfg.AcceptThreshold:
		out.Type = constants.Unknown
	case out.Confidence < c.cfg.MinConfidence:
		out.Type = constants.Unknown
	}
	c.logger.Debug("document classified",
		"type", out.Type,
		"raw_type", out.RawType,
		"confidence", out.Confidence,
		"top_score", top,
		"second_score", second,
	)
	return out
}

func (c *Classifier) scoreKeywords(tokens []entity.Token, lines []entity.Line, scores map[constants.DocumentType]float64) {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.Text(tokens)
	}
	text := []rune(strings.ToLower(strings.Join(parts, "\n")))

	hits := make(map[string]int)
	for _, term := range c.machine.MultiPatternSearch(text, false) {
		start, end := term.Pos, term.Pos+len(term.Word)
		if !boundary(text, start-1) || !boundary(text, end) {
			continue
		}
		phrase := string(term.Word)
		if hits[phrase] >= maxKeywordHits {
			continue
		}
		hits[phrase]++
		for _, k := range c.keywords[phrase] {
			scores[k.Type] += k.Weight
		}
	}
}

func (c *Classifier) scoreLayout(tokens []entity.Token, lines []entity.Line, scores map[constants.DocumentType]float64) {
	for _, s := range c.signals {
		var bonus float64
		for _, l := range lines {
			if s.Match(tokens, l) {
				bonus += s.Weight
			}
		}
		scores[s.Type] += min(bonus, s.Cap)
	}
}

func boundary(text []rune, i int) bool {
	if i < 0 || i >= len(text) {
		return true
	}
	r := text[i]
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// isTableLine matches rows with column separators or several amounts.
func isTableLine(tokens []entity.Token, l entity.Line) bool {
	pipes := 0
	for _, i := range l.Tokens {
		if tokens[i].Text == "|" {
			pipes++
		}
	}
	if pipes >= 2 {
		return true
	}
	return len(reAmount.FindAllString(l.Text(tokens), -1)) >= 2
}

func isProseLine(tokens []entity.Token, l entity.Line) bool {
	if len(l.Tokens) < 8 {
		return false
	}
	for _, i := range l.Tokens {
		if tokens[i].Text == "|" {
			return false
		}
	}
	return true
}

// isSectionHeader matches short all-caps lines such as "EXPERIENCE".
func isSectionHeader(tokens []entity.Token, l entity.Line) bool {
	if len(l.Tokens) > 2 {
		return false
	}
	letters := 0
	for _, i := range l.Tokens {
		for _, r := range tokens[i].Text {
			if unicode.IsLetter(r) {
				if !unicode.IsUpper(r) {
					return false
				}
				letters++
			}
		}
	}
	return letters >= 4
}
