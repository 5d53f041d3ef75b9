package fields

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/jdkato/prose/v2"
)

// Entity labels produced by recognizers.
const (
	LabelPerson = "PERSON"
	LabelOrg    = "ORG"
	LabelPlace  = "GPE"
)

// Entity is a named span of document text.
type Entity struct {
	Text  string
	Label string
}

// EntityRecognizer finds named entities in page text. Implementations are
// shared by concurrent runs.
type EntityRecognizer interface {
	Recognize(ctx context.Context, text string) ([]Entity, error)
}

// ProseRecognizer tags entities with the prose averaged-perceptron model.
// The model is built once and only read afterwards.
type ProseRecognizer struct {
	model *prose.Model
}

// NewProseRecognizer builds the tagger and entity extractor from the
// assets embedded in prose.
func NewProseRecognizer() (*ProseRecognizer, error) {
	seed, err := prose.NewDocument("Warm up.", prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("prose model: %w", err)
	}
	if seed.Model == nil {
		return nil, fmt.Errorf("prose model: not loaded")
	}
	return &ProseRecognizer{model: seed.Model}, nil
}

func (r *ProseRecognizer) Recognize(ctx context.Context, text string) ([]Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r == nil || r.model == nil {
		return nil, fmt.Errorf("prose: recognizer has no model")
	}
	var out []Entity
	// each page line is tagged as its own sentence
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		doc, err := prose.NewDocument(line, prose.WithSegmentation(false), prose.UsingModel(r.model))
		if err != nil {
			return nil, fmt.Errorf("prose: %w", err)
		}
		for _, e := range doc.Entities() {
			out = append(out, Entity{Text: e.Text, Label: e.Label})
		}
	}
	return out, nil
}

// GazetteerEntry is one known name.
type GazetteerEntry struct {
	Phrase string `yaml:"phrase" json:"phrase"`
	Label  string `yaml:"label" json:"label"`
}

// Gazetteer recognizes a fixed list of names with an Aho-Corasick automaton.
type Gazetteer struct {
	machine *goahocorasick.Machine
	labels  map[string]string
}

func NewGazetteer(entries []GazetteerEntry) (*Gazetteer, error) {
	g := &Gazetteer{labels: make(map[string]string, len(entries))}
	var patterns [][]rune
	for _, e := range entries {
		p := strings.ToLower(strings.Join(strings.Fields(e.Phrase), " "))
		if p == "" || e.Label == "" {
			continue
		}
		if _, ok := g.labels[p]; !ok {
			patterns = append(patterns, []rune(p))
		}
		g.labels[p] = e.Label
	}
	if len(patterns) == 0 {
		return g, nil
	}
	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, fmt.Errorf("build gazetteer: %w", err)
	}
	g.machine = m
	return g, nil
}

// Len returns the number of distinct phrases.
func (g *Gazetteer) Len() int { return len(g.labels) }

// Recognize returns known names in order of appearance, preferring the
// longest phrase at each position.
func (g *Gazetteer) Recognize(ctx context.Context, text string) ([]Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if g.machine == nil {
		return nil, nil
	}
	orig := []rune(text)
	lower := []rune(strings.ToLower(text))
	if len(lower) != len(orig) {
		lower = []rune(strings.Map(unicode.ToLower, text))
	}
	terms := g.machine.MultiPatternSearch(lower, false)
	sort.SliceStable(terms, func(i, j int) bool {
		if terms[i].Pos != terms[j].Pos {
			return terms[i].Pos < terms[j].Pos
		}
		return len(terms[i].Word) > len(terms[j].Word)
	})

	var out []Entity
	next := 0
	for _, t := range terms {
		start, end := t.Pos, t.Pos+len(t.Word)
		if start < next || !wordEdge(lower, start-1) || !wordEdge(lower, end) {
			continue
		}
		out = append(out, Entity{Text: string(orig[start:end]), Label: g.labels[string(t.Word)]})
		next = end
	}
	return out, nil
}

func wordEdge(text []rune, i int) bool {
	if i < 0 || i >= len(text) {
		return true
	}
	return !unicode.IsLetter(text[i]) && !unicode.IsDigit(text[i])
}

// Chain merges the entities of several recognizers; earlier recognizers win
// when two report the same text.
type Chain []EntityRecognizer

func (c Chain) Recognize(ctx context.Context, text string) ([]Entity, error) {
	seen := make(map[string]bool)
	var out []Entity
	for _, r := range c {
		if r == nil {
			continue
		}
		ents, err := r.Recognize(ctx, text)
		if err != nil {
			return nil, err
		}
		for _, e := range ents {
			key := strings.ToLower(e.Text)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, e)
		}
	}
	return out, nil
}
