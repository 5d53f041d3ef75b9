package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/docsense/constants"
	"github.com/joseph-ayodele/docsense/internal/core/classify"
	"github.com/joseph-ayodele/docsense/internal/core/fields"
)

// LexiconRepository stores classifier keywords and gazetteer names.
type LexiconRepository interface {
	EnsureSchema(ctx context.Context) error
	ListKeywords(ctx context.Context) ([]classify.Keyword, error)
	ListGazetteer(ctx context.Context) ([]fields.GazetteerEntry, error)
	UpsertKeyword(ctx context.Context, k classify.Keyword) error
	UpsertGazetteer(ctx context.Context, e fields.GazetteerEntry) error
}

type lexiconRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewLexiconRepository(db *DB, logger *slog.Logger) LexiconRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &lexiconRepository{db: db, logger: logger}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS lexicon_keywords (
		doc_type TEXT NOT NULL,
		phrase   TEXT NOT NULL,
		weight   DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (doc_type, phrase)
	)`,
	`CREATE TABLE IF NOT EXISTS lexicon_gazetteer (
		phrase TEXT NOT NULL PRIMARY KEY,
		label  TEXT NOT NULL
	)`,
}

func (r *lexiconRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure lexicon schema: %w", err)
		}
	}
	return nil
}

func (r *lexiconRepository) ListKeywords(ctx context.Context) ([]classify.Keyword, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT doc_type, phrase, weight FROM lexicon_keywords ORDER BY doc_type, phrase`)
	if err != nil {
		return nil, fmt.Errorf("list keywords: %w", err)
	}
	defer rows.Close()

	var out []classify.Keyword
	for rows.Next() {
		var typ, phrase string
		var weight float64
		if err := rows.Scan(&typ, &phrase, &weight); err != nil {
			return nil, fmt.Errorf("scan keyword: %w", err)
		}
		dt, ok := constants.ParseDocumentType(typ)
		if !ok || !dt.IsSpecific() {
			r.logger.Warn("skipping keyword with unknown document type", "doc_type", typ, "phrase", phrase)
			continue
		}
		out = append(out, classify.Keyword{Type: dt, Phrase: phrase, Weight: weight})
	}
	return out, rows.Err()
}

func (r *lexiconRepository) ListGazetteer(ctx context.Context) ([]fields.GazetteerEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT phrase, label FROM lexicon_gazetteer ORDER BY phrase`)
	if err != nil {
		return nil, fmt.Errorf("list gazetteer: %w", err)
	}
	defer rows.Close()

	var out []fields.GazetteerEntry
	for rows.Next() {
		var e fields.GazetteerEntry
		if err := rows.Scan(&e.Phrase, &e.Label); err != nil {
			return nil, fmt.Errorf("scan gazetteer entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *lexiconRepository) UpsertKeyword(ctx context.Context, k classify.Keyword) error {
	_, err := r.db.ExecContext(ctx, r.db.bind(
		`INSERT INTO lexicon_keywords (doc_type, phrase, weight) VALUES (?, ?, ?)
		 ON CONFLICT (doc_type, phrase) DO UPDATE SET weight = excluded.weight`),
		string(k.Type), k.Phrase, k.Weight)
	if err != nil {
		return fmt.Errorf("upsert keyword %q: %w", k.Phrase, err)
	}
	return nil
}

func (r *lexiconRepository) UpsertGazetteer(ctx context.Context, e fields.GazetteerEntry) error {
	_, err := r.db.ExecContext(ctx, r.db.bind(
		`INSERT INTO lexicon_gazetteer (phrase, label) VALUES (?, ?)
		 ON CONFLICT (phrase) DO UPDATE SET label = excluded.label`),
		e.Phrase, e.Label)
	if err != nil {
		return fmt.Errorf("upsert gazetteer entry %q: %w", e.Phrase, err)
	}
	return nil
}
