// Package models resolves the read-only model registry shared by all runs.
package models

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/docsense/internal/common"
	"github.com/joseph-ayodele/docsense/internal/core/classify"
	"github.com/joseph-ayodele/docsense/internal/core/fields"
	"github.com/joseph-ayodele/docsense/internal/core/ocr"
	"github.com/joseph-ayodele/docsense/internal/repository"
)

// Registry is immutable once built and safe for concurrent use.
type Registry struct {
	Engine     ocr.Engine
	Recognizer fields.EntityRecognizer
	Classifier *classify.Classifier
	Keywords   int
	Gazetteer  int
	NER        bool
	LoadedAt   time.Time
}

// NewRegistry assembles a registry from already-built parts.
func NewRegistry(engine ocr.Engine, recognizer fields.EntityRecognizer, keywords []classify.Keyword, cfg classify.Config, logger *slog.Logger) (*Registry, error) {
	if len(keywords) == 0 {
		keywords = classify.DefaultKeywords()
	}
	c, err := classify.NewClassifier(cfg, keywords, logger)
	if err != nil {
		return nil, err
	}
	return &Registry{
		Engine:     engine,
		Recognizer: recognizer,
		Classifier: c,
		Keywords:   len(keywords),
		LoadedAt:   time.Now(),
	}, nil
}

type Config struct {
	ManifestPath  string
	LexiconDSN    string
	LexiconDriver string
	EnableNER     bool
	OCR           ocr.Config
	Classify      classify.Config
}

const loadTimeout = 2 * time.Minute

// Loader resolves the registry on first use. A failed load is remembered
// and reported on every call until the process restarts.
type Loader struct {
	cfg    Config
	runner ocr.Runner
	logger *slog.Logger

	once sync.Once
	reg  *Registry
	err  error
}

func NewLoader(cfg Config, runner ocr.Runner, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ocr.NewExecRunner(logger)
	}
	return &Loader{cfg: cfg, runner: runner, logger: logger}
}

// Static returns a loader that always yields reg.
func Static(reg *Registry) *Loader {
	l := &Loader{reg: reg, logger: slog.Default()}
	l.once.Do(func() {})
	return l
}

// Registry returns the shared registry, loading it exactly once. The load
// is detached from ctx so a canceled first caller cannot poison it.
func (l *Loader) Registry(ctx context.Context) (*Registry, error) {
	l.once.Do(func() {
		start := time.Now()
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		l.reg, l.err = l.load(loadCtx)
		if l.err != nil {
			l.logger.Error("model registry unavailable", "error", l.err)
			return
		}
		l.logger.Info("model registry loaded",
			"engine", l.reg.Engine.Name(),
			"keywords", l.reg.Keywords,
			"gazetteer", l.reg.Gazetteer,
			"ner", l.reg.NER,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
	return l.reg, l.err
}

func (l *Loader) load(ctx context.Context) (*Registry, error) {
	cfg := l.cfg
	var manifest Manifest
	if cfg.ManifestPath != "" {
		m, err := LoadManifest(cfg.ManifestPath)
		if err != nil {
			return nil, common.ModelUnavailableError("model manifest", err)
		}
		manifest = *m
		if manifest.OCR.Lang != "" {
			cfg.OCR.Lang = manifest.OCR.Lang
		}
		if manifest.OCR.PSM > 0 {
			cfg.OCR.PSM = manifest.OCR.PSM
		}
		if manifest.OCR.OEM > 0 {
			cfg.OCR.OEM = manifest.OCR.OEM
		}
		if manifest.NER != nil {
			cfg.EnableNER = *manifest.NER
		}
	}

	engine := ocr.NewTesseract(cfg.OCR, l.runner, l.logger)
	if err := engine.Available(); err != nil {
		return nil, common.ModelUnavailableError("ocr engine", err)
	}

	keywords := classify.MergeKeywords(classify.DefaultKeywords(), manifest.Keywords...)
	gazetteer := manifest.Gazetteer
	if cfg.LexiconDSN != "" {
		kws, entries, err := l.loadLexicon(ctx, cfg)
		if err != nil {
			return nil, common.ModelUnavailableError("lexicon store", err)
		}
		keywords = classify.MergeKeywords(keywords, kws...)
		gazetteer = append(gazetteer, entries...)
	}

	gaz, err := fields.NewGazetteer(gazetteer)
	if err != nil {
		return nil, common.ModelUnavailableError("gazetteer", err)
	}
	chain := fields.Chain{gaz}
	if cfg.EnableNER {
		ner, err := fields.NewProseRecognizer()
		if err != nil {
			return nil, common.ModelUnavailableError("entity recognizer", err)
		}
		chain = append(chain, ner)
	}

	reg, err := NewRegistry(engine, chain, keywords, cfg.Classify, l.logger)
	if err != nil {
		return nil, common.ModelUnavailableError("classifier lexicon", err)
	}
	reg.Gazetteer = gaz.Len()
	reg.NER = cfg.EnableNER
	return reg, nil
}

func (l *Loader) loadLexicon(ctx context.Context, cfg Config) ([]classify.Keyword, []fields.GazetteerEntry, error) {
	db, err := repository.Open(ctx, repository.Config{Driver: cfg.LexiconDriver, DSN: cfg.LexiconDSN}, l.logger)
	if err != nil {
		return nil, nil, err
	}
	defer db.Close(l.logger)

	repo := repository.NewLexiconRepository(db, l.logger)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, nil, err
	}
	kws, err := repo.ListKeywords(ctx)
	if err != nil {
		return nil, nil, err
	}
	entries, err := repo.ListGazetteer(ctx)
	if err != nil {
		return nil, nil, err
	}
	return kws, entries, nil
}
