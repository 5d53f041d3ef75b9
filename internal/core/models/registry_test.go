package models

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docsense/constants"
	"github.com/joseph-ayodele/docsense/internal/common"
	"github.com/joseph-ayodele/docsense/internal/core/classify"
	"github.com/joseph-ayodele/docsense/internal/core/fields"
	"github.com/joseph-ayodele/docsense/internal/core/fixtures"
	"github.com/joseph-ayodele/docsense/internal/repository"
)

type countingRunner struct {
	lookups atomic.Int32
	missing bool
}

func (r *countingRunner) Run(context.Context, string, ...string) ([]byte, []byte, error) {
	return nil, nil, errors.New("not used")
}

func (r *countingRunner) LookPath(name string) (string, error) {
	r.lookups.Add(1)
	if r.missing {
		return "", errors.New("executable file not found in $PATH")
	}
	return "/usr/bin/" + name, nil
}

func TestStatic(t *testing.T) {
	reg, err := NewRegistry(fixtures.EngineFor(fixtures.Invoice()), nil, nil, classify.Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, len(classify.DefaultKeywords()), reg.Keywords)

	got, err := Static(reg).Registry(context.Background())
	require.NoError(t, err)
	assert.Same(t, reg, got)
}

func TestLoaderLoadsOnceUnderConcurrency(t *testing.T) {
	runner := &countingRunner{}
	l := NewLoader(Config{}, runner, nil)

	var wg sync.WaitGroup
	regs := make([]*Registry, 8)
	for i := range regs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reg, err := l.Registry(context.Background())
			assert.NoError(t, err)
			regs[i] = reg
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, runner.lookups.Load())
	for _, r := range regs {
		assert.Same(t, regs[0], r)
	}
	assert.Equal(t, "tesseract-eng", regs[0].Engine.Name())
	assert.False(t, regs[0].NER)
}

func TestLoaderFailureIsSticky(t *testing.T) {
	runner := &countingRunner{missing: true}
	l := NewLoader(Config{}, runner, nil)

	for range 3 {
		_, err := l.Registry(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrModelUnavailable)
	}
	assert.EqualValues(t, 1, runner.lookups.Load())
}

func TestLoaderIgnoresFirstCallerCancellation(t *testing.T) {
	r := require.New(t)
	dsn := filepath.Join(t.TempDir(), "lexicon.db")
	l := NewLoader(Config{LexiconDSN: dsn, LexiconDriver: repository.DriverSQLite}, &countingRunner{}, nil)

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	first, err := l.Registry(canceled)
	r.NoError(err)
	r.NotNil(first)

	second, err := l.Registry(context.Background())
	r.NoError(err)
	r.Same(first, second)
}

func TestLoaderAppliesManifestAndLexicon(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "models.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte(`
version: 1
ocr:
  lang: deu
  psm: 6
ner: false
keywords:
  - {type: Invoice, phrase: purchase order, weight: 2}
gazetteer:
  - {phrase: ABC Solutions Pvt Ltd, label: ORG}
`), 0o644))

	dsn := filepath.Join(dir, "lexicon.db")
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{Driver: repository.DriverSQLite, DSN: dsn}, nil)
	require.NoError(t, err)
	repo := repository.NewLexiconRepository(db, nil)
	require.NoError(t, repo.EnsureSchema(ctx))
	require.NoError(t, repo.UpsertKeyword(ctx, classify.Keyword{Type: constants.Report, Phrase: "white paper", Weight: 3}))
	require.NoError(t, repo.UpsertGazetteer(ctx, fields.GazetteerEntry{Phrase: "Jane Smith", Label: fields.LabelPerson}))
	db.Close(nil)

	l := NewLoader(Config{ManifestPath: manifest, LexiconDSN: dsn, LexiconDriver: repository.DriverSQLite, EnableNER: true}, &countingRunner{}, nil)
	reg, err := l.Registry(ctx)
	require.NoError(t, err)

	assert.Equal(t, "tesseract-deu", reg.Engine.Name())
	assert.Equal(t, len(classify.DefaultKeywords())+2, reg.Keywords)
	assert.Equal(t, 2, reg.Gazetteer)
	assert.False(t, reg.NER)

	ents, err := reg.Recognizer.Recognize(ctx, "Author: Jane Smith")
	require.NoError(t, err)
	assert.Equal(t, []fields.Entity{{Text: "Jane Smith", Label: fields.LabelPerson}}, ents)
}

func TestLoadManifestRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"bad yaml":     "keywords: [",
		"future":       "version: 2",
		"unknown type": "keywords:\n  - {type: Memo, phrase: memo, weight: 1}",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			p := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
			_, err := LoadManifest(p)
			assert.Error(t, err)
		})
	}
	_, err := LoadManifest(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
