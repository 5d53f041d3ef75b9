// Package ingest discovers input documents on disk for batch and watch modes.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/joseph-ayodele/docsense/constants"
	"github.com/joseph-ayodele/docsense/internal/async"
	coreasync "github.com/joseph-ayodele/docsense/internal/core/async"
	coreingest "github.com/joseph-ayodele/docsense/internal/core/ingest"
	"github.com/joseph-ayodele/docsense/internal/entity"
)

type FileResult struct {
	Path     string
	Result   *entity.ProcessingResult
	Err      string
	Duration time.Duration
}

type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
}

// DirOptions controls directory discovery and the worker pool used to process it.
type DirOptions struct {
	IncludeExts []string // defaults to every supported image extension
	SkipHidden  bool
	Workers     int
	QueueSize   int
	Timeout     time.Duration
}

// Discover walks root and returns the sorted paths of matching files.
// Unreadable entries are counted as failures and skipped.
func Discover(root string, includeExts []string, skipHidden bool) ([]string, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}
	exts := extSet(includeExts)

	var paths []string
	var stats DirStats
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			stats.Scanned++
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		stats.Scanned++
		if !allowed(path, exts) {
			return nil
		}
		stats.Matched++
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("walk: %w", err)
	}
	slices.Sort(paths)
	return paths, stats, nil
}

// ProcessDirectory runs every discovered document through proc on a worker
// pool. Results come back in path order; per-file failures never abort the batch.
func ProcessDirectory(ctx context.Context, proc coreasync.DocumentProcessor, root string, opts DirOptions, logger *slog.Logger) ([]FileResult, DirStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	paths, stats, err := Discover(root, opts.IncludeExts, opts.SkipHidden)
	if err != nil {
		return nil, stats, err
	}

	var mu sync.Mutex
	byPath := make(map[string]FileResult, len(paths))
	q := coreasync.NewProcessorQueue(proc, logger,
		coreasync.WithWorkers(opts.Workers),
		coreasync.WithQueueSize(opts.QueueSize),
		coreasync.WithProcessTimeout(opts.Timeout),
		coreasync.WithResultHandler(func(o async.Outcome) {
			fr := FileResult{Path: o.Job.Source.Path, Result: o.Result, Duration: o.Duration}
			if o.Err != nil {
				fr.Err = o.Err.Error()
			}
			mu.Lock()
			byPath[fr.Path] = fr
			mu.Unlock()
		}),
	)

	var enqueueErr error
	for _, p := range paths {
		if err := q.Enqueue(ctx, async.NewJob(coreingest.FromPath(p))); err != nil {
			enqueueErr = err
			break
		}
	}
	q.Shutdown(context.WithoutCancel(ctx))

	results := make([]FileResult, 0, len(paths))
	for _, p := range paths {
		fr, ok := byPath[p]
		if !ok {
			continue
		}
		if fr.Err != "" {
			stats.Failed++
		} else {
			stats.Succeeded++
		}
		results = append(results, fr)
	}
	logger.Info("directory processed",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
	)
	if enqueueErr != nil {
		return results, stats, fmt.Errorf("enqueue: %w", enqueueErr)
	}
	return results, stats, nil
}

func extSet(includeExts []string) map[string]struct{} {
	if len(includeExts) == 0 {
		return constants.AllowedExtensions
	}
	exts := map[string]struct{}{}
	for _, e := range includeExts {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			exts[e] = struct{}{}
		}
	}
	return exts
}

func isHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}
