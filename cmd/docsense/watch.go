package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docsense/internal/async"
	coreasync "github.com/joseph-ayodele/docsense/internal/core/async"
	coreingest "github.com/joseph-ayodele/docsense/internal/core/ingest"
	"github.com/joseph-ayodele/docsense/internal/ingest"
)

func newWatchCmd(g *globalFlags) *cobra.Command {
	var initialScan bool
	cmd := &cobra.Command{
		Use:   "watch <dir>...",
		Short: "Process images as they appear in one or more directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, g, true)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			var mu sync.Mutex
			q := coreasync.NewProcessorQueue(a.proc, a.logger,
				coreasync.WithWorkers(a.cfg.Queue.Workers),
				coreasync.WithQueueSize(a.cfg.Queue.Size),
				coreasync.WithProcessTimeout(a.cfg.Queue.ProcessTimeout),
				coreasync.WithResultHandler(func(o async.Outcome) {
					mu.Lock()
					defer mu.Unlock()
					name := filepath.Base(o.Job.Source.Path)
					if o.Err != nil {
						fmt.Fprintf(out, "%s  %s  %v\n", name, color.Red.Sprint("failed"), o.Err)
						return
					}
					res := o.Result
					fmt.Fprintf(out, "%s  %s  %s (%.2f)  %d fields  %d anomalies  %s\n",
						name,
						decisionStyle(res.Decision).Sprint(res.Decision),
						res.Classification.Type,
						res.Classification.Confidence,
						len(res.Fields),
						len(res.Anomalies),
						res.Artifacts.Decision,
					)
				}),
			)

			events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
				Roots:       args,
				InitialScan: initialScan,
				Debounce:    a.cfg.Queue.Debounce,
				SkipHidden:  true,
			}, a.logger)
			if err != nil {
				return err
			}
			a.logger.Info("watching for documents", "roots", args)

		loop:
			for {
				select {
				case path, ok := <-events:
					if !ok {
						break loop
					}
					if err := q.Enqueue(ctx, async.NewJob(coreingest.FromPath(path))); err != nil {
						a.logger.Warn("enqueue failed", "path", path, "error", err)
					}
				case err, ok := <-errs:
					if !ok {
						errs = nil
						continue
					}
					a.logger.Warn("watcher error", "error", err)
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Queue.ProcessTimeout)
			defer cancel()
			q.Shutdown(shutdownCtx)
			return nil
		},
	}
	cmd.Flags().BoolVar(&initialScan, "initial-scan", true, "Process images already present when the watch starts")
	return cmd
}
