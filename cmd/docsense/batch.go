package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docsense/internal/export"
	"github.com/joseph-ayodele/docsense/internal/ingest"
)

func newBatchCmd(g *globalFlags) *cobra.Command {
	var (
		xlsxPath   string
		exts       []string
		skipHidden bool
		workers    int
	)
	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Process every image under a directory and write an XLSX summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, g, true)
			if err != nil {
				return err
			}
			if workers <= 0 {
				workers = a.cfg.Queue.Workers
			}
			results, stats, err := ingest.ProcessDirectory(cmd.Context(), a.proc, args[0], ingest.DirOptions{
				IncludeExts: exts,
				SkipHidden:  skipHidden,
				Workers:     workers,
				QueueSize:   a.cfg.Queue.Size,
				Timeout:     a.cfg.Queue.ProcessTimeout,
			}, a.logger)
			if err != nil {
				return err
			}
			printBatch(cmd.OutOrStdout(), results, stats)

			data, err := export.NewService(a.logger).BatchXLSX(results)
			if err != nil {
				return err
			}
			if xlsxPath == "" {
				xlsxPath = filepath.Join(a.cfg.Output.Dir, fmt.Sprintf("batch-%s.xlsx", time.Now().UTC().Format("20060102-150405")))
			}
			if err := os.MkdirAll(filepath.Dir(xlsxPath), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(xlsxPath, data, 0o644); err != nil {
				return fmt.Errorf("write summary: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "summary written to %s\n", xlsxPath)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&xlsxPath, "xlsx", "", "Summary workbook path (default <output>/batch-<time>.xlsx)")
	f.StringSliceVar(&exts, "ext", nil, "Only include these extensions (default: all supported images)")
	f.BoolVar(&skipHidden, "skip-hidden", true, "Skip hidden files and directories")
	f.IntVarP(&workers, "workers", "w", 0, "Concurrent documents (QUEUE_WORKERS)")
	return cmd
}
