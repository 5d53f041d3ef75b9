package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docsense/internal/core/fixtures"
)

func newSamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "samples [dir]",
		Short: "Write the bundled sample invoice, resume and report images",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "samples"
			if len(args) == 1 {
				dir = args[0]
			}
			return writeSamples(cmd, dir)
		},
	}
}

func writeSamples(cmd *cobra.Command, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create samples dir: %w", err)
	}
	for _, doc := range fixtures.Samples() {
		data, err := doc.PNG()
		if err != nil {
			return fmt.Errorf("encode %s: %w", doc.Name, err)
		}
		path := filepath.Join(dir, doc.Name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created: %s (%s)\n", path, doc.Type)
	}
	return nil
}
