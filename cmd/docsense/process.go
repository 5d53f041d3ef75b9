package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docsense/internal/core/ingest"
	"github.com/joseph-ayodele/docsense/internal/core/result"
)

func newProcessCmd(g *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "process <image>",
		Short: "Process a single document image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, g, true)
			if err != nil {
				return err
			}
			res, err := a.proc.ProcessDocument(cmd.Context(), ingest.FromPath(args[0]))
			if res == nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				view := res.View()
				if verr := result.Validate(view); verr != nil {
					a.logger.Warn("result view failed schema validation", "error", verr)
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if eerr := enc.Encode(view); eerr != nil {
					return eerr
				}
			} else {
				printResult(out, args[0], res)
			}
			if err != nil {
				fmt.Fprintln(os.Stderr, "artifacts were not written")
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result view as JSON")
	return cmd
}
