package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	cmd := &cobra.Command{
		Use:   "docsense",
		Short: "Document understanding pipeline",
		Long: `docsense turns a page image into a typed, explainable decision:

  ingest → layout/OCR → classify → extract fields → detect anomalies → decide → render

Documents are classified as Invoice, Resume, Report or Unknown. Every
extracted field carries the OCR tokens it came from, and each run writes a
confidence heatmap plus field and decision visualizations.

Configuration comes from the environment (and an optional .env file);
the flags below override it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&g.output, "output", "o", "./output", "Artifact output directory (OUTPUT_DIR)")
	pf.StringVar(&g.logLevel, "log-level", "info", "Log level: debug, info, warn, error (LOG_LEVEL)")
	pf.StringVar(&g.logFormat, "log-format", "json", "Log format: json or text (LOG_FORMAT)")
	pf.StringVar(&g.manifest, "manifest", "", "Model manifest YAML (MODELS_MANIFEST)")
	pf.StringVar(&g.lexiconDSN, "lexicon-dsn", "", "Lexicon database DSN (MODELS_LEXICON_DSN)")
	pf.BoolVar(&g.noNER, "no-ner", false, "Disable statistical entity recognition")

	cmd.AddCommand(
		newProcessCmd(g),
		newBatchCmd(g),
		newWatchCmd(g),
		newServeCmd(g),
		newModelsCmd(g),
		newSamplesCmd(),
	)
	return cmd
}
