package main

import (
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docsense/internal/common"
	"github.com/joseph-ayodele/docsense/internal/core"
	"github.com/joseph-ayodele/docsense/internal/core/models"
	"github.com/joseph-ayodele/docsense/internal/metrics"
)

type globalFlags struct {
	output     string
	logLevel   string
	logFormat  string
	manifest   string
	lexiconDSN string
	noNER      bool
}

// app is the wiring shared by every subcommand.
type app struct {
	cfg      *common.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	loader   *models.Loader
	proc     *core.Processor
}

// newApp loads configuration and wires the pipeline. Interactive commands
// log as text on stderr unless --log-format is given, keeping stdout for results.
func newApp(cmd *cobra.Command, g *globalFlags, interactive bool) (*app, error) {
	cfg, err := loadConfig(cmd, g)
	if err != nil {
		return nil, err
	}
	logger := common.NewLogger(cfg.Log)
	if interactive && !cmd.Flags().Changed("log-format") {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	}
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(reg)
	if err != nil {
		return nil, err
	}

	loader := models.NewLoader(core.ModelsConfigFrom(cfg), nil, logger)
	proc := core.NewProcessor(core.ConfigFrom(cfg), loader, nil, m, logger)
	return &app{cfg: cfg, logger: logger, registry: reg, loader: loader, proc: proc}, nil
}

// loadConfig reads .env and the environment, then applies flags the user set explicitly.
func loadConfig(cmd *cobra.Command, g *globalFlags) (*common.Config, error) {
	cfg, err := common.LoadConfig()
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output.Dir = g.output
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = g.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = g.logFormat
	}
	if flags.Changed("manifest") {
		cfg.Models.ManifestPath = g.manifest
	}
	if flags.Changed("lexicon-dsn") {
		cfg.Models.LexiconDSN = g.lexiconDSN
	}
	if g.noNER {
		cfg.Models.EnableNER = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
