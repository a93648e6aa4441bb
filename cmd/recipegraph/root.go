package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/randalmurphal/recipegraph/pkg/recipegraph"
	"github.com/randalmurphal/recipegraph/pkg/recipegraph/catalog"
	"github.com/randalmurphal/recipegraph/pkg/recipegraph/config"
	"github.com/spf13/cobra"
)

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	out io.Writer
	err io.Writer

	configPath  string
	catalogPath string
	logLevel    string
	logFormat   string

	settings  config.Settings
	logger    *slog.Logger
	catalog   *catalog.Catalog
	telemetry *telemetry
}

func newRootCmd(outW, errW io.Writer) (*cobra.Command, *app) {
	a := &app{out: outW, err: errW}

	root := &cobra.Command{
		Use:   "recipegraph",
		Short: "Compile and run recipe graphs",
		Long: `recipegraph loads a graph document, compiles a recipe for every
acceptor and runs them against the standard factory catalog plus any
declarations named by --catalog.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(outW)
	root.SetErr(errW)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "settings file (.yaml, .yml or .json)")
	flags.StringVar(&a.catalogPath, "catalog", "", "factory declarations file, overrides the settings file")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: text or json")

	root.AddCommand(
		newBuildCmd(a),
		newRunCmd(a),
		newSnapshotCmd(a),
	)
	return root, a
}

// setup loads settings, applies flag overrides and builds the logger and catalog.
func (a *app) setup(cmd *cobra.Command) error {
	settings := config.Default()
	if a.configPath != "" {
		loaded, err := config.FromFile(a.configPath)
		if err != nil {
			return err
		}
		settings = loaded
	}
	if a.logLevel != "" {
		settings.LogLevel = a.logLevel
	}
	if a.logFormat != "" {
		settings.LogFormat = a.logFormat
	}
	if a.catalogPath != "" {
		settings.CatalogPath = a.catalogPath
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	a.settings = settings
	a.logger = newLogger(settings.LogLevel, settings.LogFormat, a.err)

	a.catalog = catalog.Standard()
	if settings.CatalogPath != "" {
		if err := a.catalog.LoadDeclarations(settings.CatalogPath); err != nil {
			return err
		}
		a.logger.Debug("catalog loaded",
			slog.String("path", settings.CatalogPath),
			slog.Int("factories", a.catalog.Len()),
		)
	}

	a.telemetry = newTelemetry(a.logger, settings.Metrics, settings.Tracing)
	return nil
}

// teardown flushes telemetry. It runs whether or not the command failed.
func (a *app) teardown(ctx context.Context) error {
	if a.telemetry == nil {
		return nil
	}
	return a.telemetry.shutdown(ctx)
}

// newGraph returns an empty graph configured from the settings.
func (a *app) newGraph() *recipegraph.Graph {
	return recipegraph.New(a.settings.GraphOptions(a.logger)...)
}

// loadGraph reads a graph document and restores it against the catalog.
func (a *app) loadGraph(path string) (*recipegraph.Graph, error) {
	g := a.newGraph()
	if err := g.ReadFile(path, a.catalog); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return g, nil
}
