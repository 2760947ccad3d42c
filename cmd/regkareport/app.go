package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"regkareport/internal/analysis"
	"regkareport/internal/config"
	"regkareport/internal/exporter"
	"regkareport/internal/infrastructure"
	"regkareport/internal/loader"
	"regkareport/internal/merger"
	"regkareport/internal/pipeline"
	"regkareport/pkg/contracts"
)

// options are the command line flags shared by every command
type options struct {
	configFile  string
	workDir     string
	fragmentDir string
	csvFile     string
	storeFile   string
	exportCSV   bool
}

// app holds what one invocation sets up before running a command
type app struct {
	opts      options
	cfg       *config.Config
	paths     *config.Paths
	logger    *slog.Logger
	telemetry *infrastructure.Telemetry
	ctx       context.Context
}

// setup loads configuration, applies flag overrides and starts logging
// and telemetry.
func (a *app) setup(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if a.opts.configFile != "" {
		cfg, err = config.LoadFrom(a.opts.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("workdir") {
		cfg.Pipeline.WorkDir = a.opts.workDir
	}
	if flags.Changed("fragments") {
		cfg.Pipeline.FragmentDir = a.opts.fragmentDir
	}
	if flags.Changed("export-csv") {
		cfg.Report.ExportCSV = a.opts.exportCSV
	}

	paths, err := config.NewPaths(cfg.Pipeline, cfg.Report)
	if err != nil {
		return err
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	telemetry, err := infrastructure.InitializeTelemetry(cfg.Telemetry, contracts.Version, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	a.cfg = cfg
	a.paths = paths
	a.logger = logger
	a.telemetry = telemetry
	a.ctx = infrastructure.EnsureRunID(cmd.Context())

	a.logger.InfoContext(a.ctx, "Starting "+contracts.GetVersionString(),
		slog.String("command", cmd.Name()),
		slog.String("work_dir", paths.WorkDir),
		slog.String("fragment_dir", paths.FragmentDir))

	return nil
}

// close flushes telemetry and the log file. It is safe to call when setup
// never ran.
func (a *app) close() {
	if a.telemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.telemetry.Shutdown(ctx); err != nil && a.logger != nil {
			a.logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}
	infrastructure.CloseLogFile()
}

func (a *app) newMergeStep() pipeline.Step {
	return pipeline.NewMergeStep(merger.New(a.paths, a.cfg.Pipeline.FragmentPattern, a.logger))
}

func (a *app) newLoadStep() pipeline.Step {
	return pipeline.NewLoadStep(loader.New(a.paths, a.logger))
}

func (a *app) newAnalyzeStep() pipeline.Step {
	var csv *exporter.CSVWriter
	if a.cfg.Report.ExportCSV {
		csv = exporter.NewCSVWriter(a.paths.CSVDir)
	}
	return pipeline.NewAnalyzeStep(analysis.NewReporter(a.paths, csv, a.logger))
}

// runSteps runs steps with explicit input paths from the flags and prints
// the outcome of every step.
func (a *app) runSteps(out io.Writer, steps ...pipeline.Step) error {
	rc := pipeline.NewRunContext(infrastructure.GetRunID(a.ctx), a.paths)
	rc.MergedPath = a.opts.csvFile
	rc.StorePath = a.opts.storeFile

	p := pipeline.New(a.logger, a.telemetry, steps...)
	err := p.Run(a.ctx, rc)

	printSummary(out, p.States(), rc)
	return err
}

func printSummary(out io.Writer, states []*pipeline.StepState, rc *pipeline.RunContext) {
	for _, s := range states {
		line := fmt.Sprintf("%-8s %-10s", s.ID, s.Status)
		switch {
		case s.Error != nil:
			line += " " + s.Error.Error()
		case s.Message != "":
			line += " " + s.Message
		}
		fmt.Fprintln(out, line)
	}

	if rc.MergedPath != "" {
		fmt.Fprintf(out, "merged:   %s\n", rc.MergedPath)
	}
	if rc.StorePath != "" {
		fmt.Fprintf(out, "store:    %s\n", rc.StorePath)
	}
	if rc.WorkbookPath != "" {
		fmt.Fprintf(out, "workbook: %s\n", rc.WorkbookPath)
	}
	for _, p := range rc.CSVPaths {
		fmt.Fprintf(out, "csv:      %s\n", p)
	}
}
