package pipeline

import (
	"context"
	"errors"
	"fmt"

	"regkareport/internal/analysis"
	"regkareport/internal/loader"
	"regkareport/internal/merger"
)

// Step IDs
const (
	StepIDMerge   = "merge"
	StepIDLoad    = "load"
	StepIDAnalyze = "analyze"
)

// Step is one stage of a run
type Step interface {
	// ID returns the unique identifier for this step
	ID() string

	// Name returns the human-readable name for this step
	Name() string

	// Execute runs the step, reading inputs from and recording outputs in rc.
	// It returns a short summary for the step state.
	Execute(ctx context.Context, rc *RunContext) (string, error)
}

// Merger merges fragments into one file
type Merger interface {
	Merge(ctx context.Context, fragmentDir, outPath string) (*merger.Result, error)
}

// Loader loads a merged file into a store
type Loader interface {
	Load(ctx context.Context, csvPath, storePath string) (*loader.Result, error)
}

// Analyzer writes the report workbook from a store
type Analyzer interface {
	Analyze(ctx context.Context, storePath string) (*analysis.Result, error)
}

// MergeStep runs the merger. Any failure other than cancellation is fatal.
type MergeStep struct {
	merger Merger
}

// NewMergeStep creates the merge step
func NewMergeStep(m Merger) *MergeStep { return &MergeStep{merger: m} }

func (s *MergeStep) ID() string   { return StepIDMerge }
func (s *MergeStep) Name() string { return "Merge result fragments" }

func (s *MergeStep) Execute(ctx context.Context, rc *RunContext) (string, error) {
	res, err := s.merger.Merge(ctx, rc.FragmentDir, rc.MergedPath)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", NewCancellationError(s.ID(), err)
		}
		return "", NewFatalError(s.ID(), "fragment merge aborted", err)
	}
	rc.MergedPath = res.OutputPath
	rc.FragmentsMerged = res.FilesMerged
	rc.LinesMerged = res.LinesWritten
	return fmt.Sprintf("merged %d lines from %d fragments", res.LinesWritten, res.FilesMerged), nil
}

// LoadStep runs the loader
type LoadStep struct {
	loader Loader
}

// NewLoadStep creates the load step
func NewLoadStep(l Loader) *LoadStep { return &LoadStep{loader: l} }

func (s *LoadStep) ID() string   { return StepIDLoad }
func (s *LoadStep) Name() string { return "Load merged results" }

func (s *LoadStep) Execute(ctx context.Context, rc *RunContext) (string, error) {
	res, err := s.loader.Load(ctx, rc.MergedPath, rc.StorePath)
	if err != nil {
		return "", NewExecutionError(s.ID(), err)
	}
	rc.MergedPath = res.CSVPath
	rc.StorePath = res.StorePath
	rc.RowsLoaded = res.Rows
	return fmt.Sprintf("loaded %d rows, %d with an agreed key", res.Rows, res.KeysAgreed), nil
}

// AnalyzeStep runs the reporter
type AnalyzeStep struct {
	analyzer Analyzer
}

// NewAnalyzeStep creates the analyze step
func NewAnalyzeStep(a Analyzer) *AnalyzeStep { return &AnalyzeStep{analyzer: a} }

func (s *AnalyzeStep) ID() string   { return StepIDAnalyze }
func (s *AnalyzeStep) Name() string { return "Analyze results" }

func (s *AnalyzeStep) Execute(ctx context.Context, rc *RunContext) (string, error) {
	res, err := s.analyzer.Analyze(ctx, rc.StorePath)
	if err != nil {
		return "", NewExecutionError(s.ID(), err)
	}
	rc.StorePath = res.StorePath
	rc.WorkbookPath = res.WorkbookPath
	rc.CSVPaths = res.CSVPaths
	rc.GroupsReported = res.Groups
	return fmt.Sprintf("reported %d groups", res.Groups), nil
}
