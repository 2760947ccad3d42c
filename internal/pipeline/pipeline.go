// Package pipeline runs the merge, load and analyze steps in sequence.
//
// Steps share a RunContext holding explicit file paths. The first failing
// step stops the run and every later step is marked skipped; there is no
// retry. Failures are OperationErrors whose type tells fatal aborts from
// reported failures.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"regkareport/internal/infrastructure"
)

// Pipeline runs steps in order
type Pipeline struct {
	steps     []Step
	states    []*StepState
	logger    *slog.Logger
	telemetry *infrastructure.Telemetry
}

// New creates a pipeline. telemetry may be nil.
func New(logger *slog.Logger, telemetry *infrastructure.Telemetry, steps ...Step) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	states := make([]*StepState, len(steps))
	for i, s := range steps {
		states[i] = NewStepState(s.ID(), s.Name())
	}
	return &Pipeline{steps: steps, states: states, logger: logger, telemetry: telemetry}
}

// States returns the step states in run order
func (p *Pipeline) States() []*StepState {
	return p.states
}

// Run executes every step against rc. It returns the first step error.
func (p *Pipeline) Run(ctx context.Context, rc *RunContext) error {
	ctx, span := p.telemetry.StartSpan(ctx, "pipeline",
		attribute.String("run_id", rc.RunID),
		attribute.Int("steps", len(p.steps)))
	defer span.End()

	start := time.Now()
	p.logger.InfoContext(ctx, "operation_start",
		slog.Int("steps", len(p.steps)),
		slog.String("work_dir", rc.WorkDir))

	for i, step := range p.steps {
		if err := p.runStep(ctx, step, p.states[i], rc); err != nil {
			for _, rest := range p.states[i+1:] {
				rest.Skip("previous step " + step.ID() + " failed")
				p.logger.WarnContext(ctx, "stage_skipped", slog.String("step", rest.ID))
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			p.logger.ErrorContext(ctx, "operation_error",
				slog.String("step", step.ID()),
				slog.String("severity", string(GetErrorType(err))),
				slog.String("error", err.Error()))
			return err
		}
	}

	p.logger.InfoContext(ctx, "operation_complete",
		slog.Duration("duration", time.Since(start)),
		slog.String("merged", rc.MergedPath),
		slog.String("store", rc.StorePath),
		slog.String("workbook", rc.WorkbookPath))
	return nil
}

func (p *Pipeline) runStep(ctx context.Context, step Step, state *StepState, rc *RunContext) error {
	ctx, span := p.telemetry.StartSpan(ctx, step.ID(), attribute.String("step.name", step.Name()))
	defer span.End()

	p.logger.InfoContext(ctx, "stage_start",
		slog.String("step", step.ID()),
		slog.String("name", step.Name()))

	state.Start()
	summary, err := step.Execute(ctx, rc)
	if err != nil {
		state.Fail(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		state.Complete(summary)
	}
	p.metrics().RecordStep(ctx, step.ID(), state.Duration(), err)

	if err != nil {
		return err
	}
	p.recordCounters(ctx, step.ID(), rc)

	p.logger.InfoContext(ctx, "stage_complete",
		slog.String("step", step.ID()),
		slog.String("summary", summary),
		slog.Duration("duration", state.Duration()))
	return nil
}

func (p *Pipeline) metrics() *infrastructure.PipelineMetrics {
	if p.telemetry == nil {
		return nil
	}
	return p.telemetry.Metrics
}

// recordCounters adds the output counters of a completed step.
func (p *Pipeline) recordCounters(ctx context.Context, stepID string, rc *RunContext) {
	m := p.metrics()
	if m == nil {
		return
	}
	switch stepID {
	case StepIDMerge:
		m.FragmentsMerged.Add(ctx, int64(rc.FragmentsMerged))
		m.LinesMerged.Add(ctx, int64(rc.LinesMerged))
	case StepIDLoad:
		m.RowsLoaded.Add(ctx, rc.RowsLoaded)
	case StepIDAnalyze:
		m.GroupsReported.Add(ctx, int64(rc.GroupsReported))
	}
}
