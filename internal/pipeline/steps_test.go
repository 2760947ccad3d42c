package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"regkareport/internal/analysis"
	"regkareport/internal/config"
	"regkareport/internal/infrastructure"
	"regkareport/internal/loader"
	"regkareport/internal/merger"
)

func newSteps(t *testing.T, paths *config.Paths, logger *slog.Logger) []Step {
	t.Helper()
	now := func() time.Time { return time.Date(2025, 3, 1, 8, 0, 0, 0, time.Local) }

	m := merger.New(paths, "", logger)
	m.SetClock(now)
	l := loader.New(paths, logger)
	l.SetClock(now)
	r := analysis.NewReporter(paths, nil, logger)
	r.SetClock(now)

	return []Step{NewMergeStep(m), NewLoadStep(l), NewAnalyzeStep(r)}
}

func TestPipeline_EndToEnd(t *testing.T) {
	work := t.TempDir()
	paths := &config.Paths{WorkDir: work, FragmentDir: filepath.Join(work, "results_cache")}
	require.NoError(t, paths.EnsureDirectories())

	fragments := map[string][]string{
		"300*300*80_50_high_1.csv": {
			"2025-03-01 07:00:00,300,300,80,50,high,1,0,4,3,1.2,0,2",
			"2025-03-01 07:00:01,300,300,80,50,high,2,5.0,4,3,1.2,100,2",
		},
		"300*300*80_50_high_2.csv": {
			"2025-03-01 07:00:02,300,300,80,50,high,3,10.0,5,3,1.2,100,2",
		},
		"500*500*150_20_low_1.csv": {
			"2025-03-01 07:00:03,500,500,150,20,low,1,0,4,0,0,0,0",
		},
	}
	for name, lines := range fragments {
		require.NoError(t, os.WriteFile(filepath.Join(paths.FragmentDir, name), []byte(strings.Join(lines, "\n")+"\n"), 0644))
	}

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	textfile := filepath.Join(work, "metrics", "regka.prom")
	tel, err := infrastructure.InitializeTelemetry(config.TelemetryConfig{
		ServiceName:     "regkareport-test",
		MetricsTextfile: textfile,
	}, "test", logger)
	require.NoError(t, err)

	p := New(logger, tel, newSteps(t, paths, logger)...)
	rc := NewRunContext("run-1", paths)

	require.NoError(t, p.Run(context.Background(), rc))

	assert.Equal(t, filepath.Join(work, "20250301080000_Result.csv"), rc.MergedPath)
	assert.Equal(t, filepath.Join(work, "20250301080000_experiment_results.db"), rc.StorePath)
	assert.Equal(t, filepath.Join(work, "20250301080000_analysis_results.xlsx"), rc.WorkbookPath)
	assert.Equal(t, 3, rc.FragmentsMerged)
	assert.Equal(t, 4, rc.LinesMerged)
	assert.Equal(t, int64(4), rc.RowsLoaded)
	assert.Equal(t, 2, rc.GroupsReported)

	left, err := os.ReadDir(paths.FragmentDir)
	require.NoError(t, err)
	assert.Empty(t, left)

	f, err := excelize.OpenFile(rc.WorkbookPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(analysis.SuccessSheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"high", "300*300*80", "50", "3", "2", "66.67"}, rows[1])
	assert.Equal(t, []string{"low", "500*500*150", "20", "1", "0", "0"}, rows[2])

	require.NoError(t, tel.Shutdown(context.Background()))
	metrics, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "regka_rows_loaded")
}

func TestPipeline_LoadFailureIsReported(t *testing.T) {
	work := t.TempDir()
	paths := &config.Paths{WorkDir: work, FragmentDir: filepath.Join(work, "results_cache")}
	require.NoError(t, paths.EnsureDirectories())
	require.NoError(t, os.WriteFile(filepath.Join(paths.FragmentDir, "001.csv"), []byte("not,a,result\n"), 0644))

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	p := New(logger, nil, newSteps(t, paths, logger)...)
	rc := NewRunContext("run-2", paths)

	err := p.Run(context.Background(), rc)
	require.Error(t, err)
	assert.Equal(t, ErrorTypeExecution, GetErrorType(err))

	states := p.States()
	assert.Equal(t, StepStatusCompleted, states[0].Status)
	assert.Equal(t, StepStatusFailed, states[1].Status)
	assert.Equal(t, StepStatusSkipped, states[2].Status)

	assert.Empty(t, rc.StorePath)
	matches, _ := filepath.Glob(filepath.Join(work, "*.xlsx"))
	assert.Empty(t, matches)
}

func TestPipeline_EmptyFragmentsStillReports(t *testing.T) {
	work := t.TempDir()
	paths := &config.Paths{WorkDir: work, FragmentDir: filepath.Join(work, "results_cache")}

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	p := New(logger, nil, newSteps(t, paths, logger)...)
	rc := NewRunContext("run-3", paths)

	require.NoError(t, p.Run(context.Background(), rc))
	assert.Zero(t, rc.FragmentsMerged)
	assert.Zero(t, rc.RowsLoaded)
	assert.Zero(t, rc.GroupsReported)

	f, err := excelize.OpenFile(rc.WorkbookPath)
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, f.GetSheetList(), 3)
}

func TestMergeStep_FailureIsFatal(t *testing.T) {
	work := t.TempDir()
	paths := &config.Paths{WorkDir: work, FragmentDir: filepath.Join(work, "results_cache")}
	require.NoError(t, paths.EnsureDirectories())
	require.NoError(t, os.WriteFile(filepath.Join(paths.FragmentDir, "001.csv"), []byte(strings.Repeat("x", 2<<20)), 0644))

	step := NewMergeStep(merger.New(paths, "", slog.New(slog.NewJSONHandler(io.Discard, nil))))
	_, err := step.Execute(context.Background(), NewRunContext("run-4", paths))
	require.Error(t, err)
	assert.True(t, IsFatal(err))
}
