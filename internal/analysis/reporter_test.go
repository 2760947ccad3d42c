package analysis

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"regkareport/internal/config"
	apperrors "regkareport/internal/errors"
	"regkareport/internal/exporter"
	"regkareport/internal/store"
	"regkareport/pkg/contracts/domain"
)

var reportTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.Local)

func newTestReporter(t *testing.T, csv bool) (*Reporter, *config.Paths) {
	t.Helper()
	dir := t.TempDir()
	paths := &config.Paths{WorkDir: dir, CSVDir: filepath.Join(dir, "reports")}

	var w *exporter.CSVWriter
	if csv {
		w = exporter.NewCSVWriter(paths.CSVDir)
	}
	r := NewReporter(paths, w, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	r.SetClock(func() time.Time { return reportTime })
	return r, paths
}

func result(q string, nodes int64, delay, successRate float64) domain.ResultRecord {
	return domain.ResultRecord{
		AreaLength: 300, AreaWidth: 300, AreaHeight: 80, NumNodes: nodes,
		LinkQuality: q, KeyAgreementDelay: delay,
		TotalSent: 4, TotalReceived: 3, SuccessRate: successRate, AvgUniqueContributions: 2,
	}
}

func seedStore(t *testing.T, path string, records ...domain.ResultRecord) {
	t.Helper()
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()
	_, err = st.ReplaceResults(context.Background(), records)
	require.NoError(t, err)
}

func TestAnalyze_Scenario(t *testing.T) {
	r, paths := newTestReporter(t, false)
	storePath := filepath.Join(paths.WorkDir, "20250301080000_experiment_results.db")

	odd := result("high", 50, 5.0, 100)
	odd.TotalSent = 5
	seedStore(t, storePath,
		result("high", 50, 0, 0),
		result("high", 50, 5.0, 100),
		result("high", 50, 10.0, 100),
		odd,
		result("medium", 20, 0, 0),
	)

	res, err := r.Analyze(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, storePath, res.StorePath)
	assert.Equal(t, filepath.Join(paths.WorkDir, "20250301090000_analysis_results.xlsx"), res.WorkbookPath)
	assert.Equal(t, 2, res.Groups)
	assert.Empty(t, res.CSVPaths)

	f, err := excelize.OpenFile(res.WorkbookPath)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{DelaySheet, PacketSheet, SuccessSheet}, f.GetSheetList())

	delay, err := f.GetRows(DelaySheet)
	require.NoError(t, err)
	require.Len(t, delay, 3)
	assert.Equal(t, []string{"LinkQuality", "AreaSize", "NodeCount", "TotalCount", "SuccessCount", "AvgDelay", "MinDelay", "MaxDelay"}, delay[0])
	assert.Equal(t, []string{"high", "300*300*80", "50", "4", "3", "6.6667", "5", "10"}, delay[1])
	assert.Equal(t, []string{"medium", "300*300*80", "20", "1", "0"}, delay[2])

	packets, err := f.GetRows(PacketSheet)
	require.NoError(t, err)
	// sent averages (4+4+4+5)/4 = 4.25 -> 4
	assert.Equal(t, []string{"high", "300*300*80", "50", "4", "4", "3", "2"}, packets[1])

	success, err := f.GetRows(SuccessSheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"high", "300*300*80", "50", "4", "3", "75"}, success[1])
	assert.Equal(t, []string{"medium", "300*300*80", "20", "1", "0", "0"}, success[2])
}

func TestAnalyze_SuccessDefinitions(t *testing.T) {
	r, paths := newTestReporter(t, true)
	storePath := filepath.Join(paths.WorkDir, "custom.db")
	seedStore(t, storePath,
		result("high", 50, 0, 0),
		result("high", 50, 5.0, 100),
		result("high", 50, 10.0, 100),
	)

	res, err := r.Analyze(context.Background(), "custom.db")
	require.NoError(t, err)
	require.Len(t, res.CSVPaths, 3)
	assert.Equal(t, filepath.Join(paths.CSVDir, "20250301090000_success_rate_analysis.csv"), res.CSVPaths[2])

	f, err := excelize.OpenFile(res.WorkbookPath)
	require.NoError(t, err)
	defer f.Close()

	delay, err := f.GetRows(DelaySheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"high", "300*300*80", "50", "3", "2", "7.5", "5", "10"}, delay[1])

	success, err := f.GetRows(SuccessSheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"high", "300*300*80", "50", "3", "2", "66.67"}, success[1])

	for _, p := range res.CSVPaths {
		_, err := os.Stat(p)
		assert.NoError(t, err)
	}
}

func TestAnalyze_FallsBackToDefaultStore(t *testing.T) {
	r, paths := newTestReporter(t, false)
	seedStore(t, paths.DefaultStoreFile(), result("low", 10, 1, 100))

	res, err := r.Analyze(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, paths.DefaultStoreFile(), res.StorePath)
	assert.Equal(t, 1, res.Groups)
}

func TestAnalyze_PrefersNewestStore(t *testing.T) {
	r, paths := newTestReporter(t, false)
	seedStore(t, filepath.Join(paths.WorkDir, "20250101000000_experiment_results.db"), result("low", 10, 1, 100))
	newest := filepath.Join(paths.WorkDir, "20250201000000_experiment_results.db")
	seedStore(t, newest, result("low", 10, 1, 100), result("high", 10, 1, 100))

	res, err := r.Analyze(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, newest, res.StorePath)
	assert.Equal(t, 2, res.Groups)
}

func TestAnalyze_MissingStore(t *testing.T) {
	r, paths := newTestReporter(t, false)

	_, err := r.Analyze(context.Background(), "")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))

	_, statErr := os.Stat(paths.DefaultStoreFile())
	assert.True(t, os.IsNotExist(statErr), "analyze never creates a store")

	matches, _ := filepath.Glob(filepath.Join(paths.WorkDir, "*.xlsx"))
	assert.Empty(t, matches)
}
