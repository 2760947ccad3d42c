package loader

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

	"regkareport/internal/config"
	apperrors "regkareport/internal/errors"
	"regkareport/internal/store"
)

func newTestLoader(t *testing.T) (*Loader, string) {
	t.Helper()
	dir := t.TempDir()
	l := New(&config.Paths{WorkDir: dir}, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	l.SetClock(func() time.Time { return time.Date(2025, 3, 1, 8, 30, 0, 0, time.Local) })
	return l, dir
}

func writeMerged(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return path
}

func TestLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	l, dir := newTestLoader(t)

	csvPath := writeMerged(t, dir, "20250301080000_Result.csv", sampleLine, sampleLine, sampleLine)

	res, err := l.Load(ctx, csvPath, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Rows)
	assert.Equal(t, filepath.Join(dir, "20250301083000_experiment_results.db"), res.StorePath)

	st, err := store.OpenExisting(res.StorePath)
	require.NoError(t, err)
	defer st.Close()

	n, err := st.CountResults(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	cols, err := st.Columns(ctx)
	require.NoError(t, err)
	assert.NotContains(t, cols, "timestamp")
	assert.NotContains(t, cols, "runId")
}

func TestLoad_CountsAgreedKeys(t *testing.T) {
	l, dir := newTestLoader(t)

	failed := "2025-03-01 08:00:00,300,300,80,50,very_poor,3,0,120,0,0,0,0"
	noDelay := "2025-03-01 08:00:00,300,300,80,50,very_poor,3,,120,0,0,0,0"
	csvPath := writeMerged(t, dir, "20250301080000_Result.csv", sampleLine, failed, noDelay, sampleLine)

	res, err := l.Load(context.Background(), csvPath, "")
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Rows)
	assert.Equal(t, 2, res.KeysAgreed)
}

func TestLoad_ReplaceSemantics(t *testing.T) {
	ctx := context.Background()
	l, dir := newTestLoader(t)

	first := writeMerged(t, dir, "20250301080000_Result.csv", sampleLine, sampleLine, sampleLine)
	second := writeMerged(t, dir, "20250301090000_Result.csv", sampleLine, sampleLine)

	res, err := l.Load(ctx, first, "results.db")
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Rows)

	res, err = l.Load(ctx, second, "results.db")
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Rows)
	assert.Equal(t, filepath.Join(dir, "results.db"), res.StorePath)
}

func TestLoad_SelectsNewestMergedFile(t *testing.T) {
	l, dir := newTestLoader(t)

	writeMerged(t, dir, "20250301080000_Result.csv", sampleLine)
	newest := writeMerged(t, dir, "20250302080000_Result.csv", sampleLine, sampleLine)

	res, err := l.Load(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, newest, res.CSVPath)
	assert.Equal(t, int64(2), res.Rows)
}

func TestLoad_Failures(t *testing.T) {
	t.Run("no merged file available", func(t *testing.T) {
		l, dir := newTestLoader(t)
		_, err := l.Load(context.Background(), "", "")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
		assertNoStore(t, dir)
	})

	t.Run("explicit file missing", func(t *testing.T) {
		l, dir := newTestLoader(t)
		_, err := l.Load(context.Background(), "20250301080000_Result.csv", "")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
		assertNoStore(t, dir)
	})

	t.Run("malformed line", func(t *testing.T) {
		l, dir := newTestLoader(t)
		path := writeMerged(t, dir, "20250301080000_Result.csv", sampleLine, "garbage")
		_, err := l.Load(context.Background(), path, "")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
		assertNoStore(t, dir)
	})
}

func TestLoad_EmptyMergedFile(t *testing.T) {
	l, dir := newTestLoader(t)
	path := writeMerged(t, dir, "20250301080000_Result.csv")

	res, err := l.Load(context.Background(), path, "")
	require.NoError(t, err)
	assert.Zero(t, res.Rows)
}

func assertNoStore(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.db"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}
