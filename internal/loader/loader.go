// Package loader turns a merged result file into the experiment_results
// table of a SQLite store.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"regkareport/internal/config"
	apperrors "regkareport/internal/errors"
	"regkareport/internal/files"
	"regkareport/internal/store"
)

// Result describes a completed load
type Result struct {
	CSVPath    string
	StorePath  string
	Rows       int64
	KeysAgreed int
}

// Loader loads merged result files
type Loader struct {
	paths     *config.Paths
	discovery *files.Discovery
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a loader rooted at the configured work dir
func New(paths *config.Paths, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		paths:     paths,
		discovery: files.NewDiscovery(paths.WorkDir),
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock overrides the clock used to name generated stores
func (l *Loader) SetClock(now func() time.Time) {
	l.now = now
}

// Load parses csvPath and replaces the result table of storePath with its
// rows. An empty csvPath selects the newest merged file in the work dir and
// an empty storePath generates a timestamped store name. The input is fully
// parsed before the store is opened, so a missing or malformed file leaves
// no store behind.
func (l *Loader) Load(ctx context.Context, csvPath, storePath string) (*Result, error) {
	csvPath, err := l.resolveInput(csvPath)
	if err != nil {
		l.logger.ErrorContext(ctx, "No merged file to load",
			slog.String("work_dir", l.paths.WorkDir),
			slog.String("error", err.Error()))
		return nil, err
	}

	if !config.FileExists(csvPath) {
		err := apperrors.NewNotFoundError(fmt.Sprintf("merged file %s", csvPath))
		l.logger.ErrorContext(ctx, "Merged file does not exist", slog.String("csv_path", csvPath))
		return nil, err
	}

	l.logger.InfoContext(ctx, "Loading merged results", slog.String("csv_path", csvPath))

	records, err := ParseFile(csvPath)
	if err != nil {
		l.logger.ErrorContext(ctx, "Failed to parse merged file",
			slog.String("csv_path", csvPath),
			slog.String("error", err.Error()))
		return nil, err
	}

	if storePath == "" {
		storePath = l.paths.StoreFile(l.now())
	} else {
		storePath = l.paths.Resolve(storePath)
	}

	st, err := store.Open(storePath, store.WithMkdirAll(), store.WithLogger(l.logger))
	if err != nil {
		l.logger.ErrorContext(ctx, "Failed to open store",
			slog.String("store_path", storePath),
			slog.String("error", err.Error()))
		return nil, err
	}
	defer st.Close()

	count, err := st.ReplaceResults(ctx, records)
	if err != nil {
		l.logger.ErrorContext(ctx, "Failed to store results",
			slog.String("store_path", storePath),
			slog.String("error", err.Error()))
		return nil, err
	}

	if count != int64(len(records)) {
		err := apperrors.NewStorageError(
			fmt.Sprintf("row count mismatch: parsed %d, stored %d", len(records), count), nil)
		l.logger.ErrorContext(ctx, "Stored row count does not match parsed rows",
			slog.Int("parsed", len(records)),
			slog.Int64("stored", count))
		return nil, err
	}

	agreed := 0
	for _, r := range records {
		if r.KeyAgreed() {
			agreed++
		}
	}

	l.logger.InfoContext(ctx, "Results loaded",
		slog.String("csv_path", csvPath),
		slog.String("store_path", storePath),
		slog.Int64("rows", count),
		slog.Int("keys_agreed", agreed))

	return &Result{CSVPath: csvPath, StorePath: storePath, Rows: count, KeysAgreed: agreed}, nil
}

func (l *Loader) resolveInput(csvPath string) (string, error) {
	if csvPath != "" {
		return l.paths.Resolve(csvPath), nil
	}

	latest, ok, err := l.discovery.FindLatest(l.paths.WorkDir, config.MergedPattern())
	if err != nil {
		return "", apperrors.NewIOError("failed to scan for merged files", err)
	}
	if !ok {
		return "", apperrors.NewNotFoundError(fmt.Sprintf("merged file matching %s", config.MergedPattern()))
	}
	return latest.Path, nil
}
