// Package analysis builds the aggregate experiment report from a result
// store and writes it as a workbook.
//
// All three report sheets share one bucket ordering, CompareBuckets, and
// one rounding policy: delays to four places, ratios to two places,
// packet averages half up to integers.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"regkareport/internal/config"
	apperrors "regkareport/internal/errors"
	"regkareport/internal/exporter"
	"regkareport/internal/files"
	"regkareport/internal/store"
)

// Result describes a written report
type Result struct {
	StorePath    string
	WorkbookPath string
	CSVPaths     []string
	Groups       int
}

// Reporter turns a result store into an analysis workbook
type Reporter struct {
	paths     *config.Paths
	discovery *files.Discovery
	csv       *exporter.CSVWriter
	logger    *slog.Logger
	now       func() time.Time
}

// NewReporter creates a reporter. When csv is non-nil every sheet is also
// exported as a CSV file.
func NewReporter(paths *config.Paths, csv *exporter.CSVWriter, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		paths:     paths,
		discovery: files.NewDiscovery(paths.WorkDir),
		csv:       csv,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock overrides the clock used to name the workbook
func (r *Reporter) SetClock(now func() time.Time) {
	r.now = now
}

// Analyze reads storePath and writes <timestamp>_analysis_results.xlsx to
// the work dir. An empty storePath selects the newest timestamped store,
// falling back to experiment_results.db. A missing store is reported as a
// not-found error.
func (r *Reporter) Analyze(ctx context.Context, storePath string) (*Result, error) {
	storePath, err := r.resolveStore(storePath)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to locate store", slog.String("error", err.Error()))
		return nil, err
	}

	st, err := store.OpenExisting(storePath, store.WithLogger(r.logger))
	if err != nil {
		r.logger.ErrorContext(ctx, "Store not available",
			slog.String("store_path", storePath),
			slog.String("error", err.Error()))
		return nil, err
	}
	defer st.Close()

	r.logger.InfoContext(ctx, "Analyzing results", slog.String("store_path", storePath))

	report, err := BuildReport(ctx, st)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to aggregate results",
			slog.String("store_path", storePath),
			slog.String("error", err.Error()))
		return nil, err
	}

	stamp := r.now()
	tables := Tables(report)
	workbookPath := r.paths.WorkbookFile(stamp)
	if err := exporter.WriteWorkbook(workbookPath, tables); err != nil {
		return nil, apperrors.NewIOError("failed to write workbook", err)
	}

	res := &Result{
		StorePath:    storePath,
		WorkbookPath: workbookPath,
		Groups:       report.Groups(),
	}

	if r.csv != nil {
		for _, table := range tables {
			name := fmt.Sprintf("%s_%s.csv", stamp.Format(config.TimestampLayout), table.Slug())
			if err := r.csv.WriteTable(name, table); err != nil {
				return nil, apperrors.NewIOError(fmt.Sprintf("failed to export %s", table.Name), err)
			}
			res.CSVPaths = append(res.CSVPaths, r.csv.Path(name))
		}
	}

	r.logger.InfoContext(ctx, "Analysis written",
		slog.String("workbook", workbookPath),
		slog.Int("groups", res.Groups),
		slog.Int("csv_files", len(res.CSVPaths)))

	return res, nil
}

func (r *Reporter) resolveStore(storePath string) (string, error) {
	if storePath != "" {
		return r.paths.Resolve(storePath), nil
	}

	latest, ok, err := r.discovery.FindLatest(r.paths.WorkDir, config.StorePattern())
	if err != nil {
		return "", apperrors.NewIOError("failed to scan for stores", err)
	}
	if ok {
		return latest.Path, nil
	}
	return r.paths.DefaultStoreFile(), nil
}
