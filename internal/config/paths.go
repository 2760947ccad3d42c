package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Paths resolves every file the pipeline reads or writes. All artifacts
// live in WorkDir; fragments live in FragmentDir.
type Paths struct {
	WorkDir     string
	FragmentDir string
	CSVDir      string
}

// NewPaths resolves the pipeline configuration into absolute paths
func NewPaths(cfg PipelineConfig, report ReportConfig) (*Paths, error) {
	workDir, err := filepath.Abs(cfg.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve work dir %s: %w", cfg.WorkDir, err)
	}

	return &Paths{
		WorkDir:     workDir,
		FragmentDir: resolveUnder(workDir, cfg.FragmentDir),
		CSVDir:      resolveUnder(workDir, report.CSVDir),
	}, nil
}

func resolveUnder(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// MergedFile returns <timestamp>_Result.csv in the work dir
func (p *Paths) MergedFile(t time.Time) string {
	return filepath.Join(p.WorkDir, t.Format(TimestampLayout)+MergedFileSuffix)
}

// StoreFile returns <timestamp>_experiment_results.db in the work dir
func (p *Paths) StoreFile(t time.Time) string {
	return filepath.Join(p.WorkDir, t.Format(TimestampLayout)+StoreFileSuffix)
}

// WorkbookFile returns <timestamp>_analysis_results.xlsx in the work dir
func (p *Paths) WorkbookFile(t time.Time) string {
	return filepath.Join(p.WorkDir, t.Format(TimestampLayout)+WorkbookFileSuffix)
}

// DefaultStoreFile is the reporter's fallback store
func (p *Paths) DefaultStoreFile() string {
	return filepath.Join(p.WorkDir, DefaultStoreName)
}

// MergedPattern matches merged files for newest-file lookup
func MergedPattern() string { return "*" + MergedFileSuffix }

// StorePattern matches timestamped stores for newest-file lookup
func StorePattern() string { return "*" + StoreFileSuffix }

// Resolve makes a caller-supplied path absolute relative to the work dir
func (p *Paths) Resolve(path string) string {
	return resolveUnder(p.WorkDir, path)
}

// EnsureDirectories creates the work and fragment directories
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.WorkDir, p.FragmentDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
