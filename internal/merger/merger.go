// Package merger concatenates experiment result fragments into one
// timestamped merged file and removes the fragments afterwards.
package merger

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"regkareport/internal/config"
	apperrors "regkareport/internal/errors"
	"regkareport/internal/files"
)

// Result describes a completed merge
type Result struct {
	OutputPath   string
	FilesMerged  int
	LinesWritten int
	FilesDeleted int
}

// Merger merges fragment files
type Merger struct {
	paths     *config.Paths
	pattern   string
	discovery *files.Discovery
	manager   *files.Manager
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a merger reading fragments matching pattern
func New(paths *config.Paths, pattern string, logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.Default()
	}
	if pattern == "" {
		pattern = config.DefaultFragmentPattern
	}
	return &Merger{
		paths:     paths,
		pattern:   pattern,
		discovery: files.NewDiscovery(paths.WorkDir),
		manager:   files.NewManager(paths.WorkDir, logger),
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock overrides the clock used to name the merged file
func (m *Merger) SetClock(now func() time.Time) {
	m.now = now
}

// Merge writes every non-empty line of every fragment in fragmentDir, in
// file name order then line order, to outPath. Empty arguments default to
// the configured fragment dir and a timestamped file in the work dir.
//
// Merged fragments are deleted once the output is complete. A fragment
// that cannot be read aborts the merge, leaving the partial output and
// every fragment in place.
func (m *Merger) Merge(ctx context.Context, fragmentDir, outPath string) (*Result, error) {
	if fragmentDir == "" {
		fragmentDir = m.paths.FragmentDir
	}
	if outPath == "" {
		outPath = m.paths.MergedFile(m.now())
	} else {
		outPath = m.paths.Resolve(outPath)
	}

	fragments, err := m.discovery.FindFragments(fragmentDir, m.pattern)
	if err != nil {
		return nil, apperrors.NewIOError(fmt.Sprintf("failed to list fragments in %s", fragmentDir), err)
	}
	fragments = excludeMerged(fragments, outPath)

	m.logger.InfoContext(ctx, "Merging result fragments",
		slog.String("fragment_dir", fragmentDir),
		slog.Int("fragments", len(fragments)),
		slog.String("output", outPath))

	if err := m.manager.EnsureDirectory(filepath.Dir(outPath)); err != nil {
		return nil, apperrors.NewIOError("failed to prepare output directory", err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return nil, apperrors.NewIOError(fmt.Sprintf("failed to create %s", outPath), err)
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	lines := 0
	for _, frag := range fragments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := copyLines(w, frag.Path)
		if err != nil {
			m.logger.ErrorContext(ctx, "Failed to read fragment",
				slog.String("fragment", frag.Path),
				slog.String("error", err.Error()))
			return nil, apperrors.NewIOError(fmt.Sprintf("failed to read fragment %s", frag.Name), err)
		}
		lines += n
	}

	if err := w.Flush(); err != nil {
		return nil, apperrors.NewIOError(fmt.Sprintf("failed to write %s", outPath), err)
	}
	if err := out.Close(); err != nil {
		return nil, apperrors.NewIOError(fmt.Sprintf("failed to close %s", outPath), err)
	}

	deleted := m.manager.DeleteFiles(fragments)

	m.logger.InfoContext(ctx, "Fragments merged",
		slog.String("output", outPath),
		slog.Int("files_merged", len(fragments)),
		slog.Int("lines_written", lines),
		slog.Int("files_deleted", deleted))

	return &Result{
		OutputPath:   outPath,
		FilesMerged:  len(fragments),
		LinesWritten: lines,
		FilesDeleted: deleted,
	}, nil
}

// excludeMerged drops earlier merged outputs and outPath itself, which
// match the fragment pattern when the fragment dir is the work dir.
func excludeMerged(fragments []files.FileInfo, outPath string) []files.FileInfo {
	kept := fragments[:0]
	for _, f := range fragments {
		if merged, _ := filepath.Match(config.MergedPattern(), f.Name); merged {
			continue
		}
		if filepath.Clean(f.Path) == filepath.Clean(outPath) {
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

// copyLines appends the non-blank lines of path to w, trimmed of
// surrounding whitespace and each terminated by a newline, and returns how
// many were written.
func copyLines(w *bufio.Writer, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	n := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if _, err := w.WriteString(line); err != nil {
			return n, err
		}
		if err := w.WriteByte('\n'); err != nil {
			return n, err
		}
		n++
	}
	return n, scanner.Err()
}
