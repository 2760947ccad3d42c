package pipeline

import "regkareport/internal/config"

// RunContext carries explicit file paths and counters between steps.
// Each step reads its input path from here and records its output path,
// so a later step never rediscovers an earlier step's file. An empty
// input path lets the step fall back to the newest matching file.
type RunContext struct {
	RunID string

	WorkDir     string
	FragmentDir string

	MergedPath   string
	StorePath    string
	WorkbookPath string
	CSVPaths     []string

	FragmentsMerged int
	LinesMerged     int
	RowsLoaded      int64
	GroupsReported  int
}

// NewRunContext seeds a run context from resolved paths
func NewRunContext(runID string, paths *config.Paths) *RunContext {
	return &RunContext{
		RunID:       runID,
		WorkDir:     paths.WorkDir,
		FragmentDir: paths.FragmentDir,
	}
}
