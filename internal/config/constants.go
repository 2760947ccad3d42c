package config

// Application constants
const (
	AppName = "regkareport"

	// TimestampLayout stamps every generated artifact (YYYYMMDDHHMMSS).
	// Artifacts of one kind therefore sort chronologically by name.
	TimestampLayout = "20060102150405"

	// Artifact suffixes
	MergedFileSuffix   = "_Result.csv"
	StoreFileSuffix    = "_experiment_results.db"
	WorkbookFileSuffix = "_analysis_results.xlsx"

	// DefaultStoreName is used by the reporter when no timestamped store exists
	DefaultStoreName = "experiment_results.db"

	// Fragment discovery
	DefaultFragmentDir     = "results_cache"
	DefaultFragmentPattern = "*.csv"

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogOutput = "console"
	DefaultLogFile   = "logs/regkareport.log"

	// Telemetry defaults
	DefaultServiceName = "regkareport"
)
