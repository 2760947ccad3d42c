// Package config provides configuration management for the experiment
// reporting pipeline.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. A YAML configuration file (--config, regkareport.yaml, configs/regkareport.yaml)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern REGKA_<SECTION>_<FIELD>:
//
//	REGKA_PIPELINE_WORK_DIR=/data/runs
//	REGKA_PIPELINE_FRAGMENT_DIR=results_cache
//	REGKA_LOGGING_LEVEL=debug
//	REGKA_REPORT_EXPORT_CSV=true
//	REGKA_TELEMETRY_METRICS_TEXTFILE=/var/lib/node_exporter/regka.prom
//
// # Path Management
//
// Paths resolves the timestamped artifacts of each stage:
//
//	paths, _ := config.NewPaths(cfg.Pipeline, cfg.Report)
//	merged := paths.MergedFile(time.Now())   // <YYYYMMDDHHMMSS>_Result.csv
//	store := paths.StoreFile(time.Now())     // <YYYYMMDDHHMMSS>_experiment_results.db
//	book := paths.WorkbookFile(time.Now())   // <YYYYMMDDHHMMSS>_analysis_results.xlsx
package config
