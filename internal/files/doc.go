// Package files provides file discovery and management for the pipeline.
//
// Discovery finds fragment files in merge order (ascending name) and the
// newest timestamped artifact of a kind (descending name). Manager removes
// merged fragments and checks for inputs.
//
// Example usage:
//
//	discovery := files.NewDiscovery(workDir)
//	fragments, err := discovery.FindFragments("results_cache", "*.csv")
//
//	latest, ok, err := discovery.FindLatest(".", "*_Result.csv")
//
//	manager := files.NewManager(workDir, logger)
//	removed := manager.DeleteFiles(fragments)
package files
