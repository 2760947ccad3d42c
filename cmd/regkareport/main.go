// Command regkareport merges REGKA experiment result fragments, loads them
// into a SQLite store and writes the aggregate analysis workbook.
//
// Usage:
//
//	regkareport                 # merge, load and analyze in one run
//	regkareport merge
//	regkareport load --csv-file 20250301080000_Result.csv
//	regkareport analyze --db 20250301080000_experiment_results.db
package main

import (
	"os"

	"regkareport/internal/pipeline"
)

func main() {
	a := &app{}
	err := newRootCmd(a).Execute()
	a.close()

	if err != nil {
		if pipeline.IsFatal(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
