// Package exporter writes report tables to disk.
//
// WriteWorkbook renders a list of tables as the sheets of one xlsx
// workbook, in order. CSVWriter writes a single table as a UTF-8 CSV file
// with a BOM so spreadsheet tools detect the encoding.
//
// Example usage:
//
//	tables := []exporter.Table{{Name: "Delay Analysis", Headers: headers, Rows: rows}}
//	err := exporter.WriteWorkbook("20250301080000_analysis_results.xlsx", tables)
//
//	w := exporter.NewCSVWriter("reports")
//	err = w.WriteTable("20250301080000_delay_analysis.csv", tables[0])
package exporter
