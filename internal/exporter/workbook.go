package exporter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// WriteWorkbook writes tables as the sheets of a new xlsx workbook at
// path, in the given order, each with a header row. Any existing file is
// replaced.
func WriteWorkbook(path string, tables []Table) (err error) {
	if len(tables) == 0 {
		return errors.New("workbook needs at least one sheet")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for i, table := range tables {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), table.Name); err != nil {
				return fmt.Errorf("failed to name sheet %q: %w", table.Name, err)
			}
		} else if _, err := f.NewSheet(table.Name); err != nil {
			return fmt.Errorf("failed to add sheet %q: %w", table.Name, err)
		}

		if err := writeSheet(f, table); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	return nil
}

func writeSheet(f *excelize.File, table Table) error {
	for col, header := range table.Headers {
		if err := setCell(f, table.Name, col, 1, header); err != nil {
			return err
		}
	}

	for r, row := range table.Rows {
		for col, value := range row {
			value = cellValue(value)
			if value == nil {
				continue
			}
			if err := setCell(f, table.Name, col, r+2, value); err != nil {
				return err
			}
		}
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col+1, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("failed to set %s!%s: %w", sheet, cell, err)
	}
	return nil
}
