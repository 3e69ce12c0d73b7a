// Package export writes analysis tables as spreadsheets, JSON mirrors and console tables.
package export

import (
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/theimaginaryfoundation/interview-helper/analysis"
	"github.com/theimaginaryfoundation/interview-helper/analysis/fileutils"
)

// maxCellChars is the spreadsheet cell limit; longer text is cut and marked.
const maxCellChars = excelize.TotalCellChars

const sheetName = "Sheet1"

// EncodeXLSX renders t as a single-sheet workbook with a header row.
func EncodeXLSX(t analysis.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := setRow(f, 1, header); err != nil {
		return nil, fmt.Errorf("EncodeXLSX %s: header: %w", t.Name, err)
	}
	for i, row := range t.Rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = cellValue(v)
		}
		if err := setRow(f, i+2, cells); err != nil {
			return nil, fmt.Errorf("EncodeXLSX %s: row %d: %w", t.Name, i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("EncodeXLSX %s: %w", t.Name, err)
	}
	return buf.Bytes(), nil
}

// WriteXLSX writes t to path atomically.
func WriteXLSX(path string, t analysis.Table) error {
	data, err := EncodeXLSX(t)
	if err != nil {
		return err
	}
	if err := fileutils.WriteFileAtomicSameDir(path, data, 0o644); err != nil {
		return fmt.Errorf("WriteXLSX %s: %w", path, err)
	}
	return nil
}

func setRow(f *excelize.File, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheetName, cell, &cells)
}

func cellValue(v any) any {
	s, ok := v.(string)
	if !ok || utf8.RuneCountInString(s) <= maxCellChars {
		return v
	}
	return fileutils.Truncate(s, maxCellChars-1)
}
