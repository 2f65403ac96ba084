// Package report writes per-channel profile tables to a spreadsheet.
package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// FileSuffix ends every report file name
const FileSuffix = "_intensity-raw-output.xlsx"

// IndexHeader heads the image id column
const IndexHeader = "id"

// maxSheetName is the longest sheet name a workbook accepts
const maxSheetName = 31

// Row is the normalized profile of one image
type Row struct {
	ID     string
	Values []float64
}

// Table is one sheet: a channel's profiles for every processed image
type Table struct {
	Channel string
	Columns []string
	Rows    []Row
}

// FileName returns the report name for a run started at t
func FileName(t time.Time) string {
	return t.Format("20060102-150405") + FileSuffix
}

// SheetName maps a channel identifier onto a valid sheet name
func SheetName(channel string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '_'
		}
		return r
	}, channel)
	if name == "" {
		name = "channel"
	}
	if runes := []rune(name); len(runes) > maxSheetName {
		name = string(runes[:maxSheetName])
	}
	return name
}

// CheckSheetNames returns an error when two channels map onto the same
// sheet name
func CheckSheetNames(channels []string) error {
	seen := make(map[string]string, len(channels))
	for _, ch := range channels {
		sheet := SheetName(ch)
		if prev, ok := seen[sheet]; ok {
			return fmt.Errorf("channels %q and %q share sheet name %q", prev, ch, sheet)
		}
		seen[sheet] = ch
	}
	return nil
}

// WriteXLSX writes one sheet per table to path. The first row holds the
// column labels; NaN values are left blank.
func WriteXLSX(path string, tables []Table) error {
	if len(tables) == 0 {
		return fmt.Errorf("no tables to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	seen := make(map[string]bool)
	for _, table := range tables {
		sheet := SheetName(table.Channel)
		if seen[sheet] {
			return fmt.Errorf("duplicate sheet name %q for channel %q", sheet, table.Channel)
		}
		seen[sheet] = true

		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("error creating sheet %q: %w", sheet, err)
		}

		header := make([]interface{}, 0, len(table.Columns)+1)
		header = append(header, IndexHeader)
		for _, c := range table.Columns {
			header = append(header, c)
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return fmt.Errorf("error writing header of %q: %w", sheet, err)
		}

		for r, row := range table.Rows {
			cells := make([]interface{}, 0, len(row.Values)+1)
			cells = append(cells, row.ID)
			for _, v := range row.Values {
				if math.IsNaN(v) {
					cells = append(cells, nil)
				} else {
					cells = append(cells, v)
				}
			}

			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
				return fmt.Errorf("error writing row %q of %q: %w", row.ID, sheet, err)
			}
		}
	}

	// Drop the default sheet unless a channel is named after it
	if !seen["Sheet1"] {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("error removing default sheet: %w", err)
		}
	}
	if idx, err := f.GetSheetIndex(SheetName(tables[0].Channel)); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("error saving report: %w", err)
	}
	return nil
}
