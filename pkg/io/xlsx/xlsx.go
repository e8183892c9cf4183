// Package xlsx reads activity exports from Excel workbooks and writes one
// worksheet per country.
package xlsx

import (
	"errors"

	"github.com/xuri/excelize/v2"

	"github.com/hed1ad/affguard/pkg/dataset"
)

// Loader reads the first worksheet of a workbook.
type Loader struct {
	// Sheet selects a worksheet by name instead of the first one.
	Sheet string
}

// Load reads every record of the workbook at path.
// Cells are read raw, so dates arrive as serial numbers.
func (l Loader) Load(path string) ([]dataset.RawRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &dataset.InputError{Path: path, Err: err}
	}
	defer f.Close()

	sheet := l.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &dataset.InputError{Path: path, Err: err}
	}
	if len(rows) < 2 {
		return nil, &dataset.InputError{Path: path, Err: dataset.ErrNoRecords}
	}

	header, err := dataset.NewHeader(rows[0])
	if err != nil {
		return nil, withPath(err, path, 0)
	}

	records := make([]dataset.RawRecord, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		if dataset.BlankRow(cells) {
			continue
		}
		rec, err := header.SheetRecord(cells)
		if err != nil {
			return nil, withPath(err, path, i+1)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, &dataset.InputError{Path: path, Err: dataset.ErrNoRecords}
	}
	return records, nil
}

// Saver writes a workbook with one worksheet per sheet.
type Saver struct{}

// emptySheet names the only worksheet of a run without results.
const emptySheet = "No data"

// Save writes sheets to path, replacing any existing file.
func (Saver) Save(sheets []dataset.Sheet, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if len(sheets) == 0 {
		sheets = []dataset.Sheet{{Name: emptySheet}}
	}

	first := f.GetSheetName(0)
	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName(first, sheet.Name); err != nil {
				return &dataset.OutputError{Path: path, Err: err}
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return &dataset.OutputError{Path: path, Err: err}
		}
		if err := writeSheet(f, sheet); err != nil {
			return &dataset.OutputError{Path: path, Err: err}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return &dataset.OutputError{Path: path, Err: err}
	}
	return nil
}

func writeSheet(f *excelize.File, sheet dataset.Sheet) error {
	if len(sheet.Header) > 0 {
		header := make([]any, len(sheet.Header))
		for i, h := range sheet.Header {
			header[i] = h
		}
		if err := f.SetSheetRow(sheet.Name, "A1", &header); err != nil {
			return err
		}
	}
	for i, row := range sheet.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet.Name, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func withPath(err error, path string, row int) error {
	var inErr *dataset.InputError
	if errors.As(err, &inErr) {
		inErr.Path = path
		inErr.Row = row
		return inErr
	}
	return &dataset.InputError{Path: path, Row: row, Err: err}
}
