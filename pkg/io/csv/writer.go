package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hed1ad/affguard/pkg/dataset"
)

// Saver writes each sheet to <dir>/<sheet name>.csv.
type Saver struct{}

// Save creates dir if needed and writes one file per sheet.
func (Saver) Save(sheets []dataset.Sheet, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &dataset.OutputError{Path: dir, Err: err}
	}
	for _, sheet := range sheets {
		path := filepath.Join(dir, sheet.Name+".csv")
		if err := writeSheet(sheet, path); err != nil {
			return &dataset.OutputError{Path: path, Err: err}
		}
	}
	return nil
}

func writeSheet(sheet dataset.Sheet, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write(sheet.Header); err != nil {
		f.Close()
		return err
	}
	record := make([]string, 0, len(sheet.Header))
	for _, row := range sheet.Rows {
		record = record[:0]
		for _, c := range row {
			record = append(record, format(c))
		}
		if err := w.Write(record); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func format(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case int64:
		return strconv.FormatInt(c, 10)
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	default:
		return fmt.Sprint(c)
	}
}
