// Package io provides input/output adapters for the pipeline: loaders that read
// an activity export into raw records and savers that write per-country sheets.
package io

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hed1ad/affguard/pkg/dataset"
	"github.com/hed1ad/affguard/pkg/io/csv"
	"github.com/hed1ad/affguard/pkg/io/xlsx"
)

// DefaultOutputName is the workbook written when the output is a directory.
const DefaultOutputName = "anomalies_checker_dataset.xlsx"

// Output formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// Loader reads a complete export. Errors are *dataset.InputError.
type Loader interface {
	Load(path string) ([]dataset.RawRecord, error)
}

// Saver writes per-country sheets. Errors are *dataset.OutputError.
type Saver interface {
	Save(sheets []dataset.Sheet, path string) error
}

var (
	_ Loader = csv.Loader{}
	_ Loader = xlsx.Loader{}
	_ Saver  = csv.Saver{}
	_ Saver  = xlsx.Saver{}
)

// LoaderFor picks a loader from the file extension.
func LoaderFor(path string) (Loader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return csv.Loader{}, nil
	case ".xlsx", ".xlsm":
		return xlsx.Loader{}, nil
	}
	return nil, &dataset.InputError{Path: path, Err: fmt.Errorf("unsupported input format %q", filepath.Ext(path))}
}

// SaverFor picks a saver for format and resolves the destination path.
// An existing directory given for xlsx output receives DefaultOutputName.
// CSV output is always a directory with one file per sheet.
func SaverFor(format, path string) (Saver, string, error) {
	switch strings.ToLower(format) {
	case "", FormatXLSX:
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			path = filepath.Join(path, DefaultOutputName)
		}
		return xlsx.Saver{}, path, nil
	case FormatCSV:
		return csv.Saver{}, path, nil
	}
	return nil, path, &dataset.OutputError{Path: path, Err: fmt.Errorf("unsupported output format %q", format)}
}
