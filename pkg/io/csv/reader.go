// Package csv reads activity exports from CSV files and writes result sheets
// as one CSV file per country.
package csv

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/hed1ad/affguard/pkg/dataset"
)

// Reader reads raw records from a CSV file with a header row.
type Reader struct {
	path   string
	file   *os.File
	reader *csv.Reader
	header dataset.Header
	row    int
}

// Option configures a CSV reader.
type Option func(*Reader)

// WithComma sets the field delimiter.
func WithComma(r rune) Option {
	return func(rd *Reader) {
		rd.reader.Comma = r
	}
}

// NewReader opens filename and reads its header row.
func NewReader(filename string, opts ...Option) (*Reader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, &dataset.InputError{Path: filename, Err: err}
	}

	r := &Reader{
		path:   filename,
		file:   file,
		reader: csv.NewReader(file),
	}
	r.reader.FieldsPerRecord = -1
	r.reader.TrimLeadingSpace = true

	for _, opt := range opts {
		opt(r)
	}

	cells, err := r.reader.Read()
	if err != nil {
		file.Close()
		if errors.Is(err, io.EOF) {
			err = dataset.ErrNoRecords
		}
		return nil, &dataset.InputError{Path: filename, Err: err}
	}
	if len(cells) > 0 {
		// Exports saved from spreadsheets often start with a byte order mark.
		cells[0] = trimBOM(cells[0])
	}

	header, err := dataset.NewHeader(cells)
	if err != nil {
		file.Close()
		return nil, withPath(err, filename, 0)
	}
	r.header = header

	return r, nil
}

// Next returns the next record, or io.EOF after the last one.
func (r *Reader) Next() (dataset.RawRecord, error) {
	for {
		cells, err := r.reader.Read()
		if err == io.EOF {
			return dataset.RawRecord{}, io.EOF
		}
		r.row++
		if err != nil {
			return dataset.RawRecord{}, &dataset.InputError{Path: r.path, Row: r.row, Err: err}
		}
		if dataset.BlankRow(cells) {
			continue
		}

		rec, err := r.header.Record(cells)
		if err != nil {
			return dataset.RawRecord{}, withPath(err, r.path, r.row)
		}
		return rec, nil
	}
}

// Read returns all remaining records.
func (r *Reader) Read() ([]dataset.RawRecord, error) {
	var records []dataset.RawRecord
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, &dataset.InputError{Path: r.path, Err: dataset.ErrNoRecords}
	}
	return records, nil
}

// Close releases resources.
func (r *Reader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// Loader loads a whole CSV export.
type Loader struct {
	// Comma overrides the ',' delimiter when non-zero.
	Comma rune
}

// Load reads every record of the file at path.
func (l Loader) Load(path string) ([]dataset.RawRecord, error) {
	var opts []Option
	if l.Comma != 0 {
		opts = append(opts, WithComma(l.Comma))
	}

	r, err := NewReader(path, opts...)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return r.Read()
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

func trimBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}
