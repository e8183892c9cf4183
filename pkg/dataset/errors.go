package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingColumn is returned when a required column is absent from the header.
	ErrMissingColumn = errors.New("missing required column")
	// ErrBadDate is returned for a date cell that matches no known layout.
	ErrBadDate = errors.New("unparseable date")
	// ErrBadNumber is returned for a numeric cell that is not a number.
	ErrBadNumber = errors.New("unparseable number")
	// ErrNoRecords is returned when the input holds a header but no data rows.
	ErrNoRecords = errors.New("no records")
)

// InputError reports a problem reading or interpreting the input file.
// Row is the 1-based data row, zero when the error is not tied to a row.
type InputError struct {
	Path   string
	Row    int
	Column string
	Err    error
}

func (e *InputError) Error() string {
	switch {
	case e.Row > 0 && e.Column != "":
		return fmt.Sprintf("input %s: row %d, column %q: %v", e.Path, e.Row, e.Column, e.Err)
	case e.Column != "":
		return fmt.Sprintf("input %s: column %q: %v", e.Path, e.Column, e.Err)
	default:
		return fmt.Sprintf("input %s: %v", e.Path, e.Err)
	}
}

func (e *InputError) Unwrap() error { return e.Err }

// OutputError reports a problem writing the result.
type OutputError struct {
	Path string
	Err  error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("output %s: %v", e.Path, e.Err)
}

func (e *OutputError) Unwrap() error { return e.Err }
