package survey

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownHeader is returned when a header does not match any survey format
	ErrUnknownHeader = errors.New("unrecognized survey header")

	// ErrInvalidRow is returned when a row holds a missing or unparsable value
	ErrInvalidRow = errors.New("invalid survey row")
)

// RowError reports the row and column a parse failure occurred in.
// Row is zero-based and does not count the header.
type RowError struct {
	Row    int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("row %d: column %q: %v", e.Row, e.Column, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

func rowError(row int, column string, format string, args ...any) error {
	return &RowError{
		Row:    row,
		Column: column,
		Err:    fmt.Errorf("%w: %s", ErrInvalidRow, fmt.Sprintf(format, args...)),
	}
}
