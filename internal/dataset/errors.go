package dataset

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyFile     = errors.New("file has no rows")
	ErrMissingColumn = errors.New("missing required column")
)

// LoadError reports a source file that is missing, unreadable or not a
// usable table.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// InsufficientRowsError reports a table smaller than the requested sample.
type InsufficientRowsError struct {
	Have int
	Need int
}

func (e *InsufficientRowsError) Error() string {
	return fmt.Sprintf("table has %d rows, sample needs %d", e.Have, e.Need)
}
