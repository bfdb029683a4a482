package pipeline

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/leapstack-labs/nutripipe/pkg/table"
)

// Errors returned by pipeline stages. All of them abort the run.
var (
	// ErrMissingResource means a required input file could not be located.
	ErrMissingResource = errors.New("required input not found")
	// ErrResourceExhausted means an input does not fit in the memory budget.
	ErrResourceExhausted = errors.New("not enough memory to load input")
	// ErrInputType means a stage was handed something other than a table.
	ErrInputType = errors.New("stage input is not a table")
	// ErrMissingColumn means a required column is absent from an input.
	ErrMissingColumn = errors.New("required column missing")
	// ErrNotPrepared means Apply was called before Prepare.
	ErrNotPrepared = errors.New("stage used before prepare")
)

// classify maps table and filesystem errors onto the pipeline taxonomy,
// keeping the original error in the chain.
func classify(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s: %w", ErrMissingResource, path, err)
	case errors.Is(err, table.ErrBudgetExceeded):
		return fmt.Errorf("%w: %s: %w", ErrResourceExhausted, path, err)
	case errors.Is(err, table.ErrColumnNotFound):
		return fmt.Errorf("%w: %w", ErrMissingColumn, err)
	default:
		return err
	}
}
