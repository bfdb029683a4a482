package table

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrBudgetExceeded is returned when a read would hold more bytes in memory
// than ReadOptions.MaxBytes allows.
var ErrBudgetExceeded = errors.New("memory budget exceeded")

// cellOverhead approximates the per-cell cost of an interface value plus
// string header on 64-bit platforms.
const cellOverhead = 32

// ctxCheckEvery is how many records are read between context checks.
const ctxCheckEvery = 4096

// ReadOptions controls how delimited input is loaded.
type ReadOptions struct {
	// Columns restricts the load to the named columns, kept in file order.
	// Nil loads every column. Naming an absent column is an error.
	Columns []string
	// Delimiter separates fields. Zero means ','.
	Delimiter rune
	// MaxBytes bounds the estimated memory held by loaded cells. Zero means
	// unlimited.
	MaxBytes int64
}

// ReadCSVFile opens path and reads it with ReadCSV. A missing file yields an
// error satisfying errors.Is(err, fs.ErrNotExist).
func ReadCSVFile(ctx context.Context, path string, opts ReadOptions) (*Table, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from user configuration
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	t, err := ReadCSV(ctx, bufio.NewReaderSize(f, 1<<20), opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ReadCSV reads delimited text with a header row into a table, inferring a
// Kind for every column.
func ReadCSV(ctx context.Context, r io.Reader, opts ReadOptions) (*Table, error) {
	cr := csv.NewReader(r)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	names, positions, err := pickColumns(header, opts.Columns)
	if err != nil {
		return nil, err
	}

	raw := make([][]string, len(positions))
	var used int64
	for n := 0; ; n++ {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		for i, pos := range positions {
			field := record[pos]
			used += int64(len(field)) + cellOverhead
			raw[i] = append(raw[i], strings.Clone(field))
		}
		if opts.MaxBytes > 0 && used > opts.MaxBytes {
			return nil, fmt.Errorf("%w: more than %d bytes after %d records", ErrBudgetExceeded, opts.MaxBytes, n+1)
		}
	}

	cols := make([]*Column, len(positions))
	for i := range positions {
		kind, values := infer(raw[i])
		raw[i] = nil
		cols[i] = NewColumn(names[i], kind, values)
	}
	return New(cols...)
}

// pickColumns resolves the wanted column names against the header and
// returns them in header order along with their field positions.
func pickColumns(header, wanted []string) ([]string, []int, error) {
	if wanted == nil {
		positions := make([]int, len(header))
		for i := range header {
			positions[i] = i
		}
		return append([]string(nil), header...), positions, nil
	}

	want := make(map[string]bool, len(wanted))
	for _, name := range wanted {
		want[name] = true
	}

	var names []string
	var positions []int
	for i, name := range header {
		if want[name] {
			names = append(names, name)
			positions = append(positions, i)
			delete(want, name)
		}
	}
	for _, name := range wanted {
		if want[name] {
			return nil, nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
		}
	}
	return names, positions, nil
}

// WriteCSV writes the table with a header row and no index column.
func WriteCSV(w io.Writer, t *Table, delimiter rune) error {
	cw := csv.NewWriter(w)
	if delimiter != 0 {
		cw.Comma = delimiter
	}

	if err := cw.Write(t.Names()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, t.NumCols())
	for i := 0; i < t.NumRows(); i++ {
		for j, c := range t.cols {
			record[j] = FormatValue(c.Values[i])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the table to path. Data goes to a temporary file in
// the same directory first, so path is only created when the write succeeds.
func WriteCSVFile(path string, t *Table, delimiter rune) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriterSize(tmp, 1<<20)
	if err = WriteCSV(bw, t, delimiter); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}
