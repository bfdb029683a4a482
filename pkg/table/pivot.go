package table

import (
	"fmt"
	"sort"
)

// PivotStats describes rows that did not contribute a cell to a pivot.
type PivotStats struct {
	// Discarded counts rows whose (index, column) pair already held a value.
	Discarded int
	// Skipped counts rows with a missing index or column key.
	Skipped int
}

// Pivot reshapes long-format rows into wide format. The result has the
// index column first, one row per distinct index value (ascending), and one
// column per distinct value of the columns column (ascending), holding the
// value cell for that pair.
//
// When several rows share a pair, the first non-missing value in row order
// is kept and the others are discarded. Numeric keys are compared as
// integers (100 and 100.0 match) and become numeric labels; rows with a
// non-integral numeric key are skipped. Numeric values come out as floats.
func Pivot(t *Table, index, columns, values string) (*Table, PivotStats, error) {
	var stats PivotStats

	idxCol, ok := t.Column(index)
	if !ok {
		return nil, stats, fmt.Errorf("%w: %s", ErrColumnNotFound, index)
	}
	keyCol, ok := t.Column(columns)
	if !ok {
		return nil, stats, fmt.Errorf("%w: %s", ErrColumnNotFound, columns)
	}
	valCol, ok := t.Column(values)
	if !ok {
		return nil, stats, fmt.Errorf("%w: %s", ErrColumnNotFound, values)
	}

	rowKeys, rowPos := distinctKeys(idxCol.Values)
	colKeys, colPos := distinctKeys(keyCol.Values)

	cells := make([][]any, len(colKeys))
	for j := range cells {
		cells[j] = make([]any, len(rowKeys))
	}

	for i := 0; i < t.NumRows(); i++ {
		rk, rok := keyOf(idxCol.Values[i])
		ck, cok := keyOf(keyCol.Values[i])
		if !rok || !cok {
			stats.Skipped++
			continue
		}
		r, c := rowPos[rk], colPos[ck]
		v := valCol.Values[i]
		if n, isInt := v.(int64); isInt {
			v = float64(n)
		}
		switch {
		case cells[c][r] != nil:
			stats.Discarded++
		case v != nil:
			cells[c][r] = v
		}
	}

	cols := make([]*Column, 0, len(colKeys)+1)
	indexValues := make([]any, len(rowKeys))
	copy(indexValues, rowKeys)
	indexKind, valueKind := idxCol.Kind, valCol.Kind
	if isNumeric(indexKind) {
		indexKind = KindInt
	}
	if isNumeric(valueKind) {
		valueKind = KindFloat
	}
	cols = append(cols, &Column{Label: idxCol.Label, Kind: indexKind, Values: indexValues})
	for j, k := range colKeys {
		cols = append(cols, &Column{Label: labelFor(k), Kind: valueKind, Values: cells[j]})
	}

	out, err := New(cols...)
	if err != nil {
		return nil, stats, err
	}
	return out, stats, nil
}

// distinctKeys returns the sorted distinct non-missing keys of values and a
// map from key to its position in that order.
func distinctKeys(values []any) ([]any, map[any]int) {
	seen := make(map[any]int)
	var keys []any
	for _, v := range values {
		k, ok := keyOf(v)
		if !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = 0
		keys = append(keys, k)
	}

	sort.Slice(keys, func(a, b int) bool { return lessKey(keys[a], keys[b]) })
	for i, k := range keys {
		seen[k] = i
	}
	return keys, seen
}

func labelFor(k any) Label {
	if n, ok := k.(int64); ok {
		return ID(n)
	}
	return Name(k.(string))
}
