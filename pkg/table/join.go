package table

import "fmt"

// JoinStats describes how right-hand rows matched during a join.
type JoinStats struct {
	// Unmatched counts right rows with no left row for their key.
	Unmatched int
	// DuplicateKeys counts left rows ignored because an earlier left row
	// had the same key.
	DuplicateKeys int
}

// RightJoin joins left onto right by key, keeping every right row in right
// order. The result holds the left columns (the key column taking right's
// values) followed by the right columns other than key. Left cells of
// unmatched rows are missing. When left repeats a key, its first row wins.
// Int and float keys match by integer value; text keys only match text keys.
func RightJoin(left, right *Table, key string) (*Table, JoinStats, error) {
	var stats JoinStats

	lk := left.Index(key)
	if lk < 0 {
		return nil, stats, fmt.Errorf("%w: %s (left)", ErrColumnNotFound, key)
	}
	rk := right.Index(key)
	if rk < 0 {
		return nil, stats, fmt.Errorf("%w: %s (right)", ErrColumnNotFound, key)
	}
	leftKey, rightKey := left.cols[lk], right.cols[rk]
	if isNumeric(leftKey.Kind) != isNumeric(rightKey.Kind) {
		return nil, stats, fmt.Errorf("%w: %s is %s on the left and %s on the right",
			ErrKeyKind, key, leftKey.Kind, rightKey.Kind)
	}

	lookup := make(map[any]int, left.rows)
	for i, v := range leftKey.Values {
		k, ok := keyOf(v)
		if !ok {
			continue
		}
		if _, dup := lookup[k]; dup {
			stats.DuplicateKeys++
			continue
		}
		lookup[k] = i
	}

	match := make([]int, right.rows)
	for i, v := range rightKey.Values {
		match[i] = -1
		if k, ok := keyOf(v); ok {
			if li, found := lookup[k]; found {
				match[i] = li
				continue
			}
		}
		stats.Unmatched++
	}

	cols := make([]*Column, 0, left.NumCols()+right.NumCols()-1)
	for j, c := range left.cols {
		if j == lk {
			cols = append(cols, &Column{Label: c.Label, Kind: rightKey.Kind, Values: rightKey.Values})
			continue
		}
		values := make([]any, right.rows)
		for i, li := range match {
			if li >= 0 {
				values[i] = c.Values[li]
			}
		}
		cols = append(cols, &Column{Label: c.Label, Kind: c.Kind, Values: values})
	}
	for j, c := range right.cols {
		if j == rk {
			continue
		}
		cols = append(cols, c)
	}

	out, err := New(cols...)
	if err != nil {
		return nil, stats, err
	}
	return out, stats, nil
}
