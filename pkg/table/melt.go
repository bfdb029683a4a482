package table

import "fmt"

// Melt reshapes a wide table back to long format: one row per non-missing
// cell outside the id column, as (id, label, value). Numeric labels give an
// int label column; otherwise labels are rendered as strings. Rows follow
// table row order, then column order.
func Melt(t *Table, id, varName, valueName string) (*Table, error) {
	idIdx := t.Index(id)
	if idIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, id)
	}
	idCol := t.cols[idIdx]

	varKind := KindInt
	valueKind := Kind(0)
	first := true
	for j, c := range t.cols {
		if j == idIdx {
			continue
		}
		if _, ok := c.Label.Numeric(); !ok {
			varKind = KindString
		}
		switch {
		case first:
			valueKind = c.Kind
			first = false
		case c.Kind != valueKind:
			valueKind = mergeKinds(valueKind, c.Kind)
		}
	}

	var ids, vars, vals []any
	for i := 0; i < t.rows; i++ {
		for j, c := range t.cols {
			if j == idIdx || c.Values[i] == nil {
				continue
			}
			ids = append(ids, idCol.Values[i])
			if n, ok := c.Label.Numeric(); ok && varKind == KindInt {
				vars = append(vars, n)
			} else {
				vars = append(vars, c.Label.String())
			}
			vals = append(vals, c.Values[i])
		}
	}

	return New(
		&Column{Label: idCol.Label, Kind: idCol.Kind, Values: ids},
		NewColumn(varName, varKind, vars),
		NewColumn(valueName, valueKind, vals),
	)
}

func mergeKinds(a, b Kind) Kind {
	if a == KindString || b == KindString {
		return KindString
	}
	return KindFloat
}
