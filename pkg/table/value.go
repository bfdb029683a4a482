package table

import (
	"math"
	"strconv"
	"strings"
)

// FormatValue renders a cell for delimited output. Missing values and NaN
// render as the empty string; floats always carry a decimal point.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		s := strconv.FormatFloat(x, 'f', -1, 64)
		if !math.IsInf(x, 0) && !strings.ContainsRune(s, '.') {
			s += ".0"
		}
		return s
	default:
		return ""
	}
}

// AsInt converts a cell to int64. Integral floats convert; anything else
// reports false.
func AsInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return int64(x), true
		}
	}
	return 0, false
}

// keyOf normalizes a key cell so that equal ids compare equal as map keys.
// Numbers become int64, so 100 and 100.0 are the same key; a non-integral
// number is not a key.
func keyOf(v any) (any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, false
	case string:
		return x, true
	default:
		n, ok := AsInt(x)
		if !ok {
			return nil, false
		}
		return n, true
	}
}

// lessKey orders normalized keys: numbers before strings, each ascending.
func lessKey(a, b any) bool {
	ai, aNum := a.(int64)
	bi, bNum := b.(int64)
	switch {
	case aNum && bNum:
		return ai < bi
	case aNum != bNum:
		return aNum
	default:
		return a.(string) < b.(string)
	}
}

func isNumeric(k Kind) bool {
	return k == KindInt || k == KindFloat
}

// infer converts raw fields into typed cells. A column is int if every
// non-empty field parses as an integer, float if every non-empty field
// parses as a number, and string otherwise.
func infer(raw []string) (Kind, []any) {
	kind := KindInt
	for _, s := range raw {
		if s == "" {
			continue
		}
		if kind == KindInt {
			if _, err := strconv.ParseInt(s, 10, 64); err == nil {
				continue
			}
			kind = KindFloat
		}
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			kind = KindString
			break
		}
	}

	values := make([]any, len(raw))
	for i, s := range raw {
		if s == "" {
			continue
		}
		switch kind {
		case KindInt:
			n, _ := strconv.ParseInt(s, 10, 64)
			values[i] = n
		case KindFloat:
			f, _ := strconv.ParseFloat(s, 64)
			values[i] = f
		default:
			values[i] = s
		}
	}
	return kind, values
}
