package adapter

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/nutripipe/pkg/table"
)

// PlaceholderStyle defines how query parameters are formatted.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for every parameter.
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, ... positional parameters.
	PlaceholderDollar
)

// Dialect describes the SQL differences the export path cares about.
type Dialect struct {
	Name          string
	DefaultSchema string
	Placeholder   PlaceholderStyle

	// Column types used for each table.Kind.
	IntegerType string
	FloatType   string
	TextType    string
}

// FormatPlaceholder returns the placeholder for the 1-based parameter index.
func (d *Dialect) FormatPlaceholder(index int) string {
	if d.Placeholder == PlaceholderDollar {
		return "$" + strconv.Itoa(index)
	}
	return "?"
}

// QuoteIdentifier wraps name in double quotes, doubling embedded quotes.
// Nutrient labels such as "Vitamin C, total ascorbic acid_MG" need it.
func (d *Dialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QualifiedName quotes name and prefixes schema when one is given.
func (d *Dialect) QualifiedName(schema, name string) string {
	if schema == "" {
		return d.QuoteIdentifier(name)
	}
	return d.QuoteIdentifier(schema) + "." + d.QuoteIdentifier(name)
}

// ColumnType maps a table kind onto the dialect's column type.
func (d *Dialect) ColumnType(k table.Kind) string {
	switch k {
	case table.KindInt:
		return d.IntegerType
	case table.KindFloat:
		return d.FloatType
	default:
		return d.TextType
	}
}
