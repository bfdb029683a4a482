// Package duckdb provides a DuckDB export adapter.
//
// This file registers the DuckDB adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/nutripipe/pkg/adapters/duckdb"
package duckdb

import (
	"log/slog"

	"github.com/leapstack-labs/nutripipe/pkg/adapter"
)

func init() {
	adapter.Register(adapter.Registration{
		Name:      "duckdb",
		FileBased: true,
		Factory:   func(logger *slog.Logger) adapter.Adapter { return New(logger) },
	})
}
