// Package postgres provides a PostgreSQL export adapter.
//
// This file registers the PostgreSQL adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/nutripipe/pkg/adapters/postgres"
package postgres

import (
	"log/slog"

	"github.com/leapstack-labs/nutripipe/pkg/adapter"
)

func init() {
	adapter.Register(adapter.Registration{
		Name:    "postgres",
		Factory: func(logger *slog.Logger) adapter.Adapter { return New(logger) },
	})
}
