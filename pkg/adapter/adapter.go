// Package adapter defines the contract for exporting pipeline tables into
// SQL databases. Concrete adapters live in pkg/adapters/ subdirectories and
// register themselves with this package in their init functions.
package adapter

import (
	"context"

	"github.com/leapstack-labs/nutripipe/pkg/table"
)

// Config holds configuration for connecting to a database.
type Config struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Schema   string
	Options  map[string]string
	Params   map[string]any
}

// Adapter defines the interface that all export adapters must implement.
type Adapter interface {
	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string) error

	// WriteTable replaces the named table with the contents of t.
	WriteTable(ctx context.Context, name string, t *table.Table) error

	// DialectName returns the SQL dialect this adapter speaks.
	DialectName() string
}
