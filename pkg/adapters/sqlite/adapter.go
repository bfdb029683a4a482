// Package sqlite provides a SQLite export adapter backed by the pure Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/nutripipe/pkg/adapter"

	_ "modernc.org/sqlite" // sqlite driver
)

// Dialect is the SQLite SQL dialect.
var Dialect = &adapter.Dialect{
	Name:        "sqlite",
	Placeholder: adapter.PlaceholderQuestion,
	IntegerType: "INTEGER",
	FloatType:   "REAL",
	TextType:    "TEXT",
}

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger, Dialect: Dialect},
	}
}

// DialectName returns the SQL dialect for this adapter.
func (a *Adapter) DialectName() string {
	return Dialect.Name
}

// Connect opens the SQLite database at cfg.Path. Use ":memory:" or an empty
// path for an in-memory database. Schemas are not supported.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	if cfg.Schema != "" {
		return fmt.Errorf("sqlite export does not support schema %q", cfg.Schema)
	}

	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	a.Logger.Debug("connecting to sqlite", slog.String("path", path))

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
