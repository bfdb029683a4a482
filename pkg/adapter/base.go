package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/nutripipe/pkg/table"
)

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close, Exec and WriteTable implementations.
type BaseSQLAdapter struct {
	DB      *sql.DB
	Cfg     Config
	Logger  *slog.Logger
	Dialect *Dialect
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		return b.DB.Close()
	}
	return nil
}

// Exec executes a SQL statement that doesn't return rows.
func (b *BaseSQLAdapter) Exec(ctx context.Context, sqlStr string) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	_, err := b.DB.ExecContext(ctx, sqlStr)
	if err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// CreateTableSQL returns the CREATE TABLE statement for t under name.
func (b *BaseSQLAdapter) CreateTableSQL(name string, t *table.Table) string {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	sb.WriteString(b.Dialect.QualifiedName(b.Cfg.Schema, name))
	sb.WriteString(" (")
	for i := 0; i < t.NumCols(); i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		col := t.ColumnAt(i)
		sb.WriteString(b.Dialect.QuoteIdentifier(col.Label.String()))
		sb.WriteString(" ")
		sb.WriteString(b.Dialect.ColumnType(col.Kind))
	}
	sb.WriteString(")")
	return sb.String()
}

// InsertSQL returns a parameterised single-row INSERT for t under name.
func (b *BaseSQLAdapter) InsertSQL(name string, t *table.Table) string {
	cols := make([]string, t.NumCols())
	params := make([]string, t.NumCols())
	for i := range cols {
		cols[i] = b.Dialect.QuoteIdentifier(t.ColumnAt(i).Label.String())
		params[i] = b.Dialect.FormatPlaceholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		b.Dialect.QualifiedName(b.Cfg.Schema, name),
		strings.Join(cols, ", "),
		strings.Join(params, ", "))
}

// WriteTable drops and recreates the named table, then inserts every row of
// t inside one transaction. Missing cells become NULL.
func (b *BaseSQLAdapter) WriteTable(ctx context.Context, name string, t *table.Table) (err error) {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	if t == nil {
		return fmt.Errorf("no table to write")
	}

	logger := b.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Debug("writing table",
		slog.String("dialect", b.Dialect.Name),
		slog.String("table", name),
		slog.Int("rows", t.NumRows()),
		slog.Int("columns", t.NumCols()))

	tx, err := b.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	drop := "DROP TABLE IF EXISTS " + b.Dialect.QualifiedName(b.Cfg.Schema, name)
	if _, err = tx.ExecContext(ctx, drop); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", name, err)
	}
	if _, err = tx.ExecContext(ctx, b.CreateTableSQL(name, t)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", name, err)
	}

	stmt, err := tx.PrepareContext(ctx, b.InsertSQL(name, t))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := 0; i < t.NumRows(); i++ {
		if _, err = stmt.ExecContext(ctx, t.Row(i)...); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
