package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/nutripipe/pkg/adapter"
	"github.com/leapstack-labs/nutripipe/pkg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nutritionTable() *table.Table {
	return table.MustNew(
		table.NewColumn("description", table.KindString, []any{"Apple", "Banana"}),
		table.NewColumn("food_category_id", table.KindInt, []any{int64(10), nil}),
		table.NewColumn("Vitamin C, total ascorbic acid_MG", table.KindFloat, []any{4.6, 8.7}),
	)
}

func TestAdapter_Connect(t *testing.T) {
	tests := []struct {
		name      string
		setupPath func(t *testing.T) string
		verify    func(t *testing.T, path string)
	}{
		{
			name: "in-memory",
			setupPath: func(_ *testing.T) string {
				return ":memory:"
			},
		},
		{
			name: "file-based",
			setupPath: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "test.duckdb")
			},
			verify: func(t *testing.T, path string) {
				_, err := os.Stat(path)
				assert.False(t, os.IsNotExist(err), "database file was not created")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			adp := New(nil)

			dbPath := tt.setupPath(t)
			require.NoError(t, adp.Connect(ctx, adapter.Config{Path: dbPath}))
			defer func() { _ = adp.Close() }()

			if tt.verify != nil {
				tt.verify(t, dbPath)
			}
		})
	}
}

func TestAdapter_ConnectWithSettings(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)

	err := adp.Connect(ctx, adapter.Config{
		Params: map[string]any{
			"settings": map[string]any{"memory_limit": "512MB"},
		},
	})
	require.NoError(t, err)
	defer func() { _ = adp.Close() }()

	bad := New(nil)
	err = bad.Connect(ctx, adapter.Config{
		Params: map[string]any{"settings": map[string]any{"Bad-Name": "1"}},
	})
	require.Error(t, err)
	assert.False(t, bad.IsConnected())
}

func TestAdapter_NotConnected(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)

	require.Error(t, adp.Exec(ctx, "SELECT 1"))
	require.Error(t, adp.WriteTable(ctx, "foods", nutritionTable()))
}

func TestAdapter_WriteTable(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)
	require.NoError(t, adp.Connect(ctx, adapter.Config{Path: ":memory:"}))
	defer func() { _ = adp.Close() }()

	// Writing twice replaces the table.
	require.NoError(t, adp.WriteTable(ctx, "nutrition", nutritionTable()))
	require.NoError(t, adp.WriteTable(ctx, "nutrition", nutritionTable()))

	var count int
	require.NoError(t, adp.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM "nutrition"`).Scan(&count))
	assert.Equal(t, 2, count)

	var vitaminC float64
	require.NoError(t, adp.DB.QueryRowContext(ctx,
		`SELECT "Vitamin C, total ascorbic acid_MG" FROM "nutrition" WHERE description = 'Banana'`).Scan(&vitaminC))
	assert.InDelta(t, 8.7, vitaminC, 1e-9)

	var nulls int
	require.NoError(t, adp.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM "nutrition" WHERE food_category_id IS NULL`).Scan(&nulls))
	assert.Equal(t, 1, nulls)
}

func TestAdapter_Registry(t *testing.T) {
	assert.True(t, adapter.IsRegistered("duckdb"))

	adp, err := adapter.NewAdapter(adapter.Config{Type: "duckdb", Path: "nutrition.duckdb"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "duckdb", adp.DialectName())
}
