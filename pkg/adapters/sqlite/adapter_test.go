package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/nutripipe/pkg/adapter"
	"github.com/leapstack-labs/nutripipe/pkg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter_WriteTable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nutrition.db")

	adp := New(nil)
	require.NoError(t, adp.Connect(ctx, adapter.Config{Path: path}))

	in := table.MustNew(
		table.NewColumn("description", table.KindString, []any{"Apple", "Banana", nil}),
		table.NewColumn("food_category_id", table.KindInt, []any{int64(9), int64(9), int64(11)}),
		table.NewColumn("Fat_G", table.KindFloat, []any{0.17, nil, 1.5}),
	)
	require.NoError(t, adp.WriteTable(ctx, "nutrition", in))
	require.NoError(t, adp.Close())

	// Reopen to check the data reached disk.
	reopened := New(nil)
	require.NoError(t, reopened.Connect(ctx, adapter.Config{Path: path}))
	defer func() { _ = reopened.Close() }()

	rows, err := reopened.DB.QueryContext(ctx,
		`SELECT description, food_category_id, "Fat_G" FROM nutrition ORDER BY rowid`)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	type row struct {
		desc *string
		cat  int64
		fat  *float64
	}
	var got []row
	for rows.Next() {
		var r row
		require.NoError(t, rows.Scan(&r.desc, &r.cat, &r.fat))
		got = append(got, r)
	}
	require.NoError(t, rows.Err())
	require.Len(t, got, 3)

	assert.Equal(t, "Apple", *got[0].desc)
	assert.InDelta(t, 0.17, *got[0].fat, 1e-9)
	assert.Nil(t, got[1].fat)
	assert.Nil(t, got[2].desc)
	assert.Equal(t, int64(11), got[2].cat)
}

func TestAdapter_RejectsSchema(t *testing.T) {
	adp := New(nil)
	err := adp.Connect(context.Background(), adapter.Config{Schema: "nutrition"})
	require.Error(t, err)
	assert.False(t, adp.IsConnected())
}

func TestAdapter_Registry(t *testing.T) {
	assert.True(t, adapter.IsRegistered("sqlite"))

	adp, err := adapter.NewAdapter(adapter.Config{Type: "sqlite", Path: "nutrition.db"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", adp.DialectName())
}
