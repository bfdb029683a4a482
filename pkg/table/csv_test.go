package table

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV_Inference(t *testing.T) {
	input := "fdc_id,nutrient_id,amount,note\n" +
		"1,100,5.0,ok\n" +
		"1,200,3,\n" +
		"2,100,,n/a\n"

	tbl, err := ReadCSV(context.Background(), strings.NewReader(input), ReadOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"fdc_id", "nutrient_id", "amount", "note"}, tbl.Names())
	assert.Equal(t, 3, tbl.NumRows())

	kinds := map[string]Kind{
		"fdc_id":      KindInt,
		"nutrient_id": KindInt,
		"amount":      KindFloat,
		"note":        KindString,
	}
	for name, want := range kinds {
		col, ok := tbl.Column(name)
		require.True(t, ok, name)
		assert.Equal(t, want, col.Kind, "kind of %s", name)
	}

	amount, _ := tbl.Column("amount")
	assert.Equal(t, []any{5.0, 3.0, nil}, amount.Values)
}

func TestReadCSV_Columns(t *testing.T) {
	input := "id,extra,name,unit_name\n1003,x,Protein,G\n"

	tests := []struct {
		name      string
		columns   []string
		wantNames []string
		wantErr   error
	}{
		{
			name:      "subset kept in file order",
			columns:   []string{"unit_name", "id", "name"},
			wantNames: []string{"id", "name", "unit_name"},
		},
		{
			name:    "absent column",
			columns: []string{"id", "rank"},
			wantErr: ErrColumnNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := ReadCSV(context.Background(), strings.NewReader(input), ReadOptions{Columns: tt.columns})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNames, tbl.Names())
		})
	}
}

func TestReadCSV_Delimiter(t *testing.T) {
	input := "\ufeffa\tb\n1\tx\n"
	tbl, err := ReadCSV(context.Background(), strings.NewReader(input), ReadOptions{Delimiter: '\t'})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tbl.Names())
}

func TestReadCSV_Budget(t *testing.T) {
	var b strings.Builder
	b.WriteString("fdc_id,nutrient_id,amount\n")
	for i := 0; i < 100; i++ {
		b.WriteString("1,100,5.0\n")
	}

	_, err := ReadCSV(context.Background(), strings.NewReader(b.String()), ReadOptions{MaxBytes: 512})
	require.ErrorIs(t, err, ErrBudgetExceeded)

	_, err = ReadCSV(context.Background(), strings.NewReader(b.String()), ReadOptions{MaxBytes: 1 << 20})
	require.NoError(t, err)
}

func TestReadCSV_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReadCSV(ctx, strings.NewReader("a\n1\n"), ReadOptions{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(context.Background(), strings.NewReader(""), ReadOptions{})
	require.Error(t, err)
}

func TestReadCSVFile_Missing(t *testing.T) {
	_, err := ReadCSVFile(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), ReadOptions{})
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestWriteCSV(t *testing.T) {
	tbl := MustNew(
		NewColumn("description", KindString, []any{"Apple", "Banana, ripe"}),
		NewColumn("food_category_id", KindInt, []any{int64(10), nil}),
		NewColumn("Protein_G", KindFloat, []any{5.0, 7.25}),
	)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tbl, 0))

	want := "description,food_category_id,Protein_G\n" +
		"Apple,10,5.0\n" +
		"\"Banana, ripe\",,7.25\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	tbl := MustNew(NewColumn("a", KindInt, []any{int64(1)}))

	require.NoError(t, WriteCSVFile(path, tbl, ';'))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\n1\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should be renamed away")
}

func TestWriteCSVFile_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.csv")
	tbl := MustNew(NewColumn("a", KindInt, []any{int64(1)}))

	require.Error(t, WriteCSVFile(path, tbl, 0))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
