package table

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func measurements(rows ...[3]any) *Table {
	ids := make([]any, len(rows))
	nutrients := make([]any, len(rows))
	amounts := make([]any, len(rows))
	for i, r := range rows {
		ids[i], nutrients[i], amounts[i] = r[0], r[1], r[2]
	}
	return MustNew(
		NewColumn("fdc_id", KindInt, ids),
		NewColumn("nutrient_id", KindInt, nutrients),
		NewColumn("amount", KindFloat, amounts),
	)
}

func TestPivot(t *testing.T) {
	in := measurements(
		[3]any{int64(2), int64(100), 7.0},
		[3]any{int64(1), int64(200), 3.0},
		[3]any{int64(1), int64(100), 5.0},
	)

	out, stats, err := Pivot(in, "fdc_id", "nutrient_id", "amount")
	require.NoError(t, err)

	assert.Equal(t, []string{"fdc_id", "100", "200"}, out.Names())
	assert.Equal(t, []any{int64(1), 5.0, 3.0}, out.Row(0))
	assert.Equal(t, []any{int64(2), 7.0, nil}, out.Row(1))
	assert.Equal(t, PivotStats{}, stats)

	id, numeric := out.ColumnAt(1).Label.Numeric()
	assert.True(t, numeric)
	assert.Equal(t, int64(100), id)
}

func TestPivot_Duplicates(t *testing.T) {
	tests := []struct {
		name          string
		rows          [][3]any
		want          any
		wantDiscarded int
	}{
		{
			name:          "first occurrence kept",
			rows:          [][3]any{{int64(1), int64(100), 5.0}, {int64(1), int64(100), 9.0}},
			want:          5.0,
			wantDiscarded: 1,
		},
		{
			name:          "missing amount does not claim the cell",
			rows:          [][3]any{{int64(1), int64(100), nil}, {int64(1), int64(100), 9.0}},
			want:          9.0,
			wantDiscarded: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, stats, err := Pivot(measurements(tt.rows...), "fdc_id", "nutrient_id", "amount")
			require.NoError(t, err)
			require.Equal(t, 1, out.NumRows())
			assert.Equal(t, tt.want, out.Row(0)[1])
			assert.Equal(t, tt.wantDiscarded, stats.Discarded)
		})
	}
}

func TestPivot_SkipsMissingKeys(t *testing.T) {
	in := measurements(
		[3]any{nil, int64(100), 1.0},
		[3]any{int64(1), nil, 2.0},
		[3]any{int64(1), int64(100), 3.0},
	)

	out, stats, err := Pivot(in, "fdc_id", "nutrient_id", "amount")
	require.NoError(t, err)
	assert.Equal(t, 1, out.NumRows())
	assert.Equal(t, 2, stats.Skipped)
}

func TestPivot_Errors(t *testing.T) {
	in := measurements([3]any{int64(1), int64(100), 1.0})

	_, _, err := Pivot(in, "fdc_id", "nutrient", "amount")
	require.ErrorIs(t, err, ErrColumnNotFound)

	_, _, err = Pivot(in, "fdc_id", "nutrient_id", "grams")
	require.ErrorIs(t, err, ErrColumnNotFound)
}

func TestPivot_FloatKeys(t *testing.T) {
	in := MustNew(
		NewColumn("fdc_id", KindFloat, []any{1.0, 1.0, 2.0, 2.5}),
		NewColumn("nutrient_id", KindFloat, []any{100.0, 200.0, 100.0, 100.0}),
		NewColumn("amount", KindFloat, []any{5.0, 3.0, 7.0, 9.0}),
	)

	out, stats, err := Pivot(in, "fdc_id", "nutrient_id", "amount")
	require.NoError(t, err)

	assert.Equal(t, []string{"fdc_id", "100", "200"}, out.Names())
	assert.Equal(t, []any{int64(1), 5.0, 3.0}, out.Row(0))
	assert.Equal(t, []any{int64(2), 7.0, nil}, out.Row(1))
	assert.Equal(t, 1, stats.Skipped, "a non-integral id is not a key")

	idCol, _ := out.Column("fdc_id")
	assert.Equal(t, KindInt, idCol.Kind)
	id, numeric := out.ColumnAt(1).Label.Numeric()
	assert.True(t, numeric)
	assert.Equal(t, int64(100), id)
}

func TestPivot_IntegerAmountsBecomeFloats(t *testing.T) {
	in := MustNew(
		NewColumn("fdc_id", KindInt, []any{int64(1), int64(1)}),
		NewColumn("nutrient_id", KindInt, []any{int64(100), int64(200)}),
		NewColumn("amount", KindInt, []any{int64(5), nil}),
	)

	out, _, err := Pivot(in, "fdc_id", "nutrient_id", "amount")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), 5.0, nil}, out.Row(0))
	assert.Equal(t, KindFloat, out.ColumnAt(1).Kind)
	assert.Equal(t, "5.0", FormatValue(out.Row(0)[1]))
}

type triple struct {
	food     int64
	nutrient int64
	amount   float64
}

func randomTriples(r *rand.Rand, foods, nutrients int) []triple {
	var out []triple
	for f := 0; f < foods; f++ {
		for n := 0; n < nutrients; n++ {
			if r.Intn(3) == 0 {
				continue
			}
			out = append(out, triple{food: int64(f + 1), nutrient: int64(1000 + n), amount: float64(r.Intn(10000)) / 100})
		}
	}
	if len(out) == 0 {
		out = append(out, triple{food: 1, nutrient: 1000, amount: 1.5})
	}
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func tableOf(ts []triple) *Table {
	rows := make([][3]any, len(ts))
	for i, tr := range ts {
		rows[i] = [3]any{tr.food, tr.nutrient, tr.amount}
	}
	return measurements(rows...)
}

func sortTriples(ts []triple) {
	sort.Slice(ts, func(i, j int) bool {
		if ts[i].food != ts[j].food {
			return ts[i].food < ts[j].food
		}
		return ts[i].nutrient < ts[j].nutrient
	})
}

func TestPivotMelt_RoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for trial := 0; trial < 20; trial++ {
		t.Run(fmt.Sprintf("trial-%d", trial), func(t *testing.T) {
			in := randomTriples(r, 1+r.Intn(15), 1+r.Intn(12))

			wide, _, err := Pivot(tableOf(in), "fdc_id", "nutrient_id", "amount")
			require.NoError(t, err)

			long, err := Melt(wide, "fdc_id", "nutrient_id", "amount")
			require.NoError(t, err)

			got := make([]triple, long.NumRows())
			for i := range got {
				row := long.Row(i)
				got[i] = triple{food: row[0].(int64), nutrient: row[1].(int64), amount: row[2].(float64)}
			}

			want := append([]triple(nil), in...)
			sortTriples(want)
			sortTriples(got)
			assert.Equal(t, want, got)
		})
	}
}

func TestPivot_Shape(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for trial := 0; trial < 20; trial++ {
		in := randomTriples(r, 1+r.Intn(20), 1+r.Intn(20))
		// duplicates must not change the shape
		in = append(in, in[:len(in)/3]...)

		foods := map[int64]bool{}
		nutrients := map[int64]bool{}
		for _, tr := range in {
			foods[tr.food] = true
			nutrients[tr.nutrient] = true
		}

		wide, _, err := Pivot(tableOf(in), "fdc_id", "nutrient_id", "amount")
		require.NoError(t, err)
		assert.Equal(t, len(foods), wide.NumRows())
		assert.Equal(t, len(nutrients), wide.NumCols()-1)
	}
}

func TestMelt_StringLabels(t *testing.T) {
	wide := MustNew(
		NewColumn("fdc_id", KindInt, []any{int64(1)}),
		NewColumn("Protein_G", KindFloat, []any{5.0}),
		&Column{Label: ID(9), Kind: KindInt, Values: []any{int64(2)}},
	)

	long, err := Melt(wide, "fdc_id", "feature", "value")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), "Protein_G", 5.0}, long.Row(0))
	assert.Equal(t, []any{int64(1), "9", int64(2)}, long.Row(1))

	valueCol, _ := long.Column("value")
	assert.Equal(t, KindFloat, valueCol.Kind)
}
