package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/nutripipe/internal/testutil"
	"github.com/leapstack-labs/nutripipe/pkg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureConfig(t *testing.T, fx testutil.Fixture) Config {
	return Config{
		MeasurementsPath: fx.Measurements,
		NutrientsPath:    fx.Nutrients,
		FoodsPath:        fx.Foods,
		OutputPath:       filepath.Join(fx.Dir, "Nutrition_Database.csv"),
		Logger:           testutil.NewTestLogger(t),
	}
}

func TestPipeline_Run_EndToEnd(t *testing.T) {
	fx := testutil.NutritionFixture(t)
	cfg := fixtureConfig(t, fx)

	res, err := New(cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Foods)
	assert.Equal(t, 2, res.Features)
	assert.Equal(t,
		[]string{"description", "food_category_id", "publication_date", "Protein_G", "Fat_G"},
		res.Table.Names())
	assert.Equal(t, []any{"Apple", int64(10), "2020-01-01", 5.0, 3.0}, res.Table.Row(0))
	assert.Equal(t, []any{"Banana", int64(10), "2020-01-02", 7.0, nil}, res.Table.Row(1))

	data, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	want := "description,food_category_id,publication_date,Protein_G,Fat_G\n" +
		"Apple,10,2020-01-01,5.0,3.0\n" +
		"Banana,10,2020-01-02,7.0,\n"
	assert.Equal(t, want, string(data))
}

func TestPipeline_Run_UnknownNutrient(t *testing.T) {
	fx := testutil.NutritionFixture(t)
	testutil.WriteFile(t, fx.Dir, "food_nutrient.csv",
		"fdc_id,nutrient_id,amount\n1,100,5.0\n1,999,0.5\n")
	cfg := fixtureConfig(t, fx)
	cfg.OutputPath = ""

	res, err := New(cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"description", "food_category_id", "publication_date", "Protein_G", "unknown_nutrient_999"},
		res.Table.Names())
	assert.Equal(t, []int64{999}, res.Diagnostics.UnmappedNutrients)
}

func TestPipeline_Run_FloatIDsAndIntegerAmounts(t *testing.T) {
	fx := testutil.NutritionFixture(t)
	testutil.WriteFile(t, fx.Dir, "food_nutrient.csv",
		"fdc_id,nutrient_id,amount\n1,100.0,5\n1,200.0,3\n2,100.0,7\n")
	testutil.WriteFile(t, fx.Dir, "food.csv",
		"fdc_id,description,food_category_id,publication_date\n"+
			"1.0,Apple,10,2020-01-01\n"+
			"2.0,Banana,10,2020-01-02\n")
	cfg := fixtureConfig(t, fx)

	res, err := New(cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Diagnostics.UnmappedNutrients)
	assert.Zero(t, res.Diagnostics.UnmatchedFoods)

	data, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	want := "description,food_category_id,publication_date,Protein_G,Fat_G\n" +
		"Apple,10,2020-01-01,5.0,3.0\n" +
		"Banana,10,2020-01-02,7.0,\n"
	assert.Equal(t, want, string(data))
}

func TestPipeline_Run_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config, fx testutil.Fixture)
		wantErr error
	}{
		{
			name: "missing measurements",
			mutate: func(cfg *Config, fx testutil.Fixture) {
				cfg.MeasurementsPath = filepath.Join(fx.Dir, "absent.csv")
			},
			wantErr: ErrMissingResource,
		},
		{
			name: "missing nutrients",
			mutate: func(cfg *Config, fx testutil.Fixture) {
				cfg.NutrientsPath = filepath.Join(fx.Dir, "absent.csv")
			},
			wantErr: ErrMissingResource,
		},
		{
			name: "missing foods",
			mutate: func(cfg *Config, fx testutil.Fixture) {
				cfg.FoodsPath = filepath.Join(fx.Dir, "absent.csv")
			},
			wantErr: ErrMissingResource,
		},
		{
			name: "memory budget",
			mutate: func(cfg *Config, _ testutil.Fixture) {
				cfg.MemoryLimit = 64
			},
			wantErr: ErrResourceExhausted,
		},
		{
			name: "measurement columns absent",
			mutate: func(cfg *Config, fx testutil.Fixture) {
				cfg.MeasurementsPath = testutil.WriteFile(t, fx.Dir, "bad.csv", "fdc_id,amount\n1,2.0\n")
			},
			wantErr: ErrMissingColumn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := testutil.NutritionFixture(t)
			cfg := fixtureConfig(t, fx)
			tt.mutate(&cfg, fx)

			_, err := New(cfg).Run(context.Background())
			require.ErrorIs(t, err, tt.wantErr)

			_, statErr := os.Stat(cfg.OutputPath)
			assert.True(t, os.IsNotExist(statErr), "no output may be written on failure")
		})
	}
}

func TestPipeline_Run_Cancelled(t *testing.T) {
	fx := testutil.NutritionFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(fixtureConfig(t, fx)).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

type countingStage struct {
	prepares int
	applies  int
	err      error
}

func (s *countingStage) Name() string { return "counting" }

func (s *countingStage) Prepare(context.Context) error {
	s.prepares++
	return nil
}

func (s *countingStage) Apply(_ context.Context, t *table.Table) (*table.Table, error) {
	s.applies++
	return t, s.err
}

func TestPipeline_Transform_PreparesOnce(t *testing.T) {
	stage := &countingStage{}
	p := NewWithStages(Config{}, stage)
	in := table.MustNew(table.NewColumn("a", table.KindInt, []any{int64(1)}))

	for i := 0; i < 3; i++ {
		_, err := p.Transform(context.Background(), in)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, stage.prepares)
	assert.Equal(t, 3, stage.applies)
}

func TestPipeline_Transform_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	failing := &countingStage{err: boom}
	after := &countingStage{}
	p := NewWithStages(Config{}, failing, after)

	_, err := p.Transform(context.Background(), table.MustNew())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, after.prepares)
	assert.Equal(t, 0, after.applies)
}

func TestPipeline_Stages(t *testing.T) {
	p := New(Config{})
	var names []string
	for _, s := range p.Stages() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"pivot", "rename", "enrich"}, names)
}
