package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/nutripipe/pkg/table"
)

// Column names of the FoodData Central style input files.
const (
	FoodIDColumn          = "fdc_id"
	NutrientIDColumn      = "nutrient_id"
	AmountColumn          = "amount"
	NutrientMetaID        = "id"
	NutrientMetaName      = "name"
	NutrientMetaUnit      = "unit_name"
	DescriptionColumn     = "description"
	FoodCategoryColumn    = "food_category_id"
	PublicationDateColumn = "publication_date"
)

// Stage is one step of the pipeline. Prepare loads whatever side data the
// stage needs and is called once; Apply may then be called any number of
// times. Apply never modifies its input.
type Stage interface {
	// Name identifies the stage in logs.
	Name() string
	// Prepare loads side data.
	Prepare(ctx context.Context) error
	// Apply transforms a table into a new table.
	Apply(ctx context.Context, t *table.Table) (*table.Table, error)
}

// SourceOptions controls how stages read delimited side files.
type SourceOptions struct {
	Delimiter   rune
	MemoryLimit int64
}

func (o SourceOptions) read(ctx context.Context, path string, columns []string) (*table.Table, error) {
	t, err := table.ReadCSVFile(ctx, path, table.ReadOptions{
		Columns:   columns,
		Delimiter: o.Delimiter,
		MaxBytes:  o.MemoryLimit,
	})
	if err != nil {
		return nil, classify(path, err)
	}
	return t, nil
}

func checkInput(stage string, t *table.Table, columns ...string) error {
	if t == nil {
		return fmt.Errorf("%s: %w", stage, ErrInputType)
	}
	if err := t.Require(columns...); err != nil {
		return fmt.Errorf("%s: %w: %w", stage, ErrMissingColumn, err)
	}
	return nil
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
