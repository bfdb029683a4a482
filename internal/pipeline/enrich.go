package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/nutripipe/pkg/table"
)

// foodColumns are the only columns read from the food metadata file.
var foodColumns = []string{FoodIDColumn, DescriptionColumn, FoodCategoryColumn, PublicationDateColumn}

// infoColumns lead the final table, in this order.
var infoColumns = []string{DescriptionColumn, FoodCategoryColumn, PublicationDateColumn}

// Enricher replaces the fdc_id column with the food description, category
// and publication date from the food metadata file.
type Enricher struct {
	path   string
	opts   SourceOptions
	logger *slog.Logger

	foods *table.Table
}

// NewEnricher creates an Enricher over the food metadata file at path.
func NewEnricher(path string, opts SourceOptions, logger *slog.Logger) *Enricher {
	return &Enricher{path: path, opts: opts, logger: orDiscard(logger)}
}

// Name returns "enrich".
func (e *Enricher) Name() string { return "enrich" }

// Prepare reads the four food metadata columns into memory.
func (e *Enricher) Prepare(ctx context.Context) error {
	e.logger.Info("loading food descriptions", slog.String("path", e.path))

	foods, err := e.opts.read(ctx, e.path, foodColumns)
	if err != nil {
		return fmt.Errorf("enrich: %w", err)
	}

	e.foods = foods
	e.logger.Info("food descriptions loaded", slog.Int("foods", foods.NumRows()))
	return nil
}

// Apply right-joins the food metadata onto t by fdc_id, keeping every row of
// t in order, then drops fdc_id and moves description, food_category_id and
// publication_date to the front. Foods without metadata get missing cells.
func (e *Enricher) Apply(ctx context.Context, t *table.Table) (*table.Table, error) {
	if e.foods == nil {
		return nil, fmt.Errorf("enrich: %w", ErrNotPrepared)
	}
	if err := checkInput(e.Name(), t, FoodIDColumn); err != nil {
		return nil, err
	}

	e.logger.Info("enriching with food descriptions", slog.Int("rows", t.NumRows()))

	joined, stats, err := table.RightJoin(e.foods, t, FoodIDColumn)
	if err != nil {
		return nil, fmt.Errorf("enrich: %w", err)
	}

	if stats.Unmatched > 0 {
		e.logger.Warn("foods without metadata", slog.Int("count", stats.Unmatched))
	}
	if stats.DuplicateKeys > 0 {
		e.logger.Warn("ignored repeated food metadata rows", slog.Int("count", stats.DuplicateKeys))
	}
	if d := DiagnosticsFrom(ctx); d != nil {
		d.UnmatchedFoods += stats.Unmatched
		d.DuplicateFoods += stats.DuplicateKeys
	}

	// The join puts the metadata columns first, then t's columns minus fdc_id.
	order := make([]int, 0, joined.NumCols()-1)
	for _, name := range infoColumns {
		order = append(order, joined.Index(name))
	}
	for i := e.foods.NumCols(); i < joined.NumCols(); i++ {
		order = append(order, i)
	}

	out := joined.SelectAt(order...)
	e.logger.Info("food enrichment complete", slog.Int("rows", out.NumRows()), slog.Int("columns", out.NumCols()))
	return out, nil
}
