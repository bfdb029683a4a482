package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/leapstack-labs/nutripipe/pkg/table"
)

// UnknownNutrientPrefix starts the label given to nutrient ids that have no
// metadata row.
const UnknownNutrientPrefix = "unknown_nutrient_"

// Renamer replaces numeric nutrient id column labels with "<name>_<unit>"
// labels read from the nutrient metadata file.
type Renamer struct {
	path   string
	opts   SourceOptions
	logger *slog.Logger

	labels map[int64]string
}

// NewRenamer creates a Renamer over the nutrient metadata file at path.
func NewRenamer(path string, opts SourceOptions, logger *slog.Logger) *Renamer {
	return &Renamer{path: path, opts: opts, logger: orDiscard(logger)}
}

// Name returns "rename".
func (r *Renamer) Name() string { return "rename" }

// Prepare reads the nutrient metadata and builds the id to label mapping.
// A missing file is fatal; no partial mapping is kept.
func (r *Renamer) Prepare(ctx context.Context) error {
	r.logger.Info("loading nutrient names", slog.String("path", r.path))

	meta, err := r.opts.read(ctx, r.path, nil)
	if err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	if err := meta.Require(NutrientMetaID, NutrientMetaName, NutrientMetaUnit); err != nil {
		return fmt.Errorf("rename: %s: %w: %w", r.path, ErrMissingColumn, err)
	}

	ids, _ := meta.Column(NutrientMetaID)
	names, _ := meta.Column(NutrientMetaName)
	units, _ := meta.Column(NutrientMetaUnit)

	labels := make(map[int64]string, meta.NumRows())
	for i := 0; i < meta.NumRows(); i++ {
		id, ok := table.AsInt(ids.Values[i])
		if !ok {
			r.logger.Debug("skipping nutrient with non-numeric id", slog.Any("id", ids.Values[i]))
			continue
		}
		labels[id] = table.FormatValue(names.Values[i]) + "_" + table.FormatValue(units.Values[i])
	}

	r.labels = labels
	r.logger.Info("nutrient name mapping created", slog.Int("nutrients", len(labels)))
	return nil
}

// Label returns the label for a nutrient id and whether metadata exists.
// Unknown ids get UnknownNutrientPrefix followed by the id.
func (r *Renamer) Label(id int64) (string, bool) {
	if name, ok := r.labels[id]; ok {
		return name, true
	}
	return UnknownNutrientPrefix + strconv.FormatInt(id, 10), false
}

// Apply relabels every numeric column of t. Textual labels such as fdc_id
// are left alone and column order is unchanged.
func (r *Renamer) Apply(ctx context.Context, t *table.Table) (*table.Table, error) {
	if r.labels == nil {
		return nil, fmt.Errorf("rename: %w", ErrNotPrepared)
	}
	if err := checkInput(r.Name(), t); err != nil {
		return nil, err
	}

	r.logger.Info("renaming nutrient columns", slog.Int("columns", t.NumCols()))

	diag := DiagnosticsFrom(ctx)
	seen := make(map[string]int64)
	out := t.Relabel(func(l table.Label) table.Label {
		id, numeric := l.Numeric()
		if !numeric {
			return l
		}
		name, known := r.Label(id)
		if !known {
			r.logger.Warn("no metadata for nutrient", slog.Int64("nutrient_id", id), slog.String("label", name))
			if diag != nil {
				diag.UnmappedNutrients = append(diag.UnmappedNutrients, id)
			}
		}
		if prev, dup := seen[name]; dup {
			r.logger.Warn("nutrients share a label",
				slog.String("label", name), slog.Int64("first", prev), slog.Int64("second", id))
		} else {
			seen[name] = id
		}
		return table.Name(name)
	})
	return out, nil
}
