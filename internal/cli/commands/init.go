package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/nutripipe/internal/cli/config"
	"github.com/leapstack-labs/nutripipe/internal/cli/output"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// starterConfig is the nutripipe.yaml written by init.
type starterConfig struct {
	Measurements string               `yaml:"measurements"`
	Nutrients    string               `yaml:"nutrients"`
	Foods        string               `yaml:"foods"`
	Output       string               `yaml:"output"`
	Delimiter    string               `yaml:"delimiter"`
	MemoryLimit  string               `yaml:"memory_limit,omitempty"`
	StatePath    string               `yaml:"state_path"`
	Export       *config.ExportConfig `yaml:"export,omitempty"`
}

const starterHeader = `# nutripipe configuration.
# Relative paths are resolved against this file's directory.
# Any key can be overridden with NUTRIPIPE_<KEY> (nested keys use __,
# e.g. NUTRIPIPE_EXPORT__TYPE) or with the matching command line flag.
`

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var (
		force      bool
		exportType string
	)

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a nutripipe.yaml",
		Long: `Create a nutripipe.yaml starter configuration with the default input and
output paths. Use --export to include an export section.`,
		Example: `  # Initialize in the current directory
  nutripipe init

  # Include a DuckDB export section
  nutripipe init --export duckdb

  # Initialize in a new directory, overwriting an existing config
  nutripipe init data/ --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(output.FromContext(cmd.Context()), dir, exportType, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration")
	cmd.Flags().StringVar(&exportType, "export", "", "Add an export section for this adapter type")

	return cmd
}

func runInit(r *output.Renderer, dir, exportType string, force bool) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, config.DefaultConfigFiles[0])
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", configPath)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	content, err := starterYAML(exportType)
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, content, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}

	r.Success("Created " + configPath)
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Place food_nutrient.csv, nutrient.csv and food.csv next to the config")
	r.Println("  2. Run 'nutripipe preview' to check the result")
	r.Println("  3. Run 'nutripipe run' to write " + config.DefaultOutput)
	return nil
}

// starterYAML renders the starter configuration.
func starterYAML(exportType string) ([]byte, error) {
	sc := starterConfig{
		Measurements: config.DefaultMeasurements,
		Nutrients:    config.DefaultNutrients,
		Foods:        config.DefaultFoods,
		Output:       config.DefaultOutput,
		Delimiter:    config.DefaultDelimiter,
		StatePath:    config.DefaultStateFile,
	}

	switch exportType {
	case "":
	case "duckdb", "sqlite":
		sc.Export = &config.ExportConfig{Type: exportType, Path: "nutrition." + exportType, Table: config.DefaultExportTable}
	case "postgres":
		sc.Export = &config.ExportConfig{
			Type:     exportType,
			Table:    config.DefaultExportTable,
			Host:     "localhost",
			Port:     5432,
			Database: "nutrition",
			User:     "postgres",
			Password: "${PGPASSWORD}",
		}
	default:
		return nil, fmt.Errorf("unknown export type %q (want duckdb, sqlite or postgres)", exportType)
	}

	body, err := yaml.Marshal(sc)
	if err != nil {
		return nil, fmt.Errorf("failed to render config: %w", err)
	}
	return append([]byte(starterHeader), body...), nil
}
