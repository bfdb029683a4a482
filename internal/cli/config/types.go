// Package config provides configuration management for the nutripipe CLI.
//
// Values are layered with koanf: built-in defaults, then nutripipe.yaml,
// then NUTRIPIPE_* environment variables, then explicitly set flags.
package config

// Config holds all CLI configuration options.
type Config struct {
	Measurements string        `koanf:"measurements"`
	Nutrients    string        `koanf:"nutrients"`
	Foods        string        `koanf:"foods"`
	Output       string        `koanf:"output"`
	Delimiter    string        `koanf:"delimiter"`
	MemoryLimit  string        `koanf:"memory_limit"`
	StatePath    string        `koanf:"state_path"`
	Verbose      bool          `koanf:"verbose"`
	LogFormat    string        `koanf:"log_format"`
	OutputFormat string        `koanf:"output_format"`
	Export       *ExportConfig `koanf:"export"`

	// ConfigDir is the directory relative paths from the config file are
	// resolved against. Not loaded from configuration.
	ConfigDir string `koanf:"-"`
}

// ExportConfig selects an optional database to receive the final table.
type ExportConfig struct {
	Type     string            `koanf:"type" yaml:"type"`
	Path     string            `koanf:"path" yaml:"path,omitempty"`
	Table    string            `koanf:"table" yaml:"table,omitempty"`
	Host     string            `koanf:"host" yaml:"host,omitempty"`
	Port     int               `koanf:"port" yaml:"port,omitempty"`
	Database string            `koanf:"database" yaml:"database,omitempty"`
	User     string            `koanf:"user" yaml:"user,omitempty"`
	Password string            `koanf:"password" yaml:"password,omitempty"`
	Schema   string            `koanf:"schema" yaml:"schema,omitempty"`
	Options  map[string]string `koanf:"options" yaml:"options,omitempty"`
	Params   map[string]any    `koanf:"params" yaml:"params,omitempty"`
}

// Enabled reports whether an export target is configured.
func (e *ExportConfig) Enabled() bool {
	return e != nil && e.Type != ""
}

// Default configuration values.
const (
	DefaultMeasurements = "food_nutrient.csv"
	DefaultNutrients    = "nutrient.csv"
	DefaultFoods        = "food.csv"
	DefaultOutput       = "Nutrition_Database.csv"
	DefaultDelimiter    = ","
	DefaultStateFile    = ".nutripipe/state.db"
	DefaultLogFormat    = "text"
	DefaultOutputFormat = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultExportTable  = "nutrition"
)

// DefaultConfigFiles are searched in the working directory, in order.
var DefaultConfigFiles = []string{"nutripipe.yaml", "nutripipe.yml"}
