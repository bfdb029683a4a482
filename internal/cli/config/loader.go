package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// flagKeys maps flag names whose config key differs from the snake_case
// form of the flag.
var flagKeys = map[string]string{
	"state":           "state_path",
	"export-type":     "export.type",
	"export-path":     "export.path",
	"export-table":    "export.table",
	"export-database": "export.database",
	"export-host":     "export.host",
	"export-port":     "export.port",
	"export-user":     "export.user",
	"export-schema":   "export.schema",
}

// pathKeys are resolved against the config file directory.
var pathKeys = []string{"measurements", "nutrients", "foods", "output", "state_path"}

// findConfigFile returns the config file to use, or "" when there is none.
// Priority: explicit path > nutripipe.yaml > nutripipe.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range DefaultConfigFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty, absolute or in-memory.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}

// Load loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
// It returns the config and the path of the config file used, if any.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, string, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]any{
		"measurements":  DefaultMeasurements,
		"nutrients":     DefaultNutrients,
		"foods":         DefaultFoods,
		"output":        DefaultOutput,
		"delimiter":     DefaultDelimiter,
		"memory_limit":  "",
		"state_path":    DefaultStateFile,
		"verbose":       false,
		"log_format":    DefaultLogFormat,
		"output_format": DefaultOutputFormat,
	}, "."), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	used := findConfigFile(cfgFile)
	var configDir string
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, "", fmt.Errorf("error reading config file %s: %w", used, err)
		}
		if abs, err := filepath.Abs(used); err == nil {
			configDir = filepath.Dir(abs)
		}
	}

	// Paths written in the config file are relative to it. Resolve them
	// before env and flags are layered on, which stay relative to the
	// working directory.
	if configDir != "" {
		for _, key := range pathKeys {
			if k.Exists(key) {
				_ = k.Set(key, resolvePathRelativeTo(k.String(key), configDir))
			}
		}
		if k.Exists("export.path") {
			_ = k.Set("export.path", resolvePathRelativeTo(k.String("export.path"), configDir))
		}
	}

	// 3. Load environment variables (NUTRIPIPE_ prefix)
	// Transform: NUTRIPIPE_MEMORY_LIMIT -> memory_limit, NUTRIPIPE_EXPORT__TYPE -> export.type
	if err := k.Load(env.Provider("NUTRIPIPE_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "NUTRIPIPE_"))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			if key, ok := flagKeys[f.Name]; ok {
				return key, posflag.FlagVal(flags, f)
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, "", fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, "", fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ConfigDir = configDir

	if cfg.Export.Enabled() {
		if cfg.Export.Table == "" {
			cfg.Export.Table = DefaultExportTable
		}
		expandExportEnvVars(cfg.Export)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return &cfg, used, nil
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match // Return original if not found
	})
}

// expandExportEnvVars expands environment variables in connection fields.
func expandExportEnvVars(e *ExportConfig) {
	e.Password = expandEnvVars(e.Password)
	e.User = expandEnvVars(e.User)
	e.Host = expandEnvVars(e.Host)
	e.Database = expandEnvVars(e.Database)
}
