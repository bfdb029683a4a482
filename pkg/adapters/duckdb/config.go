package duckdb

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds DuckDB-specific configuration.
// Parsed from adapter.Config.Params using mapstructure.
type Params struct {
	// Extensions to install and load before writing (e.g. "json", "parquet").
	Extensions []string `mapstructure:"extensions"`

	// Settings to apply at session level (e.g. memory_limit, threads).
	Settings map[string]string `mapstructure:"settings"`
}

var settingName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// parseParams decodes the free-form params map into Params.
func parseParams(raw map[string]any) (*Params, error) {
	params := &Params{}
	if len(raw) == 0 {
		return params, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           params,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create params decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid duckdb params: %w", err)
	}
	return params, nil
}

// statements returns the SQL that applies p to a fresh connection:
// extensions first, then settings sorted by name.
func (p *Params) statements() ([]string, error) {
	var stmts []string
	for _, ext := range p.Extensions {
		if !settingName.MatchString(ext) {
			return nil, fmt.Errorf("invalid extension name %q", ext)
		}
		stmts = append(stmts, "INSTALL "+ext, "LOAD "+ext)
	}

	names := make([]string, 0, len(p.Settings))
	for name := range p.Settings {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !settingName.MatchString(name) {
			return nil, fmt.Errorf("invalid setting name %q", name)
		}
		value := strings.ReplaceAll(p.Settings[name], "'", "''")
		stmts = append(stmts, fmt.Sprintf("SET %s = '%s'", name, value))
	}
	return stmts, nil
}
