package rules

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads the rule table from a YAML/JSON/TOML file. An empty path yields Default().
// Sections missing from the file keep their default values.
func Load(path string, validate *validator.Validate) (Table, error) {
	table := Default()
	if strings.TrimSpace(path) == "" {
		if err := table.Validate(validate); err != nil {
			return Table{}, err
		}
		return table, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Table{}, fmt.Errorf("read rules file: %w", err)
	}

	if v.IsSet("points") {
		if err := v.UnmarshalKey("points", &table.Points); err != nil {
			return Table{}, fmt.Errorf("decode points: %w", err)
		}
	}
	if v.IsSet("levels") {
		table.Levels = nil
		if err := v.UnmarshalKey("levels", &table.Levels); err != nil {
			return Table{}, fmt.Errorf("decode levels: %w", err)
		}
	}
	if v.IsSet("badges") {
		table.Badges = nil
		if err := v.UnmarshalKey("badges", &table.Badges); err != nil {
			return Table{}, fmt.Errorf("decode badges: %w", err)
		}
	}
	if v.IsSet("rewards") {
		table.Rewards = nil
		if err := v.UnmarshalKey("rewards", &table.Rewards); err != nil {
			return Table{}, fmt.Errorf("decode rewards: %w", err)
		}
	}

	if err := table.Validate(validate); err != nil {
		return Table{}, fmt.Errorf("invalid rules file %s: %w", path, err)
	}

	return table, nil
}
