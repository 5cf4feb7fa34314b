// Package config loads runtime settings and the branch naming rules.
package config

import "github.com/spf13/viper"

// Version is set at build time via -ldflags.
var Version = "dev"

// Config holds all runtime configuration for branchsmith.
type Config struct {
	Port          int
	StateDir      string
	RulesFile     string
	LogLevel      string
	LogFormat     string
	DryRun        bool
	CreateEnabled bool
	// StatePath is where the sqlite database lives; defaults to
	// StateDir/branchsmith.db.
	StatePath string
}

// Load reads configuration from viper, which merges flag values, env vars,
// and defaults (set up by the cobra command in cmd/branchsmith).
func Load() Config {
	return Config{
		Port:          viper.GetInt("port"),
		StateDir:      viper.GetString("state_dir"),
		RulesFile:     viper.GetString("rules_file"),
		LogLevel:      viper.GetString("log_level"),
		LogFormat:     viper.GetString("log_format"),
		DryRun:        viper.GetBool("dry_run"),
		CreateEnabled: viper.GetBool("create_enabled"),
		StatePath:     viper.GetString("state_path"),
	}
}
