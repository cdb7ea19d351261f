// Package config loads roadloom settings from .roadloom.yaml files and
// ROADLOOM_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/joshharrison/roadloom/internal/calendar"
)

// EnvPrefix is prepended to every environment override, e.g.
// ROADLOOM_SOURCE_PATH for source.path.
const EnvPrefix = "ROADLOOM"

// FileName is the config file looked up in the working and home directories.
const FileName = ".roadloom"

// Config represents the complete roadloom configuration
type Config struct {
	// ProjectStart anchors the schedule: an ISO date, or "today" / empty
	// for the current day.
	ProjectStart string       `mapstructure:"project_start"`
	Source       SourceConfig `mapstructure:"source"`
	Output       OutputConfig `mapstructure:"output"`
	Viewer       ViewerConfig `mapstructure:"viewer"`
	Log          LogConfig    `mapstructure:"log"`
	State        StateConfig  `mapstructure:"state"`
}

// SourceConfig says where features are loaded from.
type SourceConfig struct {
	// Type is one of "file", "command" or "postgres"
	Type    string `mapstructure:"type"`
	Path    string `mapstructure:"path"`
	Command string `mapstructure:"command"`
	DSN     string `mapstructure:"dsn"`
	// RoadmapID limits a postgres source to one roadmap (empty = all)
	RoadmapID string `mapstructure:"roadmap_id"`
}

// OutputConfig controls rendering.
type OutputConfig struct {
	// Format is one of "text", "json" or "yaml"
	Format     string `mapstructure:"format"`
	NoColor    bool   `mapstructure:"no_color"`
	GanttWidth int    `mapstructure:"gantt_width"`
}

// ViewerConfig controls the HTTP viewer.
type ViewerConfig struct {
	Port int `mapstructure:"port"`
}

// LogConfig controls diagnostic logging on stderr.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StateConfig controls where saved timelines live.
type StateConfig struct {
	Dir string `mapstructure:"dir"`
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		ProjectStart: "today",
		Source: SourceConfig{
			Type: "file",
			Path: "features.yaml",
		},
		Output: OutputConfig{
			Format:     "text",
			GanttWidth: 80,
		},
		Viewer: ViewerConfig{Port: 7171},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		State: StateConfig{Dir: ".roadloom"},
	}
}

// SetDefaults registers default values with v
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("project_start", defaults.ProjectStart)

	v.SetDefault("source.type", defaults.Source.Type)
	v.SetDefault("source.path", defaults.Source.Path)
	v.SetDefault("source.command", defaults.Source.Command)
	v.SetDefault("source.dsn", defaults.Source.DSN)
	v.SetDefault("source.roadmap_id", defaults.Source.RoadmapID)

	v.SetDefault("output.format", defaults.Output.Format)
	v.SetDefault("output.no_color", defaults.Output.NoColor)
	v.SetDefault("output.gantt_width", defaults.Output.GanttWidth)

	v.SetDefault("viewer.port", defaults.Viewer.Port)

	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)

	v.SetDefault("state.dir", defaults.State.Dir)
}

// ReadIn wires env overrides into v and reads the config file. An explicit
// cfgFile must exist; otherwise ./.roadloom.yaml then ~/.roadloom.yaml are
// tried and a missing file is not an error.
func ReadIn(v *viper.Viper, cfgFile string) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load reads the configuration from v into a Config struct and validates it
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Start resolves ProjectStart to a date.
func (c *Config) Start() (calendar.Date, error) {
	switch strings.ToLower(strings.TrimSpace(c.ProjectStart)) {
	case "", "today":
		return calendar.Today(), nil
	}
	return calendar.Parse(c.ProjectStart)
}
