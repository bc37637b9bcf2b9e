// Package config loads go-drowsy settings from defaults, drowsy.yaml,
// DROWSY_* environment variables and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/teslashibe/go-drowsy/pkg/alarm"
	"github.com/teslashibe/go-drowsy/pkg/animation"
	"github.com/teslashibe/go-drowsy/pkg/camera"
	"github.com/teslashibe/go-drowsy/pkg/detection"
	"github.com/teslashibe/go-drowsy/pkg/driver"
	"github.com/teslashibe/go-drowsy/pkg/eventlog"
	"github.com/teslashibe/go-drowsy/pkg/recorder"
	"github.com/teslashibe/go-drowsy/pkg/web"
)

// Name is the config file base name and env prefix.
const Name = "drowsy"

// Config holds all configuration for the drowsiness monitor.
type Config struct {
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat   string `mapstructure:"log_format" yaml:"log_format"` // "text" or "json"; empty follows GO_ENV
	Debug       bool   `mapstructure:"debug" yaml:"debug"`
	DebugFrames bool   `mapstructure:"debug_frames" yaml:"debug_frames"`

	// Display opens the two OpenCV windows.
	Display bool `mapstructure:"display" yaml:"display"`

	// TUI replaces plain log output with the terminal status view.
	TUI bool `mapstructure:"tui" yaml:"tui"`

	Driver    driver.Config    `mapstructure:"driver" yaml:"driver"`
	Animation animation.Config `mapstructure:"animation" yaml:"animation"`
	Camera    camera.Config    `mapstructure:"camera" yaml:"camera"`
	Detection detection.Config `mapstructure:"detection" yaml:"detection"`
	Alarm     alarm.Config     `mapstructure:"alarm" yaml:"alarm"`
	Recorder  recorder.Config  `mapstructure:"recorder" yaml:"recorder"`
	Events    eventlog.Config  `mapstructure:"events" yaml:"events"`
	Web       web.Config       `mapstructure:"web" yaml:"web"`
}

// Default returns the demo configuration.
func Default() Config {
	return Config{
		LogLevel:  "info",
		Display:   true,
		Driver:    driver.DefaultConfig(),
		Animation: animation.DefaultConfig(),
		Camera:    camera.DefaultConfig(),
		Detection: detection.DefaultConfig(),
		Alarm:     alarm.DefaultConfig(),
		Recorder:  recorder.DefaultConfig(),
		Events:    eventlog.DefaultConfig(),
		Web:       web.DefaultConfig(),
	}
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate checks every section.
func (c *Config) Validate() error {
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return &ConfigError{Field: "log_format", Message: fmt.Sprintf("must be text or json, got %q", c.LogFormat)}
	}

	checks := []struct {
		field string
		err   error
	}{
		{"driver", c.Driver.Validate()},
		{"animation", c.Animation.Validate()},
		{"alarm", c.Alarm.Validate()},
		{"recorder", c.Recorder.Validate()},
		{"events", c.Events.Validate()},
	}
	for _, chk := range checks {
		if chk.err != nil {
			return &ConfigError{Field: chk.field, Message: chk.err.Error()}
		}
	}

	if errs := c.Camera.Validate(); len(errs) > 0 {
		return &ConfigError{Field: "camera", Message: strings.Join(errs, "; ")}
	}
	if c.Detection.ScaleFactor <= 1 {
		return &ConfigError{Field: "detection.scale_factor", Message: "must be greater than 1"}
	}
	return nil
}

// Path returns the per-user config file location.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not get user config directory: %w", err)
	}
	return filepath.Join(dir, Name, Name+".yaml"), nil
}

// Defaults flattens Default() into dotted viper keys.
func Defaults() (map[string]any, error) {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return nil, fmt.Errorf("encode defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("decode defaults: %w", err)
	}

	out := make(map[string]any)
	flatten("", tree, out)
	return out, nil
}

func flatten(prefix string, in map[string]any, out map[string]any) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = v
	}
}

// FlagKeys maps command-line flag names to config keys.
var FlagKeys = map[string]string{
	"log-level":    "log_level",
	"log-format":   "log_format",
	"debug":        "debug",
	"debug-frames": "debug_frames",
	"display":      "display",
	"tui":          "tui",
	"device":       "camera.device",
	"width":        "camera.width",
	"height":       "camera.height",
	"alarm":        "alarm.backend",
	"sound":        "alarm.sound",
	"record-dir":   "recorder.dir",
	"csv":          "events.csv_path",
	"sqlite":       "events.sqlite_path",
	"web":          "web.enabled",
	"addr":         "web.addr",
}

// LoadConfig layers defaults, the config file, environment and flags into T.
// An explicit path must exist; otherwise a missing file is not an error.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, path *string) (T, error) {
	var c T
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName(Name)
	v.SetConfigType("yaml")
	if path != nil && *path != "" {
		v.SetConfigFile(*path)
	}
	if userPath, err := Path(); err == nil {
		v.AddConfigPath(filepath.Dir(userPath))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	v.SetEnvPrefix(Name)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		for name, key := range FlagKeys {
			if f := cmd.Flags().Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return c, err
				}
			}
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}

// Load reads and validates the full configuration.
func Load(cmd *cobra.Command, path string) (Config, error) {
	defaults, err := Defaults()
	if err != nil {
		return Config{}, err
	}

	c, err := LoadConfig[Config](cmd, defaults, &path)
	if err != nil {
		return c, fmt.Errorf("load config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Write saves c as YAML at path, creating parent directories.
func Write(c *Config, path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", filepath.Dir(path), err)
	}

	return os.WriteFile(path, data, 0o644)
}
