// Package camera opens the webcam and holds its runtime-configurable settings.
package camera

import (
	"slices"
	"time"
)

// Config holds all camera configuration parameters.
// Resolution and quality can be modified via the camera API at runtime.
type Config struct {
	// === Device ===
	Device   int      `json:"device" mapstructure:"device" yaml:"device"`       // Capture device index
	Backends []string `json:"backends" mapstructure:"backends" yaml:"backends"` // Probe order, first that opens wins

	// === Resolution ===
	Width   int `json:"width" mapstructure:"width" yaml:"width"`       // Frame width in pixels
	Height  int `json:"height" mapstructure:"height" yaml:"height"`    // Frame height in pixels
	Quality int `json:"quality" mapstructure:"quality" yaml:"quality"` // JPEG quality 1-100 for the dashboard

	// === Timing ===
	// SettleDelay is slept after every open attempt; some drivers report
	// opened before the first frame is ready.
	SettleDelay time.Duration `json:"settle_delay" mapstructure:"settle_delay" yaml:"settle_delay"`

	// RetryDelay is slept after a failed read.
	RetryDelay time.Duration `json:"retry_delay" mapstructure:"retry_delay" yaml:"retry_delay"`
}

// Limits
const (
	MinWidth  = 160
	MaxWidth  = 3840
	MinHeight = 120
	MaxHeight = 2160
)

// DefaultConfig returns 640x480 on device 0, probing Windows backends first.
func DefaultConfig() Config {
	return Config{
		Device:      0,
		Backends:    []string{BackendDshow, BackendMSMF, BackendVFW, BackendAny},
		Width:       640,
		Height:      480,
		Quality:     80,
		SettleDelay: time.Second,
		RetryDelay:  500 * time.Millisecond,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Device < 0 {
		errors = append(errors, "device must not be negative")
	}
	if len(c.Backends) == 0 {
		errors = append(errors, "at least one backend is required")
	}
	for _, b := range c.Backends {
		if !slices.Contains(BackendNames(), b) {
			errors = append(errors, "unknown backend: "+b)
		}
	}

	// Resolution
	if c.Width < MinWidth || c.Width > MaxWidth {
		errors = append(errors, "width must be between 160 and 3840")
	}
	if c.Height < MinHeight || c.Height > MaxHeight {
		errors = append(errors, "height must be between 120 and 2160")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}

	if c.SettleDelay < 0 || c.RetryDelay < 0 {
		errors = append(errors, "delays must not be negative")
	}

	return errors
}

// Capabilities describes what the camera API accepts.
func Capabilities() map[string]interface{} {
	return map[string]interface{}{
		"min_width":  MinWidth,
		"max_width":  MaxWidth,
		"min_height": MinHeight,
		"max_height": MaxHeight,
		"backends":   BackendNames(),
		"presets":    PresetNames(),
	}
}
