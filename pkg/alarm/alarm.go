// Package alarm plays a looping warning sound while the driver is asleep.
//
// Backends:
//   - GStreamer - gst-launch-1.0 subprocess, restarted until stopped
//   - Mock - records calls for tests
//   - None - silent, keeps state only
package alarm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
)

// Alarm is a start/stop looping sound.
type Alarm interface {
	// Start begins looping playback. Starting a playing alarm is a no-op.
	Start(ctx context.Context) error

	// Stop ends playback. Stopping a silent alarm is a no-op.
	Stop() error

	// IsPlaying reports whether the alarm is sounding.
	IsPlaying() bool

	// Close stops playback and releases resources.
	Close() error
}

// Backend represents the playback backend type.
type Backend string

const (
	// BackendAuto picks GStreamer when available, otherwise None.
	BackendAuto Backend = "auto"
	// BackendGStreamer plays through gst-launch-1.0.
	BackendGStreamer Backend = "gstreamer"
	// BackendMock records calls.
	BackendMock Backend = "mock"
	// BackendNone is silent.
	BackendNone Backend = "none"
)

// Config holds alarm configuration.
type Config struct {
	Backend Backend `mapstructure:"backend" yaml:"backend" json:"backend"`

	// Sound is the WAV file to loop.
	Sound string `mapstructure:"sound" yaml:"sound" json:"sound"`

	// Command is the GStreamer launcher.
	Command string `mapstructure:"command" yaml:"command" json:"command"`
}

// DefaultConfig returns auto backend playing alarm.wav.
func DefaultConfig() Config {
	return Config{
		Backend: BackendAuto,
		Sound:   "alarm.wav",
		Command: "gst-launch-1.0",
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendAuto, BackendGStreamer, BackendMock, BackendNone:
	default:
		return fmt.Errorf("unknown alarm backend %q", c.Backend)
	}
	if c.Backend == BackendGStreamer && c.Sound == "" {
		return fmt.Errorf("alarm sound is required for the gstreamer backend")
	}
	return nil
}

// New creates an alarm with the given configuration.
// If cfg.Backend is BackendAuto, GStreamer is used when the launcher and the
// sound file are both present.
func New(cfg Config, logger *slog.Logger) (Alarm, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	backend := cfg.Backend
	if backend == BackendAuto {
		backend = detectBackend(cfg, logger)
	}

	logger.Info("creating alarm", "backend", backend, "sound", cfg.Sound)

	switch backend {
	case BackendGStreamer:
		return NewGStreamer(cfg, logger)
	case BackendMock:
		return NewMock(), nil
	case BackendNone:
		return &silent{}, nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}
}

func detectBackend(cfg Config, logger *slog.Logger) Backend {
	if _, err := exec.LookPath(cfg.Command); err != nil {
		logger.Warn("alarm launcher not found, alarm will be silent", "command", cfg.Command)
		return BackendNone
	}
	if _, err := os.Stat(cfg.Sound); err != nil {
		logger.Warn("alarm sound not found, alarm will be silent", "sound", cfg.Sound)
		return BackendNone
	}
	return BackendGStreamer
}
