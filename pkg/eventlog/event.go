// Package eventlog records drowsiness events to CSV and SQLite.
package eventlog

import (
	"fmt"
	"time"
)

// Event names.
const (
	AlarmStarted          = "AlarmStarted"
	DrowsyEventDuration   = "DrowsyEventDuration"
	AutoStoppedOnShoulder = "AutoStoppedOnShoulder"
	AutoReturnCompleted   = "AutoReturnCompleted"
)

// Event is one log row.
type Event struct {
	Time        time.Time     `json:"time"`
	Name        string        `json:"name"`
	Duration    time.Duration `json:"duration,omitempty"`
	HasDuration bool          `json:"has_duration"`
	Session     string        `json:"session"`
}

// ClockText is the wall-clock column.
func (e Event) ClockText() string {
	return e.Time.Format("15:04:05")
}

// DurationText is the seconds column, empty when the event has no duration.
func (e Event) DurationText() string {
	if !e.HasDuration {
		return ""
	}
	return fmt.Sprintf("%.2f", e.Duration.Seconds())
}

// Sink stores events.
type Sink interface {
	Write(e Event) error
	Close() error
}

// Config holds event log destinations.
type Config struct {
	CSVPath    string `mapstructure:"csv_path" yaml:"csv_path"`       // Empty disables
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"` // Empty disables
	Recent     int    `mapstructure:"recent" yaml:"recent"`           // Events kept for the dashboard
}

// DefaultConfig writes CSV only.
func DefaultConfig() Config {
	return Config{
		CSVPath: "drowsiness_log.csv",
		Recent:  50,
	}
}

// Validate checks the settings.
func (c Config) Validate() error {
	if c.Recent < 0 {
		return fmt.Errorf("eventlog: recent must not be negative, got %d", c.Recent)
	}
	return nil
}
