// Package animation drives the car animation shown next to the driver feed.
//
// A small timed state machine sequences the car through
// normal → indicator → changing_right → stopped → returning → normal,
// in lockstep with the driver monitor (alarm on starts the sequence,
// alarm off brings the car back). Position and speed are interpolated
// from the moment each phase starts.
//
// The Renderer runs the machine in its own goroutine and accepts
// commands through a best-effort, non-blocking queue.
package animation

import (
	"fmt"
	"time"
)

// State is the animation phase.
type State string

const (
	StateNormal        State = "normal"
	StateIndicator     State = "indicator"
	StateChangingRight State = "changing_right"
	StateStopped       State = "stopped"
	StateReturning     State = "returning"
)

// Frame is one evaluated animation sample.
type Frame struct {
	State     State     `json:"state"`
	Active    bool      `json:"active"`
	Shift     float64   `json:"shift"`     // Lateral offset in pixels, 0..MaxShift
	MaxShift  float64   `json:"max_shift"` // Shoulder offset in pixels
	Speed     float64   `json:"speed"`     // km/h, 0..CruiseSpeed
	Indicator bool      `json:"indicator"` // Right indicator lamp lit
	At        time.Time `json:"at"`
}

// Progress returns how far the car is toward the shoulder (0-1).
func (f Frame) Progress() float64 {
	if f.MaxShift <= 0 {
		return 0
	}
	return clamp(f.Shift/f.MaxShift, 0, 1)
}

// Transition records a state change.
type Transition struct {
	From State
	To   State
	At   time.Time
}

// Config holds animation timing and geometry.
type Config struct {
	// Phase timing
	IndicatorDuration  time.Duration `mapstructure:"indicator_duration" yaml:"indicator_duration"`     // Indicator blinks before the lane change
	LaneChangeDuration time.Duration `mapstructure:"lane_change_duration" yaml:"lane_change_duration"` // Move onto the shoulder
	DecelDuration      time.Duration `mapstructure:"decel_duration" yaml:"decel_duration"`             // Cruise speed → 0
	AccelDuration      time.Duration `mapstructure:"accel_duration" yaml:"accel_duration"`             // 0 → cruise speed
	ReturnDuration     time.Duration `mapstructure:"return_duration" yaml:"return_duration"`           // Shoulder → lane centre

	// Blink rates (phase toggles per second)
	IndicatorBlinkRate float64 `mapstructure:"indicator_blink_rate" yaml:"indicator_blink_rate"`
	ChangingBlinkRate  float64 `mapstructure:"changing_blink_rate" yaml:"changing_blink_rate"`

	// Geometry
	Width         int     `mapstructure:"width" yaml:"width"`
	Height        int     `mapstructure:"height" yaml:"height"`
	MaxShiftRatio float64 `mapstructure:"max_shift_ratio" yaml:"max_shift_ratio"` // Fraction of width the car moves right
	CruiseSpeed   float64 `mapstructure:"cruise_speed" yaml:"cruise_speed"`

	// Render loop
	TickInterval time.Duration `mapstructure:"tick_interval" yaml:"tick_interval"`
	QueueSize    int           `mapstructure:"queue_size" yaml:"queue_size"`
}

// DefaultConfig returns the demo timing.
func DefaultConfig() Config {
	return Config{
		IndicatorDuration:  2 * time.Second,
		LaneChangeDuration: 4 * time.Second,
		DecelDuration:      3 * time.Second,
		AccelDuration:      3 * time.Second,
		ReturnDuration:     4 * time.Second,

		IndicatorBlinkRate: 2,
		ChangingBlinkRate:  3, // Faster while changing lanes

		Width:         640,
		Height:        480,
		MaxShiftRatio: 0.24, // About a quarter of the width
		CruiseSpeed:   100,

		TickInterval: 33 * time.Millisecond, // ~30 FPS
		QueueSize:    8,
	}
}

// MaxShift returns the shoulder offset in whole pixels.
func (c Config) MaxShift() float64 {
	return float64(int(float64(c.Width) * c.MaxShiftRatio))
}

// Validate checks durations and geometry.
func (c Config) Validate() error {
	durations := map[string]time.Duration{
		"indicator_duration":   c.IndicatorDuration,
		"lane_change_duration": c.LaneChangeDuration,
		"decel_duration":       c.DecelDuration,
		"accel_duration":       c.AccelDuration,
		"return_duration":      c.ReturnDuration,
		"tick_interval":        c.TickInterval,
	}
	for name, d := range durations {
		if d <= 0 {
			return fmt.Errorf("animation: %s must be positive, got %v", name, d)
		}
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("animation: size must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.MaxShiftRatio <= 0 || c.MaxShiftRatio > 0.5 {
		return fmt.Errorf("animation: max_shift_ratio must be in (0, 0.5], got %v", c.MaxShiftRatio)
	}
	if c.CruiseSpeed <= 0 {
		return fmt.Errorf("animation: cruise_speed must be positive, got %v", c.CruiseSpeed)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("animation: queue_size must be at least 1, got %d", c.QueueSize)
	}
	return nil
}
