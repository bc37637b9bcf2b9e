// Package driver tracks how long the driver's eyes have been closed and
// decides when to raise and clear the drowsiness alarm.
//
// Monitor is pure: it takes the detection result for a frame plus the
// frame time and returns the status to display and the side effects the
// caller must perform (alarm, recording, animation, event log).
package driver

import (
	"fmt"
	"time"
)

// Observation is what the detector saw in one frame.
type Observation struct {
	Faces int // Faces found
	Eyes  int // Eyes found in the primary face
}

// EyesClosed reports whether the frame counts toward the closed timer.
// No face at all counts as closed.
func (o Observation) EyesClosed() bool {
	return o.Eyes == 0
}

// EffectKind enumerates side effects requested by the monitor.
type EffectKind int

const (
	EffectStartAlarm EffectKind = iota
	EffectStopAlarm
	EffectBeginSequence
	EffectEndSequence
	EffectStartRecording
	EffectStopRecording
	EffectLogEvent
)

var effectNames = map[EffectKind]string{
	EffectStartAlarm:     "start_alarm",
	EffectStopAlarm:      "stop_alarm",
	EffectBeginSequence:  "begin_sequence",
	EffectEndSequence:    "end_sequence",
	EffectStartRecording: "start_recording",
	EffectStopRecording:  "stop_recording",
	EffectLogEvent:       "log_event",
}

func (k EffectKind) String() string {
	if s, ok := effectNames[k]; ok {
		return s
	}
	return fmt.Sprintf("effect(%d)", int(k))
}

// Event names written to the event log.
const (
	EventAlarmStarted        = "AlarmStarted"
	EventDrowsyEventDuration = "DrowsyEventDuration"
)

// Effect is one action for the caller to perform.
// Event and Duration are only set for EffectLogEvent.
type Effect struct {
	Kind     EffectKind
	Event    string
	Duration time.Duration
	HasDur   bool
}

// Status is the driver state after an observation.
type Status struct {
	Faces        int           `json:"faces"`
	Eyes         int           `json:"eyes"`
	EyesClosed   bool          `json:"eyes_closed"`
	ClosedFor    time.Duration `json:"closed_for"`
	Remaining    int           `json:"remaining"` // Whole seconds of the warning countdown
	Alert        bool          `json:"alert"`
	AlarmOn      bool          `json:"alarm_on"`
	Recording    bool          `json:"recording"`
	RecordingFor time.Duration `json:"recording_for"`
}

// Config holds the drowsiness thresholds.
type Config struct {
	EyeClosedTime  time.Duration `mapstructure:"eye_closed_time" yaml:"eye_closed_time"` // Closed this long raises the alarm
	WarningTime    time.Duration `mapstructure:"warning_time" yaml:"warning_time"`       // Countdown shown on the camera feed
	RecordingRetry time.Duration `mapstructure:"recording_retry" yaml:"recording_retry"` // Wait after a recorder failed to open
}

// DefaultConfig returns the demo thresholds.
func DefaultConfig() Config {
	return Config{
		EyeClosedTime:  3 * time.Second,
		WarningTime:    5 * time.Second,
		RecordingRetry: 2 * time.Second,
	}
}

// Validate checks the thresholds.
func (c Config) Validate() error {
	if c.EyeClosedTime <= 0 {
		return fmt.Errorf("driver: eye_closed_time must be positive, got %v", c.EyeClosedTime)
	}
	if c.WarningTime < 0 {
		return fmt.Errorf("driver: warning_time must not be negative, got %v", c.WarningTime)
	}
	if c.RecordingRetry < 0 {
		return fmt.Errorf("driver: recording_retry must not be negative, got %v", c.RecordingRetry)
	}
	return nil
}

// Monitor is the eyes-closed state machine.
type Monitor struct {
	cfg Config

	closedSince    time.Time // Zero while eyes are open
	alarmOn        bool
	recording      bool
	recordingStart time.Time
	retryAt        time.Time // No recording attempt before this
}

// NewMonitor creates a monitor with eyes open and no alarm.
func NewMonitor(cfg Config) *Monitor {
	return &Monitor{cfg: cfg}
}

// AlarmOn reports whether the alarm is currently raised.
func (m *Monitor) AlarmOn() bool {
	return m.alarmOn
}

// Recording reports whether an episode is being recorded.
func (m *Monitor) Recording() bool {
	return m.recording
}

// Observe feeds one frame's detection into the machine.
func (m *Monitor) Observe(now time.Time, obs Observation) (Status, []Effect) {
	var effects []Effect

	st := Status{
		Faces:      obs.Faces,
		Eyes:       obs.Eyes,
		EyesClosed: obs.EyesClosed(),
	}

	if obs.EyesClosed() {
		if m.closedSince.IsZero() {
			m.closedSince = now
		}
		elapsed := now.Sub(m.closedSince)
		st.ClosedFor = elapsed
		st.Remaining = remaining(m.cfg.WarningTime, elapsed)

		if elapsed >= m.cfg.EyeClosedTime {
			st.Alert = true

			if !m.alarmOn {
				m.alarmOn = true
				effects = append(effects,
					Effect{Kind: EffectStartAlarm},
					Effect{Kind: EffectBeginSequence},
					Effect{Kind: EffectLogEvent, Event: EventAlarmStarted},
				)
			}
			if !m.recording && !now.Before(m.retryAt) {
				m.recording = true
				m.recordingStart = now
				effects = append(effects, Effect{Kind: EffectStartRecording})
			}
		}
	} else {
		if m.recording {
			dur := now.Sub(m.recordingStart)
			m.recording = false
			m.recordingStart = time.Time{}
			effects = append(effects,
				Effect{Kind: EffectLogEvent, Event: EventDrowsyEventDuration, Duration: dur, HasDur: true},
				Effect{Kind: EffectStopRecording},
			)
		}
		if m.alarmOn {
			m.alarmOn = false
			effects = append(effects,
				Effect{Kind: EffectStopAlarm},
				Effect{Kind: EffectEndSequence},
			)
		}
		m.closedSince = time.Time{}
	}

	st.AlarmOn = m.alarmOn
	st.Recording = m.recording
	if m.recording {
		st.RecordingFor = now.Sub(m.recordingStart)
	}

	return st, effects
}

// RecordingFailed clears the recording flag after the caller could not
// open a recorder at now. The next attempt waits RecordingRetry.
func (m *Monitor) RecordingFailed(now time.Time) {
	m.recording = false
	m.recordingStart = time.Time{}
	m.retryAt = now.Add(m.cfg.RecordingRetry)
}

// remaining is the whole-second countdown, never negative.
func remaining(warning, elapsed time.Duration) int {
	r := int(warning.Seconds()) - int(elapsed.Seconds())
	if r < 0 {
		return 0
	}
	return r
}
