package animation

import "time"

// Machine is the timed animation state machine.
// It is not safe for concurrent use; the Renderer owns one.
type Machine struct {
	cfg      Config
	maxShift float64

	state      State
	active     bool
	phaseStart time.Time

	// Values captured when the current phase started
	startShift float64
	startSpeed float64

	shift     float64
	speed     float64
	indicator bool
}

// NewMachine creates a machine cruising in its lane.
func NewMachine(cfg Config) *Machine {
	return &Machine{
		cfg:      cfg,
		maxShift: cfg.MaxShift(),
		state:    StateNormal,
		speed:    cfg.CruiseSpeed,
	}
}

// State returns the current phase.
func (m *Machine) State() State {
	return m.state
}

// Active reports whether a pull-over sequence is running.
func (m *Machine) Active() bool {
	return m.active
}

// Begin starts the pull-over sequence (driver fell asleep).
// It is a no-op while the car is already heading to or parked on the
// shoulder. From returning it restarts at the indicator phase and
// continues from the current position.
func (m *Machine) Begin(now time.Time) (Transition, bool) {
	switch m.state {
	case StateIndicator, StateChangingRight, StateStopped:
		if m.active {
			return Transition{}, false
		}
	}
	m.active = true
	return m.enter(StateIndicator, now), true
}

// Recover brings the car back to its lane (driver woke up).
// From normal or returning nothing changes.
func (m *Machine) Recover(now time.Time) (Transition, bool) {
	if m.active {
		switch m.state {
		case StateIndicator, StateChangingRight, StateStopped:
			return m.enter(StateReturning, now), true
		case StateReturning:
			return Transition{}, false
		}
	}
	if m.state == StateNormal && !m.active {
		return Transition{}, false
	}
	t := m.enter(StateNormal, now)
	m.reset()
	return t, true
}

// Update advances the machine to now and returns the evaluated frame.
// The transition is set when the phase changed during this update.
func (m *Machine) Update(now time.Time) (Frame, *Transition) {
	var tr *Transition

	if !m.active {
		m.reset()
		return m.frame(now), nil
	}

	elapsed := now.Sub(m.phaseStart)

	switch m.state {
	case StateIndicator:
		m.indicator = blink(elapsed, m.cfg.IndicatorBlinkRate)
		if elapsed >= m.cfg.IndicatorDuration {
			t := m.enter(StateChangingRight, now)
			tr = &t
		}

	case StateChangingRight:
		p := progress(elapsed, m.cfg.LaneChangeDuration)
		m.shift = lerp(m.startShift, m.maxShift, EaseOutQuad(p))

		// Linear deceleration from the speed held when the change began
		decel := progress(elapsed, m.cfg.DecelDuration)
		m.speed = m.startSpeed * (1 - decel)

		m.indicator = blink(elapsed, m.cfg.ChangingBlinkRate)

		if p >= 1 && m.speed <= 1 {
			m.shift = m.maxShift
			m.speed = 0
			t := m.enter(StateStopped, now)
			tr = &t
		}

	case StateStopped:
		// Parked until the driver recovers
		m.shift = m.maxShift
		m.speed = 0
		m.indicator = false

	case StateReturning:
		p := progress(elapsed, m.cfg.ReturnDuration)
		m.shift = m.startShift * (1 - EaseOutQuad(p))

		accel := progress(elapsed, m.cfg.AccelDuration)
		m.speed = lerp(m.startSpeed, m.cfg.CruiseSpeed, accel)

		m.indicator = false

		if p >= 1 && accel >= 1 {
			t := m.enter(StateNormal, now)
			m.reset()
			tr = &t
		}

	case StateNormal:
		m.reset()
	}

	m.shift = clamp(m.shift, 0, m.maxShift)
	m.speed = clamp(m.speed, 0, m.cfg.CruiseSpeed)

	return m.frame(now), tr
}

// enter switches phase and captures the values interpolation starts from.
func (m *Machine) enter(s State, now time.Time) Transition {
	t := Transition{From: m.state, To: s, At: now}
	m.state = s
	m.phaseStart = now
	m.startShift = m.shift
	m.startSpeed = m.speed
	m.indicator = false
	return t
}

// reset puts the car back in its lane at cruise speed.
func (m *Machine) reset() {
	m.state = StateNormal
	m.active = false
	m.shift = 0
	m.speed = m.cfg.CruiseSpeed
	m.indicator = false
}

func (m *Machine) frame(now time.Time) Frame {
	return Frame{
		State:     m.state,
		Active:    m.active,
		Shift:     m.shift,
		MaxShift:  m.maxShift,
		Speed:     m.speed,
		Indicator: m.indicator,
		At:        now,
	}
}
