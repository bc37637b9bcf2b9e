// Package tui is a terminal status view for the drowsiness monitor.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/teslashibe/go-drowsy/pkg/animation"
	"github.com/teslashibe/go-drowsy/pkg/driver"
	"github.com/teslashibe/go-drowsy/pkg/eventlog"
	"github.com/teslashibe/go-drowsy/pkg/web"
)

// maxEvents is how many events the view lists.
const maxEvents = 6

// StatusMsg carries a driver status update.
type StatusMsg struct{ Status driver.Status }

// FrameMsg carries an animation frame.
type FrameMsg struct{ Frame animation.Frame }

// EventMsg carries a logged event.
type EventMsg struct{ Event eventlog.Event }

// SnapshotMsg carries a full dashboard snapshot from a remote monitor.
type SnapshotMsg struct{ State web.State }

// ErrMsg reports a feed failure.
type ErrMsg struct{ Err error }

// Model is the root bubbletea model.
type Model struct {
	source string

	status driver.Status
	frame  animation.Frame
	events []eventlog.Event
	fps    float64

	width    int
	err      error
	quitting bool
}

// New creates a model titled with the feed source.
func New(source string) Model {
	return Model{
		source: source,
		width:  60,
		frame:  animation.Frame{State: animation.StateNormal},
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case StatusMsg:
		m.status = msg.Status

	case FrameMsg:
		m.frame = msg.Frame

	case EventMsg:
		m.events = appendEvent(m.events, msg.Event)

	case SnapshotMsg:
		m.status = msg.State.Driver
		m.frame = msg.State.Animation
		m.fps = msg.State.FPS

	case ErrMsg:
		m.err = msg.Err
	}

	return m, nil
}

func appendEvent(events []eventlog.Event, e eventlog.Event) []eventlog.Event {
	events = append(events, e)
	if len(events) > maxEvents {
		events = events[len(events)-maxEvents:]
	}
	return events
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("😴 Drowsiness Monitor"))
	b.WriteString(dimStyle.Render("  " + m.source))
	b.WriteString("\n\n")

	b.WriteString(row("Driver", m.driverLine()))
	b.WriteString(row("Alarm", onOff(m.status.AlarmOn, "SOUNDING")))
	b.WriteString(row("Recording", m.recordingLine()))
	b.WriteString(row("Car", fmt.Sprintf("%s  %s", strings.ToUpper(string(m.frame.State)), SpeedLine(m.frame.Speed))))
	if m.fps > 0 {
		b.WriteString(row("FPS", fmt.Sprintf("%.1f", m.fps)))
	}

	barWidth := clampInt(m.width-8, 20, 60)
	b.WriteString(laneStyle.Render(LaneBar(m.frame.Progress(), m.frame.Indicator, barWidth)))
	b.WriteString("\n")

	if len(m.events) > 0 {
		b.WriteString("\n")
		for _, e := range m.events {
			line := e.ClockText() + "  " + e.Name
			if d := e.DurationText(); d != "" {
				line += "  " + d + "s"
			}
			b.WriteString(dimStyle.Render(line) + "\n")
		}
	}

	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render("feed error: "+m.err.Error()) + "\n")
	}

	b.WriteString("\n" + dimStyle.Render("q to quit"))
	return b.String()
}

func (m Model) driverLine() string {
	st := m.status
	switch {
	case st.Alert:
		return alertStyle.Render("DRIVER HAS SLEPT")
	case st.EyesClosed && st.Faces == 0:
		return warnStyle.Render(fmt.Sprintf("no face  %ds", st.Remaining))
	case st.EyesClosed:
		return warnStyle.Render(fmt.Sprintf("eyes closed  %ds", st.Remaining))
	default:
		return okStyle.Render(fmt.Sprintf("awake  (%d eye(s))", st.Eyes))
	}
}

func (m Model) recordingLine() string {
	if !m.status.Recording {
		return dimStyle.Render("off")
	}
	return warnStyle.Render("● " + m.status.RecordingFor.Truncate(100*time.Millisecond).String())
}

func row(label, value string) string {
	return labelStyle.Render(label) + value + "\n"
}

func onOff(on bool, label string) string {
	if on {
		return warnStyle.Render(label)
	}
	return dimStyle.Render("off")
}

// SpeedLine formats the car speed.
func SpeedLine(speed float64) string {
	return fmt.Sprintf("%3d km/h", int(speed))
}

// LaneBar draws the road as one line: lane markers, the car at its
// progress toward the shoulder, and the shoulder on the right.
func LaneBar(progress float64, indicator bool, width int) string {
	road := width - 3 // "|##" shoulder
	if road < 4 {
		road = 4
	}

	cells := []rune(strings.Repeat(" ", road))
	cells[road/3] = '┆'
	cells[2*road/3] = '┆'

	// Car travels from the lane centre to the last road cell
	start := road / 2
	pos := start + int(progress*float64(road-1-start)+0.5)
	pos = clampInt(pos, 0, road-1)

	car := '▮'
	if indicator {
		car = '▶'
	}
	cells[pos] = car

	return string(cells) + "|##"
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
