package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/teslashibe/go-drowsy/pkg/animation"
	"github.com/teslashibe/go-drowsy/pkg/eventlog"
)

// Sender is satisfied by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

// FrameSink forwards every n-th animation frame to the program.
// The render loop ticks faster than a terminal needs to redraw.
func FrameSink(p Sender, every int) animation.Sink {
	if every < 1 {
		every = 1
	}
	n := 0
	return animation.SinkFunc(func(f animation.Frame) {
		n++
		if n%every != 0 {
			return
		}
		p.Send(FrameMsg{Frame: f})
	})
}

// EventSink forwards logged events to the program.
func EventSink(p Sender) eventlog.Sink {
	return eventSink{p}
}

type eventSink struct{ p Sender }

func (s eventSink) Write(e eventlog.Event) error {
	s.p.Send(EventMsg{Event: e})
	return nil
}

func (s eventSink) Close() error { return nil }
