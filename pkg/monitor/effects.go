package monitor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"time"

	"github.com/teslashibe/go-drowsy/pkg/alarm"
	"github.com/teslashibe/go-drowsy/pkg/animation"
	"github.com/teslashibe/go-drowsy/pkg/driver"
	"github.com/teslashibe/go-drowsy/pkg/eventlog"
	"github.com/teslashibe/go-drowsy/pkg/recorder"
)

// Sequencer accepts car animation commands. *animation.Renderer satisfies it.
type Sequencer interface {
	Send(cmd animation.Command) bool
}

// Recorder captures drowsy episodes. *recorder.Recorder satisfies it.
type Recorder interface {
	Start(now time.Time, width, height int) (string, error)
	Stop(now time.Time) (time.Duration, error)
}

// EventRecorder persists events. *eventlog.Log satisfies it.
type EventRecorder interface {
	Record(now time.Time, name string) error
	RecordDuration(now time.Time, name string, d time.Duration) error
}

// actuators carries out the side effects the driver monitor asks for.
type actuators struct {
	alarm   alarm.Alarm
	seq     Sequencer
	rec     Recorder
	events  EventRecorder
	monitor *driver.Monitor
	logger  *slog.Logger
	out     io.Writer
}

// apply runs effects in order. Failures are logged and never stop the
// remaining effects; a recorder that cannot start is retried next frame.
func (a *actuators) apply(ctx context.Context, now time.Time, size image.Point, effects []driver.Effect) {
	for _, e := range effects {
		switch e.Kind {
		case driver.EffectStartAlarm:
			fmt.Fprintln(a.out, "🚨 Driver asleep! Alarm on")
			if err := a.alarm.Start(ctx); err != nil {
				a.logger.Warn("alarm start failed", "error", err)
			}

		case driver.EffectStopAlarm:
			fmt.Fprintln(a.out, "✅ Driver awake, alarm off")
			if err := a.alarm.Stop(); err != nil {
				a.logger.Warn("alarm stop failed", "error", err)
			}

		case driver.EffectBeginSequence:
			a.seq.Send(animation.Command{Kind: animation.CommandBegin, At: now})

		case driver.EffectEndSequence:
			a.seq.Send(animation.Command{Kind: animation.CommandRecover, At: now})

		case driver.EffectStartRecording:
			path, err := a.rec.Start(now, size.X, size.Y)
			if err != nil {
				a.logger.Warn("recording start failed", "error", err)
				a.monitor.RecordingFailed(now)
				continue
			}
			fmt.Fprintf(a.out, "🎥 Recording %s\n", path)

		case driver.EffectStopRecording:
			d, err := a.rec.Stop(now)
			if err != nil && !errors.Is(err, recorder.ErrNotRecording) {
				a.logger.Warn("recording stop failed", "error", err)
				continue
			}
			if err == nil {
				fmt.Fprintf(a.out, "💾 Recording saved (%.1fs)\n", d.Seconds())
			}

		case driver.EffectLogEvent:
			var err error
			if e.HasDur {
				err = a.events.RecordDuration(now, e.Event, e.Duration)
			} else {
				err = a.events.Record(now, e.Event)
			}
			if err != nil {
				a.logger.Warn("event log write failed", "event", e.Event, "error", err)
			}

		default:
			a.logger.Warn("unknown driver effect", "effect", e.Kind.String())
		}
	}
}

// transitionEvent names the event logged for an animation transition.
func transitionEvent(tr animation.Transition) (string, bool) {
	switch {
	case tr.To == animation.StateStopped:
		return eventlog.AutoStoppedOnShoulder, true
	case tr.From == animation.StateReturning && tr.To == animation.StateNormal:
		return eventlog.AutoReturnCompleted, true
	}
	return "", false
}
