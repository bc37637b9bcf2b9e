package monitor

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/teslashibe/go-drowsy/pkg/alarm"
	"github.com/teslashibe/go-drowsy/pkg/animation"
	"github.com/teslashibe/go-drowsy/pkg/detection"
	"github.com/teslashibe/go-drowsy/pkg/driver"
	"github.com/teslashibe/go-drowsy/pkg/eventlog"
	"github.com/teslashibe/go-drowsy/pkg/recorder"
)

var t0 = time.Date(2026, 3, 4, 22, 15, 0, 0, time.UTC)

func at(d time.Duration) time.Time { return t0.Add(d) }

type fakeSequencer struct{ cmds []animation.Command }

func (f *fakeSequencer) Send(cmd animation.Command) bool {
	f.cmds = append(f.cmds, cmd)
	return true
}

type fakeRecorder struct {
	failStarts int
	starts     int
	stops      int
	recording  bool
	size       image.Point
}

func (f *fakeRecorder) Start(now time.Time, w, h int) (string, error) {
	f.starts++
	if f.failStarts > 0 {
		f.failStarts--
		return "", errors.New("codec unavailable")
	}
	f.recording = true
	f.size = image.Pt(w, h)
	return recorder.FileName(now), nil
}

func (f *fakeRecorder) Stop(now time.Time) (time.Duration, error) {
	if !f.recording {
		return 0, recorder.ErrNotRecording
	}
	f.recording = false
	f.stops++
	return time.Second, nil
}

type harness struct {
	monitor *driver.Monitor
	alarm   *alarm.Mock
	seq     *fakeSequencer
	rec     *fakeRecorder
	events  *eventlog.Log
	act     actuators
}

func newHarness() *harness {
	h := &harness{
		monitor: driver.NewMonitor(driver.DefaultConfig()),
		alarm:   alarm.NewMock(),
		seq:     &fakeSequencer{},
		rec:     &fakeRecorder{},
		events:  eventlog.New(20, slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	h.act = actuators{
		alarm:   h.alarm,
		seq:     h.seq,
		rec:     h.rec,
		events:  h.events,
		monitor: h.monitor,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		out:     io.Discard,
	}
	return h
}

func (h *harness) observe(now time.Time, eyes int) {
	_, effects := h.monitor.Observe(now, driver.Observation{Faces: 1, Eyes: eyes})
	h.act.apply(context.Background(), now, image.Pt(640, 480), effects)
}

func eventNames(l *eventlog.Log) []string {
	var names []string
	for _, e := range l.Recent(100) {
		names = append(names, e.Name)
	}
	return names
}

func TestApply_DrowsyEpisode(t *testing.T) {
	h := newHarness()

	h.observe(at(0), 2)
	h.observe(at(1*time.Second), 0)
	h.observe(at(3*time.Second), 0)
	h.observe(at(4*time.Second), 0) // Closed 3s: alarm
	h.observe(at(5*time.Second), 0)
	h.observe(at(6500*time.Millisecond), 2) // Eyes open

	starts, stops := h.alarm.Counts()
	if starts != 1 || stops != 1 {
		t.Errorf("alarm starts/stops = %d/%d, want 1/1", starts, stops)
	}
	if h.alarm.IsPlaying() {
		t.Error("alarm should be off")
	}

	if len(h.seq.cmds) != 2 {
		t.Fatalf("sent %d commands, want 2", len(h.seq.cmds))
	}
	if h.seq.cmds[0].Kind != animation.CommandBegin || !h.seq.cmds[0].At.Equal(at(4*time.Second)) {
		t.Errorf("first command = %+v", h.seq.cmds[0])
	}
	if h.seq.cmds[1].Kind != animation.CommandRecover || !h.seq.cmds[1].At.Equal(at(6500*time.Millisecond)) {
		t.Errorf("second command = %+v", h.seq.cmds[1])
	}

	if h.rec.starts != 1 || h.rec.stops != 1 {
		t.Errorf("recorder starts/stops = %d/%d, want 1/1", h.rec.starts, h.rec.stops)
	}
	if h.rec.size != image.Pt(640, 480) {
		t.Errorf("recorder size = %v", h.rec.size)
	}

	want := []string{eventlog.AlarmStarted, eventlog.DrowsyEventDuration}
	if got := eventNames(h.events); !slices.Equal(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	dur := h.events.Recent(1)[0]
	if !dur.HasDuration || dur.Duration != 2500*time.Millisecond {
		t.Errorf("duration event = %+v, want 2.5s", dur)
	}
}

func TestApply_RecorderFailureRetries(t *testing.T) {
	h := newHarness()
	h.rec.failStarts = 1

	h.observe(at(0), 0)
	h.observe(at(3*time.Second), 0) // Alarm; recorder fails
	if h.monitor.Recording() {
		t.Fatal("monitor should not think it is recording after a failed start")
	}

	// Frames inside the backoff don't touch the recorder
	for _, d := range []time.Duration{3100 * time.Millisecond, 4 * time.Second, 4900 * time.Millisecond} {
		h.observe(at(d), 0)
	}
	if h.rec.starts != 1 {
		t.Fatalf("recorder started %d times during backoff, want 1", h.rec.starts)
	}

	h.observe(at(5*time.Second), 0) // Retry
	if h.rec.starts != 2 || !h.monitor.Recording() {
		t.Errorf("expected a second, successful start (starts=%d)", h.rec.starts)
	}

	// The alarm only fired once despite the retry
	if starts, _ := h.alarm.Counts(); starts != 1 {
		t.Errorf("alarm starts = %d, want 1", starts)
	}
}

func TestApply_AlarmErrorDoesNotStopOthers(t *testing.T) {
	h := newHarness()
	h.alarm.Close() // Start now fails

	h.observe(at(0), 0)
	h.observe(at(3*time.Second), 0)

	if len(h.seq.cmds) != 1 || h.rec.starts != 1 {
		t.Errorf("later effects skipped: cmds=%d starts=%d", len(h.seq.cmds), h.rec.starts)
	}
	if got := eventNames(h.events); !slices.Equal(got, []string{eventlog.AlarmStarted}) {
		t.Errorf("events = %v", got)
	}
}

func TestTransitionEvent(t *testing.T) {
	tests := []struct {
		from, to   animation.State
		expectName string
		expectOK   bool
	}{
		{animation.StateNormal, animation.StateIndicator, "", false},
		{animation.StateIndicator, animation.StateChangingRight, "", false},
		{animation.StateChangingRight, animation.StateStopped, eventlog.AutoStoppedOnShoulder, true},
		{animation.StateStopped, animation.StateReturning, "", false},
		{animation.StateReturning, animation.StateNormal, eventlog.AutoReturnCompleted, true},
		{animation.StateIndicator, animation.StateNormal, "", false}, // Recovered before the lane change
	}

	for _, tc := range tests {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			name, ok := transitionEvent(animation.Transition{From: tc.from, To: tc.to})
			if name != tc.expectName || ok != tc.expectOK {
				t.Errorf("transitionEvent = (%q, %v), want (%q, %v)", name, ok, tc.expectName, tc.expectOK)
			}
		})
	}
}

func TestProcess_ReportsRecordingFailure(t *testing.T) {
	h := newHarness()
	h.rec.failStarts = 1
	a := &App{monitor: h.monitor, act: h.act}

	closed := detection.Result{Faces: []detection.Face{{Box: image.Rect(0, 0, 100, 100)}}}
	a.process(context.Background(), at(0), closed, image.Pt(640, 480))
	st := a.process(context.Background(), at(3*time.Second), closed, image.Pt(640, 480))

	if !st.Alert || !st.AlarmOn {
		t.Errorf("expected alert with alarm on, got %+v", st)
	}
	if st.Recording || st.RecordingFor != 0 {
		t.Errorf("status should not report recording after a failed start: %+v", st)
	}
}

func TestTickFPS(t *testing.T) {
	a := &App{}
	a.tickFPS(at(0))
	if a.fps != 0 {
		t.Errorf("fps after first frame = %v", a.fps)
	}
	a.tickFPS(at(50 * time.Millisecond))
	if a.fps < 19.9 || a.fps > 20.1 {
		t.Errorf("fps = %v, want ~20", a.fps)
	}
	a.tickFPS(at(150 * time.Millisecond)) // 10 fps sample
	if a.fps < 18.9 || a.fps > 19.1 {
		t.Errorf("smoothed fps = %v, want ~19", a.fps)
	}
}
