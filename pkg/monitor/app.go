// Package monitor wires the camera, detector, driver monitor, alarm,
// recorder, event log, car animation and dashboards into one loop.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-drowsy/internal/config"
	"github.com/teslashibe/go-drowsy/internal/log"
	"github.com/teslashibe/go-drowsy/pkg/alarm"
	"github.com/teslashibe/go-drowsy/pkg/animation"
	"github.com/teslashibe/go-drowsy/pkg/camera"
	"github.com/teslashibe/go-drowsy/pkg/debug"
	"github.com/teslashibe/go-drowsy/pkg/detection"
	"github.com/teslashibe/go-drowsy/pkg/detection/haar"
	"github.com/teslashibe/go-drowsy/pkg/driver"
	"github.com/teslashibe/go-drowsy/pkg/eventlog"
	"github.com/teslashibe/go-drowsy/pkg/recorder"
	"github.com/teslashibe/go-drowsy/pkg/render"
	"github.com/teslashibe/go-drowsy/pkg/scene"
	"github.com/teslashibe/go-drowsy/pkg/tui"
	"github.com/teslashibe/go-drowsy/pkg/web"
)

// tuiFrameEvery forwards one in N animation frames to the terminal view.
const tuiFrameEvery = 3

// Detector finds faces and eyes in a frame. *haar.Detector satisfies it.
type Detector interface {
	Detect(frame gocv.Mat) (detection.Result, error)
	Close() error
}

// App is the drowsiness monitor application orchestrator.
// It manages all components and their lifecycle.
type App struct {
	config config.Config
	logger *slog.Logger
	out    io.Writer

	// Vision
	capture   *camera.Capture
	cameraMgr *camera.Manager
	detector  Detector

	// Driver state and reactions
	monitor  *driver.Monitor
	alarm    alarm.Alarm
	recorder *recorder.Recorder
	events   *eventlog.Log
	act      actuators

	// Car animation
	renderer *animation.Renderer
	latest   render.Latest

	// Outputs
	webServer *web.Server
	tui       tui.Sender
	cameraWin *render.Window
	animWin   *render.Window

	// Loop rate
	fps       float64
	lastFrame time.Time
}

// New creates a new application with the given configuration.
func New(cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	debug.Enabled = cfg.Debug
	debug.Frames = cfg.DebugFrames

	return &App{
		config: cfg,
		logger: log.Component("monitor"),
		out:    os.Stdout,
	}, nil
}

// SetTUI routes status and animation updates to a terminal view and
// silences the startup banner. Debug lines go to logs, or nowhere when
// logs is nil. Call before Init.
func (a *App) SetTUI(p tui.Sender, logs io.Writer) {
	a.tui = p
	a.out = io.Discard
	debug.SetOutput(logs)
}

// Init opens every component. Call this after New() and before Run().
func (a *App) Init(ctx context.Context) error {
	fmt.Fprintln(a.out, "😴 go-drowsy - Driver Drowsiness Monitor")
	fmt.Fprintln(a.out, "========================================")
	if debug.Enabled {
		fmt.Fprintln(a.out, "🐛 Debug mode enabled")
	}

	var err error

	// Event log first so nothing is lost
	a.events, err = eventlog.Open(a.config.Events, log.Component("eventlog"))
	if err != nil {
		return fmt.Errorf("event log: %w", err)
	}
	if a.tui != nil {
		a.events.AddSink(tui.EventSink(a.tui))
	}
	fmt.Fprintf(a.out, "📝 Event log: %s (session %s)\n", a.config.Events.CSVPath, a.events.Session())

	fmt.Fprint(a.out, "👁️  Loading face and eye cascades... ")
	a.detector, err = haar.New(a.config.Detection)
	if err != nil {
		return fmt.Errorf("detector: %w", err)
	}
	fmt.Fprintln(a.out, "✅")

	fmt.Fprintf(a.out, "📷 Opening camera %d... ", a.config.Camera.Device)
	a.capture, err = camera.Open(ctx, a.config.Camera, log.Component("camera"))
	if err != nil {
		fmt.Fprintln(a.out, "❌")
		return fmt.Errorf("camera: %w", err)
	}
	fmt.Fprintf(a.out, "✅ (%s)\n", a.capture.Backend())

	a.cameraMgr = camera.NewManager(a.config.Camera)
	a.cameraMgr.OnConfigChange = a.capture.Apply

	a.alarm, err = alarm.New(a.config.Alarm, log.Component("alarm"))
	if err != nil {
		fmt.Fprintf(a.out, "⚠️  Alarm: %v (continuing silent)\n", err)
		a.alarm, _ = alarm.New(alarm.Config{Backend: alarm.BackendNone}, nil)
	}

	a.recorder = recorder.New(a.config.Recorder, log.Component("recorder"))
	a.monitor = driver.NewMonitor(a.config.Driver)

	a.renderer = animation.NewRenderer(a.config.Animation, log.Component("animation"))
	a.renderer.AddSink(&a.latest)
	if a.tui != nil {
		a.renderer.AddSink(tui.FrameSink(a.tui, tuiFrameEvery))
	}
	a.renderer.OnTransition(a.onTransition)

	a.act = actuators{
		alarm:   a.alarm,
		seq:     a.renderer,
		rec:     a.recorder,
		events:  a.events,
		monitor: a.monitor,
		logger:  a.logger,
		out:     a.out,
	}

	if a.config.Web.Enabled {
		a.webServer = web.NewServer(a.config.Web, a.events, a.cameraMgr, web.WithOutput(a.out))
	}

	if a.config.Display {
		a.cameraWin = render.NewWindow(render.CameraWindow)
		a.animWin = render.NewWindow(render.AnimationWindow)
	}

	return nil
}

// onTransition runs on the render goroutine.
func (a *App) onTransition(tr animation.Transition) {
	debug.Log("🚗 %s → %s\n", tr.From, tr.To)

	name, ok := transitionEvent(tr)
	if !ok {
		return
	}
	if err := a.events.Record(tr.At, name); err != nil {
		a.logger.Warn("event log write failed", "event", name, "error", err)
	}
}

// Run drives the capture loop on the calling goroutine until ctx is
// cancelled or q is pressed in the camera window.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(a.out, "\n👀 Watching the driver...")
	if a.cameraWin != nil {
		fmt.Fprintln(a.out, "   (q in the camera window or Ctrl+C to exit)")
	} else {
		fmt.Fprintln(a.out, "   (Ctrl+C to exit)")
	}

	stop := a.startBackground(ctx)
	defer stop()

	frame := gocv.NewMat()
	defer frame.Close()

	for {
		if err := a.capture.Read(ctx, &frame); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("camera read: %w", err)
		}
		now := time.Now()

		res, err := a.detector.Detect(frame)
		if err != nil {
			a.logger.Warn("detection failed", "error", err)
			continue
		}

		size := image.Pt(frame.Cols(), frame.Rows())
		st := a.process(ctx, now, res, size)

		render.Draw(&frame, scene.Overlay(size.X, size.Y, res, st, now))

		if a.recorder.Recording() {
			if err := a.recorder.Write(frame); err != nil {
				a.logger.Warn("recording write failed", "error", err)
			}
		}

		a.publish(now, st, frame)

		if a.show(frame) {
			fmt.Fprintln(a.out, "⏹️  Quit requested")
			return nil
		}
	}
}

// startBackground runs the renderer and the dashboard. stop cancels them
// and returns once both have exited, so no transition is still writing
// to the event log when Shutdown closes it.
func (a *App) startBackground(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.renderer.Run(ctx)
	}()

	if a.webServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.webServer.Run(ctx); err != nil {
				a.logger.Error("web dashboard stopped", "error", err)
			}
		}()
	}

	return func() {
		cancel()
		wg.Wait()
	}
}

// process feeds one detection result to the driver monitor and applies
// the resulting effects.
func (a *App) process(ctx context.Context, now time.Time, res detection.Result, size image.Point) driver.Status {
	st, effects := a.monitor.Observe(now, res.Observation())
	a.act.apply(ctx, now, size, effects)

	// Effects may have cleared a failed recording
	st.Recording = a.monitor.Recording()
	if !st.Recording {
		st.RecordingFor = 0
	}
	return st
}

// publish pushes the frame's status to the dashboard and terminal view.
func (a *App) publish(now time.Time, st driver.Status, frame gocv.Mat) {
	a.tickFPS(now)

	if a.tui != nil {
		a.tui.Send(tui.StatusMsg{Status: st})
	}

	if a.webServer == nil {
		return
	}

	a.webServer.UpdateState(func(s *web.State) {
		s.Session = a.events.Session()
		s.Driver = st
		s.Animation = a.renderer.Last()
		s.Camera = a.capture.Backend()
		s.FPS = a.fps
		s.Events = a.events.Count()
		s.Dropped = a.renderer.Dropped()
	})

	camWatch, animWatch := a.webServer.Watching()
	quality := a.cameraMgr.GetConfig().Quality
	if camWatch {
		if jpeg, err := render.EncodeJPEG(frame, quality); err == nil {
			a.webServer.SendCameraFrame(jpeg)
		} else {
			debug.FrameLog("⚠️  camera jpeg: %v\n", err)
		}
	}
	if animWatch {
		if f, ok := a.latest.Frame(); ok {
			canvas := a.animationCanvas(f)
			if jpeg, err := render.EncodeJPEG(canvas, quality); err == nil {
				a.webServer.SendAnimationFrame(jpeg)
			}
			canvas.Close()
		}
	}
}

// tickFPS keeps a smoothed loop rate.
func (a *App) tickFPS(now time.Time) {
	if !a.lastFrame.IsZero() {
		if dt := now.Sub(a.lastFrame).Seconds(); dt > 0 {
			inst := 1 / dt
			if a.fps == 0 {
				a.fps = inst
			} else {
				a.fps = 0.9*a.fps + 0.1*inst
			}
		}
	}
	a.lastFrame = now
}

func (a *App) animationCanvas(f animation.Frame) gocv.Mat {
	return render.Canvas(scene.Road(a.config.Animation.Width, a.config.Animation.Height, f))
}

// show refreshes both windows and reports whether q was pressed.
func (a *App) show(frame gocv.Mat) bool {
	if a.cameraWin == nil {
		return false
	}

	a.cameraWin.Show(frame)
	if f, ok := a.latest.Frame(); ok {
		canvas := a.animationCanvas(f)
		a.animWin.Show(canvas)
		canvas.Close()
	}

	key := a.cameraWin.PollKey(1)
	return key >= 0 && key&0xFF == 'q'
}

// Shutdown releases every component. Safe to call after a failed Init.
func (a *App) Shutdown() error {
	fmt.Fprintln(a.out, "\n👋 Goodbye!")

	var errs []error
	closeIt := func(name string, c io.Closer) {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if a.recorder != nil {
		closeIt("recorder", a.recorder)
	}
	if a.alarm != nil {
		closeIt("alarm", a.alarm)
	}
	if a.capture != nil {
		closeIt("camera", a.capture)
	}
	if a.detector != nil {
		closeIt("detector", a.detector)
	}
	if a.cameraWin != nil {
		closeIt("camera window", a.cameraWin)
	}
	if a.animWin != nil {
		closeIt("animation window", a.animWin)
	}
	if a.events != nil {
		fmt.Fprintf(a.out, "📝 %d events logged\n", a.events.Count())
		closeIt("event log", a.events)
	}

	return errors.Join(errs...)
}
