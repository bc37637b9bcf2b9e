package render

import (
	"sync"

	"github.com/teslashibe/go-drowsy/pkg/animation"
	"gocv.io/x/gocv"
)

// Window titles.
const (
	CameraWindow    = "Driver Drowsiness Detection"
	AnimationWindow = "Car Animation"
)

// Window is an OpenCV HighGUI window.
// HighGUI must be driven from the goroutine that created the window.
type Window struct {
	win *gocv.Window
}

// NewWindow opens a titled window.
func NewWindow(title string) *Window {
	return &Window{win: gocv.NewWindow(title)}
}

// Show displays a frame. Empty frames are ignored.
func (w *Window) Show(m gocv.Mat) {
	if m.Empty() {
		return
	}
	w.win.IMShow(m)
}

// PollKey pumps the event loop for up to delay ms and returns the key
// pressed, or -1.
func (w *Window) PollKey(delay int) int {
	return w.win.WaitKey(delay)
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.win.Close()
}

// Latest is an animation sink that keeps only the newest frame, so the
// window can be redrawn from the main goroutine.
type Latest struct {
	mu    sync.Mutex
	frame animation.Frame
	ok    bool
}

// Render stores f.
func (l *Latest) Render(f animation.Frame) {
	l.mu.Lock()
	l.frame = f
	l.ok = true
	l.mu.Unlock()
}

// Frame returns the newest frame and whether one has arrived yet.
func (l *Latest) Frame() (animation.Frame, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frame, l.ok
}
