package scene

import (
	"fmt"
	"image"
	"math"
	"time"

	"github.com/teslashibe/go-drowsy/pkg/detection"
	"github.com/teslashibe/go-drowsy/pkg/driver"
)

// Alert texts drawn on the camera feed.
const (
	AlertText      = "DRIVER HAS SLEPT"
	countdownFmt   = "Are you drowsy? %ds"
	alertBorderPix = 8
)

// Text positions are laid out on a 640x480 frame and scaled to the
// real frame size.
const (
	layoutWidth  = 640
	layoutHeight = 480
)

var (
	countdownOrigin = image.Pt(400, 30)
	alertOrigin     = image.Pt(150, 200)
)

var (
	colorFace      = bgr(255, 0, 0)
	colorEye       = bgr(0, 255, 0)
	colorCountdown = bgr(0, 255, 255)
	colorAlert     = bgr(0, 0, 255)
)

// CountdownText formats the warning countdown.
func CountdownText(remaining int) string {
	return fmt.Sprintf(countdownFmt, remaining)
}

// AlertBorderOn reports whether the blinking alert border is lit at now.
// The border toggles twice per second.
func AlertBorderOn(now time.Time) bool {
	return (now.UnixMilli()/500)%2 == 0
}

// Overlay lays out the debug boxes and warnings for a camera frame.
func Overlay(width, height int, res detection.Result, st driver.Status, now time.Time) Scene {
	s := Scene{Width: width, Height: height}
	add := func(op Op) { s.Ops = append(s.Ops, op) }

	for _, f := range res.Faces {
		add(rect(f.Box, colorFace, 2))
		for _, e := range f.Eyes {
			add(rect(e, colorEye, 2))
		}
	}

	l := newLayout(width, height)

	if st.EyesClosed {
		add(text(CountdownText(st.Remaining), l.point(countdownOrigin), l.scale(0.7), colorCountdown, l.stroke(2)))
	}

	if st.Alert {
		if AlertBorderOn(now) {
			add(rect(image.Rect(0, 0, width, height), colorAlert, alertBorderPix))
		}
		add(text(AlertText, l.point(alertOrigin), l.scale(1.2), colorAlert, l.stroke(3)))
	}

	return s
}

// layout maps 640x480 coordinates onto a frame. Fonts follow the smaller
// axis so text keeps its proportions on wide frames.
type layout struct {
	sx, sy, font float64
}

func newLayout(width, height int) layout {
	sx := float64(width) / layoutWidth
	sy := float64(height) / layoutHeight
	return layout{sx: sx, sy: sy, font: math.Min(sx, sy)}
}

func (l layout) point(p image.Point) image.Point {
	return image.Pt(int(math.Round(float64(p.X)*l.sx)), int(math.Round(float64(p.Y)*l.sy)))
}

func (l layout) scale(s float64) float64 {
	return s * l.font
}

func (l layout) stroke(t int) int {
	return max(1, int(math.Round(float64(t)*l.font)))
}
