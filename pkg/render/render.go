// Package render draws scene layouts with OpenCV and encodes them for the
// dashboard.
package render

import (
	"fmt"

	"github.com/teslashibe/go-drowsy/pkg/scene"
	"gocv.io/x/gocv"
)

const font = gocv.FontHersheySimplex

// Draw replays a scene onto dst.
func Draw(dst *gocv.Mat, s scene.Scene) {
	for _, op := range s.Ops {
		switch op.Shape {
		case scene.ShapeRect:
			gocv.Rectangle(dst, op.Rect, op.Color, op.Thickness)
		case scene.ShapeLine:
			gocv.Line(dst, op.From, op.To, op.Color, op.Thickness)
		case scene.ShapeCircle:
			gocv.Circle(dst, op.Center, op.Radius, op.Color, op.Thickness)
		case scene.ShapeText:
			drawText(dst, s.Width, op)
		}
	}
}

func drawText(dst *gocv.Mat, width int, op scene.Op) {
	org := op.Origin
	if op.Centered {
		size := gocv.GetTextSize(op.Text, font, op.Scale, op.Thickness)
		org.X = (width - size.X) / 2
	}

	lineType := gocv.Line8
	if op.AntiAlias {
		lineType = gocv.LineAA
	}
	gocv.PutTextWithParams(dst, op.Text, org, font, op.Scale, op.Color, op.Thickness, lineType, false)
}

// Canvas allocates a BGR Mat of the scene size and draws the scene on it.
// The caller owns the returned Mat.
func Canvas(s scene.Scene) gocv.Mat {
	m := gocv.NewMatWithSize(s.Height, s.Width, gocv.MatTypeCV8UC3)
	Draw(&m, s)
	return m
}

// EncodeJPEG compresses a frame for streaming.
func EncodeJPEG(m gocv.Mat, quality int) ([]byte, error) {
	if m.Empty() {
		return nil, fmt.Errorf("encode: empty frame")
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, m, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	// The native buffer is freed on Close
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
