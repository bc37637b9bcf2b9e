// Package scene lays out what gets drawn, without drawing it.
//
// A Scene is a display list of primitive shapes in pixel coordinates.
// The render package replays it onto an OpenCV Mat; keeping layout
// here means geometry can be tested without cgo.
package scene

import (
	"image"
	"image/color"
)

// Shape is the primitive kind of an Op.
type Shape int

const (
	ShapeRect Shape = iota
	ShapeLine
	ShapeCircle
	ShapeText
)

// Filled as a thickness fills the shape.
const Filled = -1

// Op is one drawing primitive.
type Op struct {
	Shape     Shape
	Color     color.RGBA
	Thickness int // Filled or stroke width

	Rect image.Rectangle // ShapeRect

	From, To image.Point // ShapeLine

	Center image.Point // ShapeCircle
	Radius int

	Text      string      // ShapeText
	Origin    image.Point // Baseline-left of the text
	Scale     float64
	Centered  bool // Centre horizontally on the canvas; Origin.X is ignored
	AntiAlias bool
}

// Scene is a canvas size plus its display list.
type Scene struct {
	Width  int
	Height int
	Ops    []Op
}

// Texts returns the strings drawn in the scene, in order.
func (s Scene) Texts() []string {
	var out []string
	for _, op := range s.Ops {
		if op.Shape == ShapeText {
			out = append(out, op.Text)
		}
	}
	return out
}

// bgr builds a colour from OpenCV channel order.
func bgr(b, g, r uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b}
}

func rect(r image.Rectangle, c color.RGBA, thickness int) Op {
	return Op{Shape: ShapeRect, Rect: r, Color: c, Thickness: thickness}
}

func line(from, to image.Point, c color.RGBA, thickness int) Op {
	return Op{Shape: ShapeLine, From: from, To: to, Color: c, Thickness: thickness}
}

func circle(center image.Point, radius int, c color.RGBA, thickness int) Op {
	return Op{Shape: ShapeCircle, Center: center, Radius: radius, Color: c, Thickness: thickness}
}

func text(s string, origin image.Point, scale float64, c color.RGBA, thickness int) Op {
	return Op{Shape: ShapeText, Text: s, Origin: origin, Scale: scale, Color: c, Thickness: thickness}
}
