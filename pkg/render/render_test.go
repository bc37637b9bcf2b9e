package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/teslashibe/go-drowsy/pkg/animation"
	"github.com/teslashibe/go-drowsy/pkg/scene"
)

func TestCanvas_SizeAndFill(t *testing.T) {
	s := scene.Scene{
		Width:  64,
		Height: 48,
		Ops: []scene.Op{{
			Shape:     scene.ShapeRect,
			Rect:      image.Rect(0, 0, 64, 48),
			Color:     color.RGBA{R: 10, G: 20, B: 30},
			Thickness: scene.Filled,
		}},
	}

	m := Canvas(s)
	defer m.Close()

	if m.Cols() != 64 || m.Rows() != 48 {
		t.Fatalf("size = %dx%d, want 64x48", m.Cols(), m.Rows())
	}

	px := m.GetVecbAt(24, 32)
	if px[0] != 30 || px[1] != 20 || px[2] != 10 {
		t.Errorf("pixel BGR = %v, want [30 20 10]", px)
	}
}

func TestCanvas_Road(t *testing.T) {
	f := animation.Frame{State: animation.StateNormal, Speed: 100}
	m := Canvas(scene.Road(640, 480, f))
	defer m.Close()

	if m.Empty() {
		t.Fatal("expected a drawn canvas")
	}

	// Top-left corner is road, away from lanes and HUD text
	px := m.GetVecbAt(470, 5)
	if px[0] != 40 || px[1] != 40 || px[2] != 40 {
		t.Errorf("road pixel = %v, want [40 40 40]", px)
	}
}

func TestEncodeJPEG(t *testing.T) {
	m := Canvas(scene.Scene{Width: 32, Height: 32})
	defer m.Close()

	data, err := EncodeJPEG(m, 80)
	if err != nil {
		t.Fatalf("EncodeJPEG failed: %v", err)
	}
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Errorf("missing JPEG SOI marker: % x", data[:min(4, len(data))])
	}
}

func TestLatest(t *testing.T) {
	var l Latest
	if _, ok := l.Frame(); ok {
		t.Error("expected no frame before Render")
	}

	l.Render(animation.Frame{State: animation.StateStopped, Speed: 0})
	l.Render(animation.Frame{State: animation.StateReturning, Speed: 50})

	f, ok := l.Frame()
	if !ok || f.State != animation.StateReturning || f.Speed != 50 {
		t.Errorf("Frame = %+v, %v", f, ok)
	}
}
