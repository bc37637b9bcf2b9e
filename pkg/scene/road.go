package scene

import (
	"fmt"
	"image"
	"strings"

	"github.com/teslashibe/go-drowsy/pkg/animation"
)

// Car dimensions in pixels.
const (
	CarWidth  = 110
	CarHeight = 60
)

// Road colours (OpenCV BGR order).
var (
	colorRoad        = bgr(40, 40, 40)
	colorLane        = bgr(200, 200, 200)
	colorShoulder    = bgr(60, 60, 60)
	colorBody        = bgr(0, 120, 255)
	colorRoof        = bgr(0, 90, 200)
	colorWheel       = bgr(20, 20, 20)
	colorIndicatorOn = bgr(0, 200, 255)
	colorIndicator   = bgr(30, 30, 30)
	colorStateText   = bgr(230, 230, 230)
	colorWhite       = bgr(255, 255, 255)
)

// CarOrigin returns the top-left corner of the car body for a lateral shift.
func CarOrigin(width, height int, shift float64) image.Point {
	baseX := width/2 - CarWidth/2
	return image.Pt(baseX+int(shift), int(float64(height)*0.65))
}

// IndicatorRect returns the right indicator lamp, kept inside the canvas.
func IndicatorRect(width int, car image.Point) image.Rectangle {
	x1 := clampInt(car.X+CarWidth-6, 0, width-1)
	x2 := clampInt(car.X+CarWidth+6, 0, width-1)
	return image.Rect(x1, car.Y+10, x2, car.Y+25)
}

// SpeedText formats the HUD speed readout.
func SpeedText(speed float64) string {
	return fmt.Sprintf("Speed: %d km/h", int(speed))
}

// Road lays out the car animation for one frame.
func Road(width, height int, f animation.Frame) Scene {
	s := Scene{Width: width, Height: height}
	add := func(op Op) { s.Ops = append(s.Ops, op) }

	add(rect(image.Rect(0, 0, width, height), colorRoad, Filled))

	// Dashed lane markers
	laneLeft := int(float64(width) * 0.33)
	laneRight := int(float64(width) * 0.66)
	for y := 0; y < height; y += 40 {
		add(line(image.Pt(laneLeft, y), image.Pt(laneLeft, y+20), colorLane, 3))
		add(line(image.Pt(laneRight, y), image.Pt(laneRight, y+20), colorLane, 3))
	}

	// Right shoulder
	shoulderX := int(float64(width) * 0.9)
	add(rect(image.Rect(shoulderX, 0, width, height), colorShoulder, Filled))
	label := text("RIGHT SHOULDER", image.Pt(shoulderX-170, 30), 0.6, colorLane, 1)
	label.AntiAlias = true
	add(label)

	// Car
	car := CarOrigin(width, height, f.Shift)
	add(rect(image.Rect(car.X, car.Y, car.X+CarWidth, car.Y+CarHeight), colorBody, Filled))
	add(rect(image.Rect(car.X+15, car.Y-20, car.X+CarWidth-15, car.Y+10), colorRoof, Filled))
	add(circle(image.Pt(car.X+20, car.Y+CarHeight), 10, colorWheel, Filled))
	add(circle(image.Pt(car.X+CarWidth-20, car.Y+CarHeight), 10, colorWheel, Filled))

	lamp := colorIndicator
	if f.Indicator {
		lamp = colorIndicatorOn
	}
	add(rect(IndicatorRect(width, car), lamp, Filled))

	// HUD
	state := text(strings.ToUpper(string(f.State)), image.Pt(10, 30), 0.9, colorStateText, 2)
	state.AntiAlias = true
	add(state)

	speed := text(SpeedText(f.Speed), image.Pt(0, 30), 0.9, colorWhite, 2)
	speed.Centered = true
	speed.AntiAlias = true
	add(speed)

	return s
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
