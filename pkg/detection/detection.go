// Package detection holds face and eye detection results.
// The OpenCV cascade implementation lives in detection/haar.
package detection

import (
	"image"

	"github.com/teslashibe/go-drowsy/pkg/driver"
)

// Face is one detected face and the eyes found inside it.
// All rectangles are in frame pixel coordinates.
type Face struct {
	Box  image.Rectangle   `json:"box"`
	Eyes []image.Rectangle `json:"eyes"`
}

// Area returns the face box area in pixels.
func (f Face) Area() int {
	return f.Box.Dx() * f.Box.Dy()
}

// Result is everything detected in one frame.
type Result struct {
	Faces []Face `json:"faces"`
}

// Primary picks the face the driver state is judged on: the largest one.
// Returns nil when no face was found.
func (r Result) Primary() *Face {
	if len(r.Faces) == 0 {
		return nil
	}

	best := &r.Faces[0]
	for i := 1; i < len(r.Faces); i++ {
		if r.Faces[i].Area() > best.Area() {
			best = &r.Faces[i]
		}
	}
	return best
}

// Observation reduces the result to what the driver monitor needs.
func (r Result) Observation() driver.Observation {
	obs := driver.Observation{Faces: len(r.Faces)}
	if p := r.Primary(); p != nil {
		obs.Eyes = len(p.Eyes)
	}
	return obs
}

// Config holds cascade detector settings.
type Config struct {
	FaceCascade  string  `mapstructure:"face_cascade" yaml:"face_cascade"`   // Path to haarcascade_frontalface_default.xml
	EyeCascade   string  `mapstructure:"eye_cascade" yaml:"eye_cascade"`     // Path to haarcascade_eye.xml
	ScaleFactor  float64 `mapstructure:"scale_factor" yaml:"scale_factor"`   // Face pyramid step
	MinNeighbors int     `mapstructure:"min_neighbors" yaml:"min_neighbors"` // Face candidate votes
}

// DefaultConfig returns the stock OpenCV cascades in ./data.
func DefaultConfig() Config {
	return Config{
		FaceCascade:  "data/haarcascade_frontalface_default.xml",
		EyeCascade:   "data/haarcascade_eye.xml",
		ScaleFactor:  1.3,
		MinNeighbors: 5,
	}
}
