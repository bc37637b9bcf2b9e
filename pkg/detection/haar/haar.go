// Package haar detects faces and eyes with OpenCV Haar cascades.
package haar

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/teslashibe/go-drowsy/pkg/debug"
	"github.com/teslashibe/go-drowsy/pkg/detection"
	"gocv.io/x/gocv"
)

// ErrCascadeLoad is returned when a cascade file cannot be parsed.
var ErrCascadeLoad = errors.New("haar: cascade load failed")

// Detector runs a face cascade on the grey frame and an eye cascade
// inside every face it finds.
type Detector struct {
	faces  gocv.CascadeClassifier
	eyes   gocv.CascadeClassifier
	config detection.Config
	mu     sync.Mutex // Protects classifiers
}

// New loads both cascades.
func New(cfg detection.Config) (*Detector, error) {
	for _, path := range []string{cfg.FaceCascade, cfg.EyeCascade} {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("cascade file not found: %s: %w", path, err)
		}
	}

	faces := gocv.NewCascadeClassifier()
	if !faces.Load(cfg.FaceCascade) {
		faces.Close()
		return nil, fmt.Errorf("%w: %s", ErrCascadeLoad, cfg.FaceCascade)
	}

	eyes := gocv.NewCascadeClassifier()
	if !eyes.Load(cfg.EyeCascade) {
		faces.Close()
		eyes.Close()
		return nil, fmt.Errorf("%w: %s", ErrCascadeLoad, cfg.EyeCascade)
	}

	return &Detector{faces: faces, eyes: eyes, config: cfg}, nil
}

// Detect finds faces and eyes in a BGR frame.
// Eye rectangles are returned in frame coordinates.
func (d *Detector) Detect(frame gocv.Mat) (detection.Result, error) {
	if frame.Empty() {
		return detection.Result{}, fmt.Errorf("empty frame")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)

	boxes := d.faces.DetectMultiScaleWithParams(gray,
		d.config.ScaleFactor, d.config.MinNeighbors, 0,
		image.Point{}, image.Point{})

	res := detection.Result{Faces: make([]detection.Face, 0, len(boxes))}
	for _, box := range boxes {
		roi := gray.Region(box)
		found := d.eyes.DetectMultiScale(roi)
		roi.Close()

		face := detection.Face{Box: box}
		for _, e := range found {
			face.Eyes = append(face.Eyes, e.Add(box.Min))
		}
		res.Faces = append(res.Faces, face)
	}

	if len(res.Faces) > 0 {
		debug.FrameLog("👁️  cascade found %d face(s), %d eye(s) in primary\n",
			len(res.Faces), len(res.Primary().Eyes))
	}

	return res, nil
}

// Close releases both classifiers.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.faces.Close()
	d.eyes.Close()
	return nil
}
