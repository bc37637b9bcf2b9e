package haar

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/teslashibe/go-drowsy/pkg/detection"
	"gocv.io/x/gocv"
)

func TestNew_MissingFile(t *testing.T) {
	cfg := detection.DefaultConfig()
	cfg.FaceCascade = "/nonexistent/face.xml"

	if _, err := New(cfg); err == nil {
		t.Error("expected error for missing cascade")
	}
}

func TestNew_MissingEyeCascade(t *testing.T) {
	cfg, ok := findCascades()
	if !ok {
		t.Skip("Haar cascades not found, skipping test")
	}
	cfg.EyeCascade = filepath.Join(t.TempDir(), "missing.xml")

	if _, err := New(cfg); err == nil {
		t.Error("expected error for missing eye cascade")
	}
}

func TestDetect_BlankFrame(t *testing.T) {
	cfg, ok := findCascades()
	if !ok {
		t.Skip("Haar cascades not found, skipping test")
	}

	d, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer d.Close()

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()
	gocv.Rectangle(&frame, image.Rect(0, 0, 640, 480), color.RGBA{128, 128, 128, 0}, -1)

	res, err := d.Detect(frame)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(res.Faces) != 0 {
		t.Errorf("expected no faces on a flat frame, got %d", len(res.Faces))
	}
	if !res.Observation().EyesClosed() {
		t.Error("no face should read as eyes closed")
	}
}

func TestDetect_EmptyMat(t *testing.T) {
	cfg, ok := findCascades()
	if !ok {
		t.Skip("Haar cascades not found, skipping test")
	}

	d, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer d.Close()

	empty := gocv.NewMat()
	defer empty.Close()

	if _, err := d.Detect(empty); err == nil {
		t.Error("expected error for empty frame")
	}
}

// findCascades looks for the cascade files in the repo data dir and the
// usual OpenCV install locations.
func findCascades() (detection.Config, bool) {
	cfg := detection.DefaultConfig()
	dirs := []string{
		"../../../data",
		"/usr/share/opencv4/haarcascades",
		"/usr/local/share/opencv4/haarcascades",
	}
	for _, dir := range dirs {
		face := filepath.Join(dir, filepath.Base(cfg.FaceCascade))
		eye := filepath.Join(dir, filepath.Base(cfg.EyeCascade))
		if fileExists(face) && fileExists(eye) {
			cfg.FaceCascade = face
			cfg.EyeCascade = eye
			return cfg, true
		}
	}
	return cfg, false
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
