package recorder

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gocv.io/x/gocv"
)

func TestFileName(t *testing.T) {
	ts := time.Date(2024, 3, 9, 7, 5, 2, 0, time.Local)
	if got := FileName(ts); got != "sleep_20240309_070502.avi" {
		t.Errorf("FileName = %q", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		expectErr bool
	}{
		{"default", DefaultConfig(), false},
		{"short codec", Config{Codec: "XV", FPS: 20}, true},
		{"zero fps", Config{Codec: "MJPG", FPS: 0}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.expectErr {
				t.Errorf("Validate() = %v, expectErr %v", err, tc.expectErr)
			}
		})
	}
}

func TestRecorder_NotRecording(t *testing.T) {
	r := New(DefaultConfig(), nil)

	if r.Recording() {
		t.Error("new recorder should be idle")
	}
	if _, err := r.Stop(time.Now()); !errors.Is(err, ErrNotRecording) {
		t.Errorf("Stop: expected ErrNotRecording, got %v", err)
	}

	frame := gocv.NewMat()
	defer frame.Close()
	if err := r.Write(frame); !errors.Is(err, ErrNotRecording) {
		t.Errorf("Write: expected ErrNotRecording, got %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close on idle recorder: %v", err)
	}
}

func TestRecorder_Episode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dir = t.TempDir()
	cfg.Codec = "MJPG" // Bundled with every OpenCV build
	r := New(cfg, nil)

	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local)
	path, err := r.Start(start, 64, 48)
	if err != nil {
		t.Skipf("video writer unavailable: %v", err)
	}
	if filepath.Base(path) != "sleep_20240101_120000.avi" {
		t.Errorf("path = %s", path)
	}

	// A second Start keeps the open file
	again, err := r.Start(start.Add(time.Second), 64, 48)
	if err != nil || again != path {
		t.Errorf("Start while recording = %q, %v", again, err)
	}

	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()
	for i := 0; i < 5; i++ {
		if err := r.Write(frame); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	dur, err := r.Stop(start.Add(2500 * time.Millisecond))
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if dur != 2500*time.Millisecond {
		t.Errorf("duration = %v, want 2.5s", dur)
	}
	if r.Recording() || r.Path() != "" {
		t.Error("recorder should be idle after Stop")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Error("expected non-empty video file")
	}
}
