// Package recorder writes drowsy episodes to AVI files.
package recorder

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// ErrNotRecording is returned by Write and Stop when no file is open.
var ErrNotRecording = errors.New("recorder: not recording")

// Config holds video file settings.
type Config struct {
	Dir   string  `mapstructure:"dir" yaml:"dir"`     // Output directory
	Codec string  `mapstructure:"codec" yaml:"codec"` // FourCC
	FPS   float64 `mapstructure:"fps" yaml:"fps"`
}

// DefaultConfig writes XVID at 20 fps into the working directory.
func DefaultConfig() Config {
	return Config{
		Dir:   ".",
		Codec: "XVID",
		FPS:   20,
	}
}

// Validate checks the settings.
func (c Config) Validate() error {
	if len(c.Codec) != 4 {
		return fmt.Errorf("recorder: codec must be a 4-character fourcc, got %q", c.Codec)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("recorder: fps must be positive, got %v", c.FPS)
	}
	return nil
}

// FileName is the episode file name for a start time.
func FileName(t time.Time) string {
	return "sleep_" + t.Format("20060102_150405") + ".avi"
}

// Recorder owns at most one open video file.
type Recorder struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	writer *gocv.VideoWriter
	path   string
	start  time.Time
	frames int
}

// New creates an idle recorder.
func New(cfg Config, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{cfg: cfg, logger: logger}
}

// Start opens a new file sized to the camera frame.
// Starting while already recording is a no-op returning the current path.
func (r *Recorder) Start(now time.Time, width, height int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.writer != nil {
		return r.path, nil
	}

	if err := os.MkdirAll(r.cfg.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(r.cfg.Dir, FileName(now))
	w, err := gocv.VideoWriterFile(path, r.cfg.Codec, r.cfg.FPS, width, height, true)
	if err != nil {
		return "", fmt.Errorf("open video writer: %w", err)
	}
	if !w.IsOpened() {
		w.Close()
		return "", fmt.Errorf("open video writer: %s not opened (codec %s)", path, r.cfg.Codec)
	}

	r.writer = w
	r.path = path
	r.start = now
	r.frames = 0

	r.logger.Info("recording started", "path", path, "width", width, "height", height)
	return path, nil
}

// Write appends one frame.
func (r *Recorder) Write(frame gocv.Mat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.writer == nil {
		return ErrNotRecording
	}
	if err := r.writer.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	r.frames++
	return nil
}

// Stop closes the file and returns how long the episode lasted.
func (r *Recorder) Stop(now time.Time) (time.Duration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.writer == nil {
		return 0, ErrNotRecording
	}

	err := r.writer.Close()
	dur := now.Sub(r.start)

	r.logger.Info("recording stopped", "path", r.path, "duration", dur, "frames", r.frames)

	r.writer = nil
	r.path = ""
	r.start = time.Time{}

	if err != nil {
		return dur, fmt.Errorf("close video writer: %w", err)
	}
	return dur, nil
}

// Recording reports whether a file is open.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writer != nil
}

// Path returns the open file, or "".
func (r *Recorder) Path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path
}

// Close stops any open recording.
func (r *Recorder) Close() error {
	if !r.Recording() {
		return nil
	}
	_, err := r.Stop(time.Now())
	return err
}
