package camera

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// ErrNoCamera is returned when no backend could open the device.
var ErrNoCamera = errors.New("camera: no backend could open the device")

// Backend names accepted in Config.Backends.
const (
	BackendDshow     = "dshow"
	BackendMSMF      = "msmf"
	BackendVFW       = "vfw"
	BackendV4L2      = "v4l2"
	BackendGStreamer = "gstreamer"
	BackendAny       = "any"
)

var backendAPIs = map[string]gocv.VideoCaptureAPI{
	BackendDshow:     gocv.VideoCaptureDshow,
	BackendMSMF:      gocv.VideoCaptureMSMF,
	BackendVFW:       gocv.VideoCaptureV4L, // OpenCV's CAP_VFW shares id 200 with V4L
	BackendV4L2:      gocv.VideoCaptureV4L2,
	BackendGStreamer: gocv.VideoCaptureGstreamer,
	BackendAny:       gocv.VideoCaptureAny,
}

// BackendNames lists the known backends, sorted.
func BackendNames() []string {
	names := make([]string, 0, len(backendAPIs))
	for name := range backendAPIs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Capture is an open webcam.
type Capture struct {
	vc      *gocv.VideoCapture
	backend string
	cfg     Config
	logger  *slog.Logger
	mu      sync.Mutex
}

// Open probes cfg.Backends in order and returns the first capture that opens.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Capture, error) {
	if logger == nil {
		logger = slog.Default()
	}

	vc, backend, err := probe(ctx, cfg.Backends, cfg.SettleDelay, func(name string) (*gocv.VideoCapture, bool) {
		api, ok := backendAPIs[name]
		if !ok {
			logger.Warn("unknown camera backend", "backend", name)
			return nil, false
		}
		vc, err := gocv.VideoCaptureDeviceWithAPI(cfg.Device, api)
		if err != nil {
			logger.Debug("camera backend failed", "backend", name, "error", err)
			return nil, false
		}
		if !vc.IsOpened() {
			vc.Close()
			return nil, false
		}
		return vc, true
	})
	if err != nil {
		return nil, err
	}

	c := &Capture{vc: vc, backend: backend, cfg: cfg, logger: logger}
	c.setResolution(cfg.Width, cfg.Height)

	logger.Info("camera opened", "device", cfg.Device, "backend", backend,
		"width", cfg.Width, "height", cfg.Height)
	return c, nil
}

// probe tries each backend, sleeping settle after every attempt.
func probe[T any](ctx context.Context, backends []string, settle time.Duration, try func(string) (T, bool)) (T, string, error) {
	var zero T
	for _, name := range backends {
		v, ok := try(name)
		err := sleepCtx(ctx, settle)
		if ok {
			// An open device is handed back even if ctx ended while settling
			return v, name, nil
		}
		if err != nil {
			return zero, "", err
		}
	}
	return zero, "", fmt.Errorf("%w (tried %v)", ErrNoCamera, backends)
}

// Backend returns the backend that opened the device.
func (c *Capture) Backend() string {
	return c.backend
}

// Read grabs the next frame into dst. A failed read logs a warning,
// waits RetryDelay and tries again until ctx is done.
func (c *Capture) Read(ctx context.Context, dst *gocv.Mat) error {
	for {
		c.mu.Lock()
		ok := c.vc.Read(dst)
		c.mu.Unlock()

		if ok && !dst.Empty() {
			return nil
		}

		c.logger.Warn("camera read failed, retrying", "retry_in", c.cfg.RetryDelay)
		if err := sleepCtx(ctx, c.cfg.RetryDelay); err != nil {
			return err
		}
	}
}

// Apply changes the capture resolution. Used as Manager.OnConfigChange.
func (c *Capture) Apply(cfg Config) error {
	c.setResolution(cfg.Width, cfg.Height)
	c.mu.Lock()
	c.cfg.Width, c.cfg.Height, c.cfg.Quality = cfg.Width, cfg.Height, cfg.Quality
	c.mu.Unlock()
	return nil
}

func (c *Capture) setResolution(w, h int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vc.Set(gocv.VideoCaptureFrameWidth, float64(w))
	c.vc.Set(gocv.VideoCaptureFrameHeight, float64(h))
}

// Close releases the device.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vc.Close()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
