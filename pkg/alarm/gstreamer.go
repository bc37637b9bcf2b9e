package alarm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// retryDelay is waited after a failed playback before trying again.
const retryDelay = time.Second

// GStreamer loops a WAV file by re-running a gst-launch pipeline.
type GStreamer struct {
	cfg    Config
	logger *slog.Logger
	sound  string // Absolute path

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	playing atomic.Bool
	plays   atomic.Int64
}

// NewGStreamer checks the sound file and returns an idle alarm.
func NewGStreamer(cfg Config, logger *slog.Logger) (*GStreamer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(cfg.Sound)
	if err != nil {
		return nil, fmt.Errorf("resolve sound path: %w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("alarm sound: %w", err)
	}
	return &GStreamer{cfg: cfg, logger: logger, sound: abs}, nil
}

// Start launches the playback loop.
func (g *GStreamer) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancel != nil {
		if g.playing.Load() {
			return nil
		}
		// Loop exited on its own (parent cancelled or launcher missing)
		g.cancel()
		<-g.done
	}

	loopCtx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	g.done = make(chan struct{})
	g.playing.Store(true)

	go g.loop(loopCtx, g.done)

	g.logger.Debug("alarm started")
	return nil
}

func (g *GStreamer) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer g.playing.Store(false)

	for ctx.Err() == nil {
		cmd := exec.CommandContext(ctx, g.cfg.Command, g.args()...)
		err := cmd.Run()
		g.plays.Add(1)

		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, exec.ErrNotFound) {
			g.logger.Error("alarm launcher not found", "command", g.cfg.Command)
			return
		}
		if err != nil {
			g.logger.Warn("alarm playback failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(retryDelay):
			}
		}
	}
}

// args builds a pipeline that decodes the file to the default output.
func (g *GStreamer) args() []string {
	return []string{
		"-q",
		"filesrc", "location=" + g.sound,
		"!", "decodebin",
		"!", "audioconvert",
		"!", "audioresample",
		"!", "autoaudiosink",
	}
}

// Stop kills the pipeline and waits for the loop to exit.
func (g *GStreamer) Stop() error {
	g.mu.Lock()
	cancel, done := g.cancel, g.done
	g.cancel, g.done = nil, nil
	g.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done

	g.logger.Debug("alarm stopped", "plays", g.plays.Load())
	return nil
}

// IsPlaying reports whether the loop is running.
func (g *GStreamer) IsPlaying() bool {
	return g.playing.Load()
}

// Plays returns how many times the pipeline has been launched.
func (g *GStreamer) Plays() int64 {
	return g.plays.Load()
}

// Close stops playback.
func (g *GStreamer) Close() error {
	return g.Stop()
}
