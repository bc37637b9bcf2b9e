package monitor

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/teslashibe/go-drowsy/pkg/animation"
)

func TestStartBackground_StopWaitsForRenderer(t *testing.T) {
	cfg := animation.DefaultConfig()
	cfg.TickInterval = 2 * time.Millisecond
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var frames, inFlight atomic.Int32
	r := animation.NewRenderer(cfg, logger)
	r.AddSink(animation.SinkFunc(func(animation.Frame) {
		inFlight.Add(1)
		time.Sleep(5 * time.Millisecond) // A slow event log write
		frames.Add(1)
		inFlight.Add(-1)
	}))

	a := &App{renderer: r, logger: logger}
	stop := a.startBackground(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for frames.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatal("renderer never ticked")
		}
		time.Sleep(time.Millisecond)
	}

	stop()
	if n := inFlight.Load(); n != 0 {
		t.Fatalf("%d sink calls still running after stop", n)
	}

	after := frames.Load()
	time.Sleep(20 * time.Millisecond)
	if got := frames.Load(); got != after {
		t.Errorf("renderer kept publishing after stop: %d -> %d frames", after, got)
	}
}

func TestStartBackground_ParentCancel(t *testing.T) {
	cfg := animation.DefaultConfig()
	cfg.TickInterval = 2 * time.Millisecond
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	a := &App{renderer: animation.NewRenderer(cfg, logger), logger: logger}
	ctx, cancel := context.WithCancel(context.Background())
	stop := a.startBackground(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stop did not return after the parent context ended")
	}
}
