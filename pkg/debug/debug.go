// Package debug provides global debug logging flags
package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Enabled controls whether debug logging is active
var Enabled bool

// Frames controls whether per-frame logs are shown (detections, eye counts).
// Use --debug-frames to enable these very verbose logs
var Frames bool

var (
	mu  sync.Mutex
	out io.Writer = os.Stdout
)

// SetOutput redirects debug lines, e.g. away from a terminal UI.
// A nil writer discards them.
func SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	mu.Lock()
	out = w
	mu.Unlock()
}

func printf(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(out, format, args...)
}

// Log prints a message only if debug mode is enabled
func Log(format string, args ...interface{}) {
	if Enabled {
		printf(format, args...)
	}
}

// FrameLog prints a message only if frame debug mode is enabled
func FrameLog(format string, args ...interface{}) {
	if Frames {
		printf(format, args...)
	}
}
