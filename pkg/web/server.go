// Package web provides the real-time drowsiness dashboard.
package web

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/teslashibe/go-drowsy/pkg/animation"
	"github.com/teslashibe/go-drowsy/pkg/camera"
	"github.com/teslashibe/go-drowsy/pkg/driver"
	"github.com/teslashibe/go-drowsy/pkg/eventlog"
	"github.com/teslashibe/go-drowsy/pkg/hub"
)

// Config holds dashboard settings.
type Config struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr      string `mapstructure:"addr" yaml:"addr"`             // Listen address
	StaticDir string `mapstructure:"static_dir" yaml:"static_dir"` // Served at / when present
}

// DefaultConfig listens on :8080.
func DefaultConfig() Config {
	return Config{
		Enabled:   true,
		Addr:      ":8080",
		StaticDir: "./web",
	}
}

// State is the dashboard snapshot pushed on /ws/status.
type State struct {
	Session   string          `json:"session"`
	Driver    driver.Status   `json:"driver"`
	Animation animation.Frame `json:"animation"`
	Camera    string          `json:"camera_backend"`
	FPS       float64         `json:"fps"`
	Events    int             `json:"events"`
	Dropped   uint64          `json:"dropped_commands"`
}

// EventSource supplies recent events for /api/events.
type EventSource interface {
	Recent(n int) []eventlog.Event
}

// HistorySource is an EventSource backed by stored sessions. When the
// server's events implement it, /api/events?session= and /api/sessions
// read from it. *eventlog.Log does.
type HistorySource interface {
	Sessions() ([]string, error)
	History(session string) ([]eventlog.Event, error)
}

// Server is the web dashboard server
type Server struct {
	app *fiber.App
	cfg Config

	state   State
	stateMu sync.RWMutex

	events EventSource
	camera *camera.Manager
	out    io.Writer // Startup and hub status lines

	// Hubs for websocket broadcast
	statusHub    *hub.Hub
	cameraHub    *hub.Hub
	animationHub *hub.Hub
}

// Option configures a Server.
type Option func(*Server)

// WithOutput sends the dashboard's status lines to w instead of stdout.
func WithOutput(w io.Writer) Option {
	return func(s *Server) {
		if w != nil {
			s.out = w
		}
	}
}

// NewServer creates the dashboard. events and cam may be nil.
func NewServer(cfg Config, events EventSource, cam *camera.Manager, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		events: events,
		camera: cam,
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.statusHub = hub.New("status", hub.WithRetain(), hub.WithOutput(s.out))
	s.cameraHub = hub.New("camera", hub.WithOutput(s.out))
	s.animationHub = hub.New("animation", hub.WithOutput(s.out))

	app := fiber.New(fiber.Config{
		AppName:               "Drowsiness Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	if cfg.StaticDir != "" {
		if _, err := os.Stat(cfg.StaticDir); err == nil {
			app.Static("/", cfg.StaticDir)
		}
	}

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/events", s.handleEvents)
	api.Get("/sessions", s.handleSessions)
	api.Get("/camera", s.handleGetCamera)
	api.Put("/camera", s.handleSetCamera)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/status", websocket.New(s.serveHub(s.statusHub)))
	app.Get("/ws/camera", websocket.New(s.serveHub(s.cameraHub)))
	app.Get("/ws/animation", websocket.New(s.serveHub(s.animationHub)))

	s.app = app
	return s
}

// App returns the fiber app, for tests and embedding.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run starts the hubs and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	go s.statusHub.Run(ctx)
	go s.cameraHub.Run(ctx)
	go s.animationHub.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(s.out, "🌐 Web dashboard: http://localhost%s\n", s.cfg.Addr)
		errCh <- s.app.Listen(s.cfg.Addr)
	}()

	select {
	case <-ctx.Done():
		if err := s.app.Shutdown(); err != nil {
			return fmt.Errorf("shutdown dashboard: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// UpdateState updates the snapshot and broadcasts it.
func (s *Server) UpdateState(update func(*State)) {
	s.stateMu.Lock()
	update(&s.state)
	state := s.state
	s.stateMu.Unlock()

	s.statusHub.BroadcastJSON(state)
}

// Snapshot returns a copy of the current state.
func (s *Server) Snapshot() State {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// SendCameraFrame sends an annotated camera JPEG to /ws/camera clients.
func (s *Server) SendCameraFrame(jpeg []byte) {
	if s.cameraHub.ClientCount() == 0 {
		return
	}
	s.cameraHub.BroadcastBinary(jpeg)
}

// SendAnimationFrame sends a car animation JPEG to /ws/animation clients.
func (s *Server) SendAnimationFrame(jpeg []byte) {
	if s.animationHub.ClientCount() == 0 {
		return
	}
	s.animationHub.BroadcastBinary(jpeg)
}

// Watching reports whether anyone is subscribed to the image feeds,
// so callers can skip JPEG encoding.
func (s *Server) Watching() (cam, anim bool) {
	return s.cameraHub.ClientCount() > 0, s.animationHub.ClientCount() > 0
}
