package web

import (
	"errors"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/teslashibe/go-drowsy/pkg/camera"
	"github.com/teslashibe/go-drowsy/pkg/eventlog"
	"github.com/teslashibe/go-drowsy/pkg/hub"
)

// defaultEvents is how many events /api/events returns without ?n=
const defaultEvents = 20

// handleStatus returns the current snapshot
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.Snapshot())
}

// currentSession selects this run in /api/events?session=
const currentSession = "current"

// handleEvents returns the newest events, oldest first.
// With ?session= it returns that stored session instead.
func (s *Server) handleEvents(c *fiber.Ctx) error {
	if session := c.Query("session"); session != "" {
		return s.handleHistory(c, session)
	}
	if s.events == nil {
		return c.JSON([]eventlog.Event{})
	}

	n := c.QueryInt("n", defaultEvents)
	if n <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "n must be positive",
		})
	}

	events := s.events.Recent(n)
	if events == nil {
		events = []eventlog.Event{}
	}
	return c.JSON(events)
}

// handleHistory returns every stored event of one session
func (s *Server) handleHistory(c *fiber.Ctx, session string) error {
	h, ok := s.events.(HistorySource)
	if !ok {
		return historyUnavailable(c)
	}
	if session == currentSession {
		session = ""
	}

	events, err := h.History(session)
	if err != nil {
		return historyError(c, err)
	}
	if events == nil {
		events = []eventlog.Event{}
	}
	return c.JSON(events)
}

// handleSessions lists stored sessions, newest first
func (s *Server) handleSessions(c *fiber.Ctx) error {
	h, ok := s.events.(HistorySource)
	if !ok {
		return historyUnavailable(c)
	}
	ids, err := h.Sessions()
	if err != nil {
		return historyError(c, err)
	}
	if ids == nil {
		ids = []string{}
	}
	return c.JSON(ids)
}

func historyUnavailable(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": "event history not configured",
	})
}

func historyError(c *fiber.Ctx, err error) error {
	if errors.Is(err, eventlog.ErrNoHistory) {
		return historyUnavailable(c)
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// handleGetCamera returns the live camera config and what it accepts
func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	if s.camera == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "camera not configured",
		})
	}
	return c.JSON(fiber.Map{
		"config":       s.camera.GetConfigJSON(),
		"capabilities": camera.Capabilities(),
	})
}

// handleSetCamera applies a partial update, e.g. {"preset":"720p"} or {"quality":60}
func (s *Server) handleSetCamera(c *fiber.Ctx) error {
	if s.camera == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "camera not configured",
		})
	}

	var params map[string]interface{}
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid JSON body",
		})
	}

	if err := s.camera.UpdateConfig(params); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"config": s.camera.GetConfigJSON(),
	})
}

// serveHub attaches a websocket connection to a hub until it closes
func (s *Server) serveHub(h *hub.Hub) func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		hub.NewClient(h, conn).Run()
	}
}
