package web

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-viridia/pkg/hub"
	"github.com/teslashibe/go-viridia/pkg/input"
)

// Input message types accepted on /ws/input.
const (
	InputPress  = "press"
	InputAxes   = "axes"
	InputCenter = "center"
)

// InputMessage is a controller event from a remote client.
type InputMessage struct {
	Type   string             `json:"type"`
	Button string             `json:"button,omitempty"`
	Axes   map[string]float64 `json:"axes,omitempty"`
}

// handleStatus returns the latest snapshot
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.Snapshot())
}

// handleDisplay returns recent display messages
func (s *Server) handleDisplay(c *fiber.Ctx) error {
	s.mu.RLock()
	history := append([]DisplayEntry(nil), s.history...)
	s.mu.RUnlock()
	return c.JSON(history)
}

// handleListButtons returns the buttons and axes the robot understands
func (s *Server) handleListButtons(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"buttons": input.Buttons(),
		"axes":    input.AxisNames(),
	})
}

// handlePress records a button press
func (s *Server) handlePress(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := s.apply(InputMessage{Type: InputPress, Button: name}); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"pressed": name})
}

// handleAxes sets one or more axes from a JSON object
func (s *Server) handleAxes(c *fiber.Ctx) error {
	var axes map[string]float64
	if err := c.BodyParser(&axes); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "body must be an object of axis values"})
	}
	if err := s.apply(InputMessage{Type: InputAxes, Axes: axes}); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"axes": axes})
}

// handleCenter returns the sticks to rest
func (s *Server) handleCenter(c *fiber.Ctx) error {
	_ = s.apply(InputMessage{Type: InputCenter})
	return c.JSON(fiber.Map{"centered": true})
}

// handleStatusWS streams snapshots
func (s *Server) handleStatusWS(c *websocket.Conn) {
	client := hub.NewClient(s.statusHub, c, nil)
	client.Run()
}

// handleInputWS accepts InputMessages. Accepted events are echoed to every
// input client so several controllers stay in sync.
func (s *Server) handleInputWS(c *websocket.Conn) {
	client := hub.NewClient(s.inputHub, c, func(data []byte) {
		var msg InputMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Debug("bad input message", "error", err)
			return
		}
		if err := s.apply(msg); err != nil {
			s.log.Debug("rejected input message", "error", err)
			return
		}
		s.inputHub.BroadcastJSON(msg)
	})
	client.Run()
	// Stop the robot if the controller goes away mid-drive.
	s.remote.Center()
}

// apply feeds msg to the remote controller.
func (s *Server) apply(msg InputMessage) error {
	switch msg.Type {
	case InputPress:
		if !input.IsButton(msg.Button) {
			return fmt.Errorf("unknown button %q", msg.Button)
		}
		s.remote.Press(msg.Button)
	case InputAxes:
		for name := range msg.Axes {
			if !input.IsAxis(name) {
				return fmt.Errorf("unknown axis %q", name)
			}
		}
		for name, v := range msg.Axes {
			s.remote.SetAxis(name, v)
		}
	case InputCenter:
		s.remote.Center()
	default:
		return fmt.Errorf("unknown input type %q", msg.Type)
	}
	return nil
}
