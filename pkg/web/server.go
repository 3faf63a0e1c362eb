// Package web serves the robot dashboard: scheduler status, pose and display
// over HTTP and websockets, plus a remote controller input.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-viridia/internal/log"
	"github.com/teslashibe/go-viridia/pkg/display"
	"github.com/teslashibe/go-viridia/pkg/hub"
	"github.com/teslashibe/go-viridia/pkg/input"
	"github.com/teslashibe/go-viridia/pkg/motion"
	"github.com/teslashibe/go-viridia/pkg/task"
)

// historySize is how many display messages /api/display keeps.
const historySize = 100

// Config configures the dashboard.
type Config struct {
	Port int

	// StatusInterval throttles status pushes. Task switches and display
	// changes are pushed immediately.
	StatusInterval time.Duration

	// AccessLog logs every request.
	AccessLog bool
}

// Pose is the dashboard's view of the robot pose.
type Pose struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"` // degrees, clockwise
}

// Lines is a display pair.
type Lines struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
}

// DisplayEntry is one display change.
type DisplayEntry struct {
	Time string `json:"time"`
	Lines
}

// Snapshot is the payload of /api/status and /ws/status.
type Snapshot struct {
	Scheduler task.Status `json:"scheduler"`
	Pose      Pose        `json:"pose"`
	Display   Lines       `json:"display"`
}

// Server is the dashboard server. It also implements display.Display so
// messages shown on the robot reach the browser.
type Server struct {
	app      *fiber.App
	port     int
	interval time.Duration
	log      *slog.Logger

	remote    *input.Remote
	statusHub *hub.Hub
	inputHub  *hub.Hub

	// Now is the clock used for throttling. Defaults to time.Now.
	Now func() time.Time

	mu       sync.RWMutex
	snapshot Snapshot
	history  []DisplayEntry
	lastPush time.Time
}

// NewServer creates a dashboard that feeds remote from the input endpoints.
func NewServer(cfg Config, remote *input.Remote) *Server {
	s := &Server{
		port:      cfg.Port,
		interval:  cfg.StatusInterval,
		log:       log.With("component", "web"),
		remote:    remote,
		statusHub: hub.New("status"),
		inputHub:  hub.New("input"),
		Now:       time.Now,
		history:   make([]DisplayEntry, 0, historySize),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Viridia Dashboard",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	// CORS for local development
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	if cfg.AccessLog {
		app.Use(logger.New())
	}

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/display", s.handleDisplay)
	api.Get("/buttons", s.handleListButtons)
	api.Post("/buttons/:name", s.handlePress)
	api.Post("/axes", s.handleAxes)
	api.Post("/axes/center", s.handleCenter)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/input", websocket.New(s.handleInputWS))

	s.app = app
	return s
}

// App returns the underlying fiber app, for tests.
func (s *Server) App() *fiber.App { return s.app }

// Start runs the hubs and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go s.statusHub.Run(ctx)
	go s.inputHub.Run(ctx)

	errc := make(chan error, 1)
	go func() {
		errc <- s.app.Listen(fmt.Sprintf(":%d", s.port))
	}()
	s.log.Info("dashboard listening", "url", fmt.Sprintf("http://localhost:%d", s.port))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		if err := s.app.ShutdownWithTimeout(5 * time.Second); err != nil {
			return err
		}
		return nil
	}
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Error("web server error", "error", err)
		}
	}()
}

// Update records the latest scheduler status and pose. It is meant to be
// called from the scheduler's status observer and never blocks.
func (s *Server) Update(status task.Status, pose motion.Pose) {
	now := s.Now()

	s.mu.Lock()
	switched := status.Activation != s.snapshot.Scheduler.Activation
	s.snapshot.Scheduler = status
	s.snapshot.Pose = Pose{
		X:       pose.Position.X,
		Y:       pose.Position.Y,
		Heading: pose.Orientation * 180 / math.Pi,
	}
	push := switched || now.Sub(s.lastPush) >= s.interval
	if push {
		s.lastPush = now
	}
	snap := s.snapshot
	s.mu.Unlock()

	if push {
		s.statusHub.BroadcastJSON(snap)
	}
}

// Show implements display.Display.
func (s *Server) Show(line1, line2 string) {
	lines := Lines{Line1: line1, Line2: line2}

	s.mu.Lock()
	if s.snapshot.Display == lines {
		s.mu.Unlock()
		return
	}
	s.snapshot.Display = lines
	s.history = append(s.history, DisplayEntry{Time: s.Now().Format("15:04:05"), Lines: lines})
	if len(s.history) > historySize {
		s.history = s.history[1:]
	}
	s.lastPush = s.Now()
	snap := s.snapshot
	s.mu.Unlock()

	s.statusHub.BroadcastJSON(snap)
}

// Snapshot returns the latest dashboard state.
func (s *Server) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// StatusHub returns the status hub for external use
func (s *Server) StatusHub() *hub.Hub {
	return s.statusHub
}

var _ display.Display = (*Server)(nil)
