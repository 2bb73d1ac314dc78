// Package server exposes the voice pipeline over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/voicepipe/voicepipe/internal/metrics"
	"github.com/voicepipe/voicepipe/pkg/session"
	"github.com/voicepipe/voicepipe/pkg/tts"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Config holds server configuration and dependencies.
type Config struct {
	// Address is the listen address, e.g. ":8080".
	Address string

	// Debug enables request logging.
	Debug bool

	Pipeline *session.Pipeline
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// Server routes client connections into the pipeline.
type Server struct {
	app     *fiber.App
	cfg     Config
	logger  *slog.Logger
	started time.Time
}

// New builds the HTTP server and its routes.
func New(cfg Config) (*Server, error) {
	if cfg.Pipeline == nil {
		return nil, errors.New("server: pipeline required")
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		cfg:     cfg,
		logger:  cfg.Logger.With("component", "server"),
		started: time.Now(),
	}

	app := fiber.New(fiber.Config{
		AppName:               "voicepipe",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New())
	if cfg.Debug {
		app.Use(logger.New())
	}

	app.Get("/health", s.handleHealth)
	app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))

	api := app.Group("/api")
	api.Get("/voices", s.handleVoices)

	// WebSocket upgrade middleware
	app.Use("/listen", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/listen", websocket.New(s.handleListen))

	s.app = app
	return s, nil
}

// Start listens on the configured address and blocks.
func (s *Server) Start() error {
	s.logger.Info("listening", "address", s.cfg.Address)
	return s.app.Listen(s.cfg.Address)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying fiber app, for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// handleListen runs one pipeline session for the lifetime of the
// websocket connection.
func (s *Server) handleListen(c *websocket.Conn) {
	sess, err := s.cfg.Pipeline.Open(context.Background(), c)
	if err != nil {
		s.logger.Error("session open failed", "error", err)
		return
	}
	sess.Run()
}

// handleVoices lists the available synthesis voices.
func (s *Server) handleVoices(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"voices": tts.Voices()})
}

// handleHealth reports liveness, uptime and the open session count.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":          "ok",
		"version":         Version,
		"uptime":          time.Since(s.started).Round(time.Second).String(),
		"active_sessions": s.cfg.Pipeline.Active(),
	})
}
