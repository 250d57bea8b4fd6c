package delivery

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"realtime-ws/internal/auth"
	"realtime-ws/internal/config"
	"realtime-ws/internal/domain"
	"realtime-ws/internal/registry"
	"realtime-ws/internal/service"
)

type Server struct {
	config    *config.Config
	verifier  auth.Verifier
	registry  *registry.Registry
	presence  *service.Presence
	wsManager *WSManager
	app       *fiber.App
	logger    *slog.Logger
}

func NewServer(cfg *config.Config, verifier auth.Verifier, reg *registry.Registry, presence *service.Presence, wsManager *WSManager) *Server {
	return &Server{
		config:    cfg,
		verifier:  verifier,
		registry:  reg,
		presence:  presence,
		wsManager: wsManager,
		logger:    slog.Default().With("component", "server"),
	}
}

func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName: "Realtime Presence & Fan-out Server",
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} ${latency}\n",
	}))

	corsConfig := cors.Config{
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Requested-With,Access-Control-Request-Method,Access-Control-Request-Headers",
		ExposeHeaders:    "Content-Length,Access-Control-Allow-Origin,Access-Control-Allow-Headers,Content-Type",
		AllowCredentials: s.config.AllowCredentials,
		MaxAge:           86400, // 24 hours
	}
	if s.config.IsProduction() {
		corsConfig.AllowOrigins = s.config.GetCORSOrigins()
	} else {
		corsConfig.AllowOrigins = "*"
		corsConfig.AllowCredentials = false // never with a wildcard origin
	}
	app.Use(cors.New(corsConfig))

	app.Get("/health", s.handleHealth)

	api := app.Group("/api")
	api.Get("/presence/:user_id", s.handleGetPresence)
	api.Get("/chats/:chat_id/connections", s.handleGetChatConnections)

	// The handshake is authenticated before the protocol upgrade, so a bad
	// token costs one HTTP response, never a socket.
	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		identity, err := s.authenticate(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Authentication failed",
				"error":   err.Error(),
			})
		}
		c.Locals("identity", identity)
		return c.Next()
	})

	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		identity := c.Locals("identity").(domain.Identity)
		s.wsManager.HandleConnection(c, identity)
	}))

	s.app = app
	s.logger.Info("server starting", "port", s.config.Port, "environment", s.config.Environment)
	return app.Listen(":" + s.config.Port)
}

// Shutdown stops accepting new connections and closes the listener.
func (s *Server) Shutdown() error {
	if s.app == nil {
		return nil
	}
	return s.app.Shutdown()
}

// authenticate resolves the caller's identity from the handshake token. The
// token travels in the query string because browser WebSocket clients cannot
// set headers, but an Authorization bearer is accepted too.
func (s *Server) authenticate(c *fiber.Ctx) (domain.Identity, error) {
	token := c.Query("token")
	if token == "" {
		header := c.Get(fiber.HeaderAuthorization)
		token = strings.TrimPrefix(header, "Bearer ")
	}
	if token == "" {
		return domain.Identity{}, auth.ErrInvalidToken
	}
	return s.verifier.Verify(token)
}
