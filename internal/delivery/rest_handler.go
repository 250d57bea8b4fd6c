package delivery

import (
	"github.com/gofiber/fiber/v2"

	"realtime-ws/internal/domain"
)

func (s *Server) handleHealth(c *fiber.Ctx) error {
	users, connections := s.registry.Counts()
	return c.JSON(fiber.Map{
		"status":      "ok",
		"message":     "Realtime server is running",
		"port":        s.config.Port,
		"environment": s.config.Environment,
		"users":       users,
		"connections": connections,
	})
}

func (s *Server) handleGetPresence(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Missing user ID",
		})
	}

	online, err := s.presence.IsOnline(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to read presence",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Presence retrieved successfully",
		"data": fiber.Map{
			"user_id": userID,
			"online":  online,
		},
	})
}

// handleGetChatConnections reports how many connections on THIS replica have
// joined the chat's room. It is a per-process observation, not a cluster-wide
// count.
func (s *Server) handleGetChatConnections(c *fiber.Ctx) error {
	chatID := c.Params("chat_id")
	if chatID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Missing chat ID",
		})
	}

	conns := s.registry.InRoom(domain.ChatRoom(chatID))
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Connection count retrieved successfully",
		"data": fiber.Map{
			"chat_id":     chatID,
			"connections": len(conns),
		},
	})
}
