package handlers

import (
	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Alive answers every path so any uptime pinger gets a 200.
func (h *HealthHandler) Alive(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).SendString("Bot is alive!")
}
