package api

import (
	"runtime"

	"github.com/gofiber/fiber/v2"
)

// Version is reported by the welcome endpoint.
const Version = "1.0.0"

// WelcomeHandler lists the routes the proxy serves.
func WelcomeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message":    "Welcome to OracleProxy!",
			"version":    Version,
			"go_version": runtime.Version(),
			"status":     "running",
			"endpoints": fiber.Map{
				"generate": "/api/generate",
				"health":   "/health",
			},
		})
	}
}
