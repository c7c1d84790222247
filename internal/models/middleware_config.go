package models

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// RateLimitConfig enables the optional inbound limiter. Requests beyond Max
// per Expiration window are rejected with 429 before reaching a handler.
type RateLimitConfig struct {
	Max        int
	Expiration time.Duration
	KeyFunc    func(*fiber.Ctx) string
}
