package builder

import (
	"time"

	"github.com/Egham-7/oracle-proxy/internal/models"

	"github.com/gofiber/fiber/v2"
)

// WithRateLimit enables the inbound limiter. Requests are keyed by client IP
// unless keyFunc is given.
func (b *Builder) WithRateLimit(max int, expiration time.Duration, keyFunc ...func(*fiber.Ctx) string) *Builder {
	cfg := &models.RateLimitConfig{
		Max:        max,
		Expiration: expiration,
	}
	if len(keyFunc) > 0 {
		cfg.KeyFunc = keyFunc[0]
	}
	b.rateLimitConfig = cfg
	return b
}

func (b *Builder) WithMiddleware(middleware fiber.Handler) *Builder {
	b.middlewares = append(b.middlewares, middleware)
	return b
}
