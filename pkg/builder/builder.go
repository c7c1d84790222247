// Package builder provides a fluent interface for configuring an OracleProxy
// without a YAML file.
package builder

import (
	"github.com/Egham-7/oracle-proxy/internal/config"
	"github.com/Egham-7/oracle-proxy/internal/models"
	"github.com/Egham-7/oracle-proxy/internal/services/attemptlog"

	"github.com/gofiber/fiber/v2"
)

type Builder struct {
	cfg             *config.Config
	middlewares     []fiber.Handler
	rateLimitConfig *models.RateLimitConfig
	observer        attemptlog.Observer
}

func New() *Builder {
	return builderFromConfig(config.Default())
}

func builderFromConfig(cfg *config.Config) *Builder {
	return &Builder{
		cfg:         cfg,
		middlewares: []fiber.Handler{},
	}
}

func (b *Builder) Build() *config.Config {
	return b.cfg
}

func (b *Builder) GetMiddlewares() []fiber.Handler {
	return b.middlewares
}

func (b *Builder) GetRateLimitConfig() *models.RateLimitConfig {
	return b.rateLimitConfig
}

// GetAttemptObserver returns the observer set with WithAttemptObserver, or nil.
func (b *Builder) GetAttemptObserver() attemptlog.Observer {
	return b.observer
}
