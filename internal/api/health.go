package api

import (
	"net/url"
	"time"

	"github.com/Egham-7/oracle-proxy/internal/config"
	"github.com/Egham-7/oracle-proxy/internal/services/credentials"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	cfg   *config.Config
	creds credentials.List
}

// NewHealthHandler creates a new health check handler
func NewHealthHandler(cfg *config.Config, creds credentials.List) *HealthHandler {
	return &HealthHandler{
		cfg:   cfg,
		creds: creds,
	}
}

// HealthCheck reports whether the proxy can serve generate requests. Token
// values are never included, only their count.
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	overallStatus := "healthy"
	statusCode := fiber.StatusOK
	tokensStatus := "configured"

	if h.creds.IsEmpty() {
		overallStatus = "degraded"
		statusCode = fiber.StatusServiceUnavailable
		tokensStatus = "missing"
	}

	response := fiber.Map{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks": fiber.Map{
			"tokens": tokensStatus,
		},
		"dispatch": fiber.Map{
			"token_count": h.creds.Len(),
			"endpoint":    endpointHost(h.cfg.Dispatch.Endpoint),
			"timeout_ms":  h.cfg.DispatchTimeout().Milliseconds(),
		},
	}

	return c.Status(statusCode).JSON(response)
}

func endpointHost(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return ""
	}
	return u.Host
}
