// Package pkg re-exports the configuration and event types needed to embed
// the proxy from outside this module.
package pkg

import "github.com/Egham-7/oracle-proxy/internal/models"

type (
	ServerConfig         = models.ServerConfig
	DispatchConfig       = models.DispatchConfig
	RateLimitConfig      = models.RateLimitConfig
	GenerationParameters = models.GenerationParameters
	AttemptEvent         = models.AttemptEvent
	AttemptOutcome       = models.AttemptOutcome
	AppError             = models.AppError
)
