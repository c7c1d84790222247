package api

import (
	"github.com/Egham-7/oracle-proxy/internal/services/response"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler returns a fiber error handler that renders every error,
// including recovered panics and unmatched routes, as {error, details?} JSON.
func ErrorHandler(responseSvc *response.Service) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return responseSvc.FromError(c, err)
	}
}
