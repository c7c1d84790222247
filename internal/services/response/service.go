package response

import (
	"errors"

	"github.com/Egham-7/oracle-proxy/internal/models"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

// Service provides common HTTP response utilities for the proxy handlers
type Service struct{}

// NewService creates a new response service
func NewService() *Service {
	return &Service{}
}

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitzero"`
}

// Error sends an error response with the given status
func (s *Service) Error(c *fiber.Ctx, status int, message, details string) error {
	return c.Status(status).JSON(ErrorResponse{Error: message, Details: details})
}

// AppError sends err using its status code, message and details
func (s *Service) AppError(c *fiber.Ctx, err *models.AppError) error {
	return s.Error(c, err.GetStatusCode(), err.Message, err.Details)
}

// FromError maps any error to a JSON error response. Unknown errors become
// a 500 and *fiber.Error keeps its own status.
func (s *Service) FromError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return s.AppError(c, appErr)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return s.Error(c, fiberErr.Code, fiberErr.Message, "")
	}

	fiberlog.Errorf("unhandled error: %v", err)
	return s.AppError(c, models.AsAppError(err))
}

// RawJSON sends a 200 with body written verbatim as application/json
func (s *Service) RawJSON(c *fiber.Ctx, body []byte) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusOK).Send(body)
}

// Success sends a 200 OK response with the provided data
func (s *Service) Success(c *fiber.Ctx, data any) error {
	return c.JSON(data)
}
