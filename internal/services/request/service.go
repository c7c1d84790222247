package request

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/Egham-7/oracle-proxy/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

const (
	// requestIDLocalKey is the shared key for storing request ID in fiber locals
	requestIDLocalKey = "request_id"
	// maxRequestIDLength is the maximum allowed length for request IDs
	maxRequestIDLength = 256
)

// Client-visible parse failures.
const (
	MsgMissingBody   = "Missing request body."
	MsgInvalidJSON   = "Invalid JSON."
	MsgMissingInputs = "Missing 'inputs' field."
)

// Service provides request handling utilities for the proxy handlers
type Service struct{}

// NewService creates a new request service
func NewService() *Service {
	return &Service{}
}

// sanitizeRequestID sanitizes and caps the length of a request ID
func (s *Service) sanitizeRequestID(reqID string) string {
	sanitized := strings.TrimSpace(reqID)
	if len(sanitized) > maxRequestIDLength {
		sanitized = sanitized[:maxRequestIDLength]
	}
	return sanitized
}

// GetRequestID extracts or generates a request ID from the context
func (s *Service) GetRequestID(c *fiber.Ctx) string {
	if cachedID, ok := c.Locals(requestIDLocalKey).(string); ok && cachedID != "" {
		return cachedID
	}

	// c.Get aliases the fasthttp header buffer, which is reused once the
	// handler returns; the ID outlives the request in attempt events.
	requestID := s.sanitizeRequestID(utils.CopyString(c.Get(fiber.HeaderXRequestID)))
	if requestID == "" {
		requestID = s.GenerateRequestID()
	}

	c.Locals(requestIDLocalKey, requestID)
	c.Set(fiber.HeaderXRequestID, requestID)
	return requestID
}

// GenerateRequestID creates a new random request ID
func (s *Service) GenerateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "req_unknown"
	}
	return "req_" + hex.EncodeToString(b)
}

// ParseGenerateRequest decodes the generate body. The body is decoded
// regardless of Content-Type since browser callers often send none.
// Errors are *models.AppError validation errors.
func (s *Service) ParseGenerateRequest(c *fiber.Ctx) (*models.GenerateRequest, error) {
	body := bytes.TrimSpace(c.Body())
	if len(body) == 0 {
		return nil, models.NewValidationError(MsgMissingBody, nil)
	}

	var req models.GenerateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, models.NewValidationError(MsgInvalidJSON, err)
	}
	if req.Inputs == "" {
		return nil, models.NewValidationError(MsgMissingInputs, nil)
	}
	return &req, nil
}
