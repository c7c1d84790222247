package api

import (
	"github.com/Egham-7/oracle-proxy/internal/models"
	"github.com/Egham-7/oracle-proxy/internal/services/dispatcher"
	"github.com/Egham-7/oracle-proxy/internal/services/request"
	"github.com/Egham-7/oracle-proxy/internal/services/response"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

// GenerateHandler handles text generation requests by rotating through the
// configured tokens until one of them is served.
type GenerateHandler struct {
	dispatcher  *dispatcher.Dispatcher
	requestSvc  *request.Service
	responseSvc *response.Service
}

// NewGenerateHandler initializes the generate handler with injected dependencies.
func NewGenerateHandler(
	d *dispatcher.Dispatcher,
	requestSvc *request.Service,
	responseSvc *response.Service,
) *GenerateHandler {
	return &GenerateHandler{
		dispatcher:  d,
		requestSvc:  requestSvc,
		responseSvc: responseSvc,
	}
}

// Generate handles POST /api/generate. The downstream payload is returned
// verbatim on success.
func (h *GenerateHandler) Generate(c *fiber.Ctx) error {
	reqID := h.requestSvc.GetRequestID(c)

	// A misconfigured server answers 500 before looking at the body.
	if h.dispatcher.Credentials().IsEmpty() {
		fiberlog.Errorf("[%s] no API tokens configured", reqID)
		return h.responseSvc.AppError(c, models.NewConfigurationError(dispatcher.MsgNoCredentials))
	}

	req, err := h.requestSvc.ParseGenerateRequest(c)
	if err != nil {
		fiberlog.Warnf("[%s] rejected generate request: %v", reqID, err)
		return h.responseSvc.FromError(c, err)
	}

	fiberlog.Infof("[%s] starting generate request (%d prompt bytes)", reqID, len(req.Inputs))

	ctx := dispatcher.WithRequestID(c.UserContext(), reqID)
	res, err := h.dispatcher.Dispatch(ctx, req.Inputs)
	if err != nil {
		return h.responseSvc.FromError(c, err)
	}

	fiberlog.Infof("[%s] generate succeeded on token #%d after %d attempts",
		reqID, res.CredentialIndex+1, len(res.Attempts))
	return h.responseSvc.RawJSON(c, res.Payload)
}
