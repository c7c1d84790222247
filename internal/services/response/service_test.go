package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Egham-7/oracle-proxy/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h fiber.Handler) (int, string, http.Header) {
	t.Helper()
	app := fiber.New()
	app.Get("/", h)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body), resp.Header
}

func TestFromError(t *testing.T) {
	svc := NewService()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "validation",
			err:        models.NewValidationError("Invalid JSON.", errors.New("unexpected EOF")),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Invalid JSON."}`,
		},
		{
			name:       "exhausted with details",
			err:        models.NewExhaustedError("All tokens exhausted or busy.", "token #2: rate_limited (status 429)"),
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"error":"All tokens exhausted or busy.","details":"token #2: rate_limited (status 429)"}`,
		},
		{
			name:       "wrapped app error",
			err:        errors.Join(errors.New("outer"), models.NewConfigurationError("No API tokens configured on server.")),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"No API tokens configured on server."}`,
		},
		{
			name:       "fiber error",
			err:        fiber.ErrMethodNotAllowed,
			wantStatus: http.StatusMethodNotAllowed,
			wantBody:   `{"error":"Method Not Allowed"}`,
		},
		{
			name:       "unknown error",
			err:        errors.New("db on fire"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Internal Server Error","details":"db on fire"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body, header := serve(t, func(c *fiber.Ctx) error {
				return svc.FromError(c, tt.err)
			})
			assert.Equal(t, tt.wantStatus, status)
			assert.JSONEq(t, tt.wantBody, body)
			assert.Contains(t, header.Get("Content-Type"), "application/json")
		})
	}
}

func TestRawJSON_WritesBodyVerbatim(t *testing.T) {
	payload := []byte(`[{"generated_text":"  spaced  "}]`)
	status, body, header := serve(t, func(c *fiber.Ctx) error {
		return NewService().RawJSON(c, payload)
	})

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, string(payload), body)
	assert.Equal(t, "application/json", header.Get("Content-Type"))
}

func TestErrorResponse_OmitsEmptyDetails(t *testing.T) {
	b, err := json.Marshal(ErrorResponse{Error: "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"x"}`, string(b))
}
