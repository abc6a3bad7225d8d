package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Egham-7/sitegen-mock/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestBaseService_AppError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		status     int
		retryable  bool
		retryAfter string
	}{
		{name: "rate limit", err: models.NewRateLimitError("streams"), status: http.StatusTooManyRequests, retryable: true, retryAfter: retryAfterSeconds},
		{name: "timeout", err: models.NewTimeoutError("generate", nil), status: http.StatusGatewayTimeout, retryable: true, retryAfter: retryAfterSeconds},
		{name: "not found", err: models.NewNotFoundError("site content", nil), status: http.StatusNotFound},
		{name: "plain error", err: errors.New("disk on fire"), status: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := require.New(t)

			svc := NewBaseService()
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return svc.AppError(c, tc.err, "req_1")
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
			req.NoError(err)
			defer resp.Body.Close()

			req.Equal(tc.status, resp.StatusCode)
			req.Equal(tc.retryAfter, resp.Header.Get(fiber.HeaderRetryAfter))

			var body ErrorResponse
			req.NoError(json.NewDecoder(resp.Body).Decode(&body))
			req.Equal(tc.retryable, body.Error.Retryable)
			req.Equal("req_1", body.Error.RequestID)
			req.NotContains(body.Error.Message, "disk on fire")
		})
	}
}
