package request

import (
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func TestBaseService_GetRequestID(t *testing.T) {
	app := fiber.New()
	svc := NewBaseService()

	t.Run("generated once per request", func(t *testing.T) {
		req := require.New(t)
		c := app.AcquireCtx(&fasthttp.RequestCtx{})
		defer app.ReleaseCtx(c)

		id := svc.GetRequestID(c)
		req.True(strings.HasPrefix(id, "req_"))
		req.Len(id, len("req_")+32)
		req.Equal(id, svc.GetRequestID(c))
		req.Equal(id, string(c.Response().Header.Peek(fiber.HeaderXRequestID)))
	})

	t.Run("caller supplied", func(t *testing.T) {
		req := require.New(t)
		c := app.AcquireCtx(&fasthttp.RequestCtx{})
		defer app.ReleaseCtx(c)

		c.Request().Header.Set(fiber.HeaderXRequestID, "  trace-123  ")
		req.Equal("trace-123", svc.GetRequestID(c))
	})

	t.Run("long ids are capped", func(t *testing.T) {
		req := require.New(t)
		c := app.AcquireCtx(&fasthttp.RequestCtx{})
		defer app.ReleaseCtx(c)

		c.Request().Header.Set(fiber.HeaderXRequestID, strings.Repeat("x", 300))
		req.Len(svc.GetRequestID(c), maxRequestIDLength)
	})
}
