package sites

import (
	"testing"
	"time"

	"github.com/Egham-7/sitegen-mock/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func intPtr(v int) *int {
	return &v
}

func TestRequestService_ResolvePolicy(t *testing.T) {
	cfg := models.StreamConfig{
		BlockSize:    1024,
		DelayMs:      intPtr(3000),
		MaxBlockSize: 4096,
		MaxDelayMs:   10_000,
	}
	rs := NewRequestService()

	t.Run("defaults", func(t *testing.T) {
		req := require.New(t)

		policy, err := rs.ResolvePolicy(cfg, nil)
		req.NoError(err)
		req.Equal(models.PacingPolicy{BlockSize: 1024, Delay: 3 * time.Second}, policy)

		policy, err = rs.ResolvePolicy(cfg, &models.GenerateRequest{})
		req.NoError(err)
		req.Equal(models.PacingPolicy{BlockSize: 1024, Delay: 3 * time.Second}, policy)
	})

	t.Run("overrides", func(t *testing.T) {
		req := require.New(t)

		policy, err := rs.ResolvePolicy(cfg, &models.GenerateRequest{BlockSize: intPtr(64), DelayMs: intPtr(0)})
		req.NoError(err)
		req.Equal(models.PacingPolicy{BlockSize: 64, Delay: 0}, policy)
	})

	t.Run("bounds", func(t *testing.T) {
		req := require.New(t)

		_, err := rs.ResolvePolicy(cfg, &models.GenerateRequest{BlockSize: intPtr(4097)})
		var validationErr *ValidationError
		req.ErrorAs(err, &validationErr)
		req.Equal("block_size", validationErr.Field)

		_, err = rs.ResolvePolicy(cfg, &models.GenerateRequest{DelayMs: intPtr(10_001)})
		req.ErrorAs(err, &validationErr)
		req.Equal("delay_ms", validationErr.Field)
	})
}

func TestRequestService_StreamTimeout(t *testing.T) {
	app := fiber.New()
	rs := NewRequestService()

	cases := []struct {
		name       string
		header     string
		configured time.Duration
		want       time.Duration
	}{
		{name: "no header", configured: time.Minute, want: time.Minute},
		{name: "shorter header", header: "5s", configured: time.Minute, want: 5 * time.Second},
		{name: "longer header is capped", header: "1h", configured: time.Minute, want: time.Minute},
		{name: "header without configured deadline", header: "5s", want: 5 * time.Second},
		{name: "invalid header", header: "soon", configured: time.Minute, want: time.Minute},
		{name: "negative header", header: "-5s", configured: time.Minute, want: time.Minute},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := app.AcquireCtx(&fasthttp.RequestCtx{})
			defer app.ReleaseCtx(c)

			if tc.header != "" {
				c.Request().Header.Set(StreamTimeoutHeader, tc.header)
			}
			require.Equal(t, tc.want, rs.StreamTimeout(c, tc.configured))
		})
	}
}

func TestSourceIdentifier(t *testing.T) {
	require.Equal(t, "42", SourceIdentifier(&models.SiteParams{ID: 42}))
}
