package builder

import (
	"github.com/Egham-7/sitegen-mock/internal/config"
	"github.com/Egham-7/sitegen-mock/internal/models"
	"github.com/Egham-7/sitegen-mock/internal/services/stream/contracts"

	"github.com/gofiber/fiber/v2"
)

type Builder struct {
	cfg             *config.Config
	middlewares     []fiber.Handler
	rateLimitConfig *models.RateLimitConfig
	timeoutConfig   *models.TimeoutConfig
	contentOpener   contracts.ContentOpener
}

func New() *Builder {
	return &Builder{
		cfg: &config.Config{
			Server: models.ServerConfig{
				Port:           "8080",
				AllowedOrigins: "*",
				Environment:    "development",
				LogLevel:       "info",
			},
		},
		middlewares: []fiber.Handler{},
	}
}

// Build returns the configuration with defaults applied to unset values
func (b *Builder) Build() *config.Config {
	b.cfg.ApplyDefaults()
	return b.cfg
}

func (b *Builder) GetMiddlewares() []fiber.Handler {
	return b.middlewares
}

func (b *Builder) GetRateLimitConfig() *models.RateLimitConfig {
	return b.rateLimitConfig
}

func (b *Builder) GetTimeoutConfig() *models.TimeoutConfig {
	return b.timeoutConfig
}

// GetContentOpener returns the opener set with WithContentOpener, or nil
func (b *Builder) GetContentOpener() contracts.ContentOpener {
	return b.contentOpener
}
