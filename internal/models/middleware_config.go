package models

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

type RateLimitConfig struct {
	Max        int
	Expiration time.Duration
	KeyFunc    func(*fiber.Ctx) string
}

// TimeoutConfig bounds non-streaming requests; stream sessions use StreamConfig.SessionTimeoutMs
type TimeoutConfig struct {
	Timeout time.Duration
}
