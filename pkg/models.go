package pkg

import "github.com/Egham-7/sitegen-mock/internal/models"

type (
	ServerConfig    = models.ServerConfig
	StreamConfig    = models.StreamConfig
	PacingPolicy    = models.PacingPolicy
	DatabaseConfig  = models.DatabaseConfig
	DatabaseType    = models.DatabaseType
	RedisConfig     = models.RedisConfig
	RateLimitConfig = models.RateLimitConfig
	TimeoutConfig   = models.TimeoutConfig
)
