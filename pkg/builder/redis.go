package builder

import (
	"time"

	"github.com/Egham-7/sitegen-mock/internal/models"
)

// WithRedis keeps stream admission counters in Redis so the limit holds across instances
func (b *Builder) WithRedis(url string, slotTTL time.Duration) *Builder {
	b.cfg.Redis = &models.RedisConfig{
		URL:       url,
		SlotTTLMs: int(slotTTL.Milliseconds()),
	}
	return b
}

// MaxStreamsPerClient caps concurrent streams per client IP, 0 disables the cap
func (b *Builder) MaxStreamsPerClient(n int) *Builder {
	b.cfg.Stream.MaxStreamsPerClient = n
	return b
}
