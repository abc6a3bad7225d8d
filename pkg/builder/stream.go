package builder

import (
	"time"

	"github.com/Egham-7/sitegen-mock/internal/models"
	"github.com/Egham-7/sitegen-mock/internal/services/stream/contracts"
)

// WithStream replaces the whole stream configuration
func (b *Builder) WithStream(cfg models.StreamConfig) *Builder {
	b.cfg.Stream = cfg
	return b
}

// ContentDir sets where <id><extension> files are looked up
func (b *Builder) ContentDir(dir, extension string) *Builder {
	b.cfg.Stream.ContentDir = dir
	b.cfg.Stream.FileExtension = extension
	return b
}

// Pacing sets the default block size and per-chunk delay
func (b *Builder) Pacing(blockSize int, delay time.Duration) *Builder {
	b.cfg.Stream.BlockSize = blockSize
	delayMs := int(delay.Milliseconds())
	b.cfg.Stream.DelayMs = &delayMs
	return b
}

// SessionTimeout bounds every stream session
func (b *Builder) SessionTimeout(timeout time.Duration) *Builder {
	b.cfg.Stream.SessionTimeoutMs = int(timeout.Milliseconds())
	return b
}

// EnableFallbackTemplate streams a rendered stand-in page for ids without a file
func (b *Builder) EnableFallbackTemplate() *Builder {
	b.cfg.Stream.FallbackTemplate = true
	return b
}

// WithContentOpener replaces the directory based content lookup
func (b *Builder) WithContentOpener(opener contracts.ContentOpener) *Builder {
	b.contentOpener = opener
	return b
}
