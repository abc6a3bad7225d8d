package builder

import (
	"github.com/Egham-7/sitegen-mock/internal/models"
)

// WithDatabase enables the generation log
func (b *Builder) WithDatabase(cfg models.DatabaseConfig) *Builder {
	b.cfg.Database = &cfg
	return b
}

// WithRecorder sizes the async generation log worker pool
func (b *Builder) WithRecorder(workers, buffer int) *Builder {
	if b.cfg.Database == nil {
		return b
	}
	b.cfg.Database.RecorderWorkers = workers
	b.cfg.Database.RecorderBuffer = buffer
	return b
}

// WithRetention prunes generation records older than the given number of hours
func (b *Builder) WithRetention(hours int) *Builder {
	if b.cfg.Database == nil {
		return b
	}
	b.cfg.Database.RetentionHours = hours
	return b
}
