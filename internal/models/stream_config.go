package models

import "time"

// StreamConfig holds configuration for the site generation stream endpoint
type StreamConfig struct {
	// Content resolution
	ContentDir       string `json:"content_dir,omitzero" yaml:"content_dir"`             // Directory holding <id><extension> files
	FileExtension    string `json:"file_extension,omitzero" yaml:"file_extension"`       // Defaults to ".html"
	FallbackTemplate bool   `json:"fallback_template,omitzero" yaml:"fallback_template"` // Render a stand-in page when no file exists

	// Pacing defaults and request override bounds
	BlockSize    int  `json:"block_size,omitzero" yaml:"block_size"`         // Bytes per chunk
	DelayMs      *int `json:"delay_ms,omitempty" yaml:"delay_ms"`            // Wait before each chunk is emitted, nil means the default
	MaxBlockSize int  `json:"max_block_size,omitzero" yaml:"max_block_size"` // Upper bound for request overrides
	MaxDelayMs   int  `json:"max_delay_ms,omitzero" yaml:"max_delay_ms"`     // Upper bound for request overrides

	// Overall deadline for one session
	SessionTimeoutMs int `json:"session_timeout_ms,omitzero" yaml:"session_timeout_ms"`

	// Concurrent streams one client IP may hold, 0 disables the limit
	MaxStreamsPerClient int `json:"max_streams_per_client,omitzero" yaml:"max_streams_per_client"`
}

// DefaultPolicy returns the pacing policy configured as default
func (c StreamConfig) DefaultPolicy() PacingPolicy {
	policy := PacingPolicy{BlockSize: c.BlockSize}
	if c.DelayMs != nil {
		policy.Delay = time.Duration(*c.DelayMs) * time.Millisecond
	}
	return policy
}

// SessionTimeout returns the configured overall session deadline
func (c StreamConfig) SessionTimeout() time.Duration {
	return time.Duration(c.SessionTimeoutMs) * time.Millisecond
}

// PacingPolicy controls chunk size and the delay inserted before every chunk.
// A policy is fixed for the lifetime of a session.
type PacingPolicy struct {
	BlockSize int           `json:"block_size" validate:"gt=0"`
	Delay     time.Duration `json:"delay" validate:"gte=0"`
}
