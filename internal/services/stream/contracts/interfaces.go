package contracts

import (
	"context"
	"io"
)

// Chunk is one bounded-size piece of streamed content. Chunks are never
// modified after they are handed to a consumer.
type Chunk []byte

// ContentHandle is an open, exclusively owned reference to one piece of content
type ContentHandle interface {
	io.ReadCloser
	MediaType() string
}

// ContentOpener resolves a source identifier to a fresh ContentHandle.
// A failed Open must not leave anything open behind it.
type ContentOpener interface {
	Open(ctx context.Context, identifier string) (ContentHandle, error)
}

// ChunkSource is a lazy, forward-only, non-restartable sequence of chunks.
// Next returns io.EOF once exhausted and keeps returning it afterwards.
type ChunkSource interface {
	Open(ctx context.Context) error
	Next(ctx context.Context) (Chunk, error)
	MediaType() string
	Close() error
}

// StreamWriter handles output with flush capabilities
type StreamWriter interface {
	Write([]byte) error
	Flush() error
	Close() error
}

// ConnectionState tracks client connection status
type ConnectionState interface {
	IsConnected() bool
	Done() <-chan struct{}
}
