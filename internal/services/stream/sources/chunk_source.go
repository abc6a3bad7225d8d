package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/Egham-7/sitegen-mock/internal/services/stream/contracts"
	"github.com/Egham-7/sitegen-mock/internal/utils"

	"github.com/valyala/bytebufferpool"
)

const defaultMediaType = "application/octet-stream"

var (
	errNotOpen     = errors.New("chunk source is not open")
	errAlreadyOpen = errors.New("chunk source was already opened")
	errClosed      = errors.New("chunk source is closed")
)

// ChunkSource reads one content handle as a sequence of blockSize chunks.
// Only the final chunk may be shorter. Memory use is one pooled read buffer
// plus the chunk being returned, whatever the content size.
type ChunkSource struct {
	opener     contracts.ContentOpener
	identifier string
	blockSize  int

	handle    contracts.ContentHandle
	buffer    *bytebufferpool.ByteBuffer
	opened    bool
	exhausted bool
	readErr   error
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

var _ contracts.ChunkSource = (*ChunkSource)(nil)

// NewChunkSource creates a source for identifier. Nothing is acquired until Open.
func NewChunkSource(opener contracts.ContentOpener, identifier string, blockSize int) (*ChunkSource, error) {
	if opener == nil {
		return nil, errors.New("content opener is required")
	}
	if blockSize <= 0 {
		return nil, fmt.Errorf("block size must be positive, got %d", blockSize)
	}
	return &ChunkSource{
		opener:     opener,
		identifier: identifier,
		blockSize:  blockSize,
	}, nil
}

// Open acquires the content handle. A source can be opened once.
func (s *ChunkSource) Open(ctx context.Context) error {
	if s.closed {
		return errClosed
	}
	if s.opened {
		return errAlreadyOpen
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	handle, err := s.opener.Open(ctx, s.identifier)
	if err != nil {
		return err
	}

	s.handle = handle
	s.buffer = utils.GetSized(s.blockSize)
	s.opened = true
	return nil
}

// Next reads the next chunk. It returns io.EOF once the content is exhausted,
// on every call after that as well.
func (s *ChunkSource) Next(ctx context.Context) (contracts.Chunk, error) {
	if s.exhausted {
		return nil, io.EOF
	}
	if s.readErr != nil {
		return nil, s.readErr
	}
	if s.closed {
		return nil, errClosed
	}
	if !s.opened {
		return nil, errNotOpen
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf := s.buffer.B[:s.blockSize]
	n, err := io.ReadFull(s.handle, buf)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		s.exhausted = true
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		// short final chunk
		s.exhausted = true
	default:
		s.readErr = err
		return nil, err
	}

	chunk := make(contracts.Chunk, n)
	copy(chunk, buf[:n])
	return chunk, nil
}

// MediaType reports the media type of the open handle
func (s *ChunkSource) MediaType() string {
	if s.handle == nil || s.handle.MediaType() == "" {
		return defaultMediaType
	}
	return s.handle.MediaType()
}

// Close releases the handle and the read buffer. Safe to call repeatedly
// and on a source that was never opened.
func (s *ChunkSource) Close() error {
	s.closeOnce.Do(func() {
		s.closed = true
		if s.handle != nil {
			s.closeErr = s.handle.Close()
		}
		if s.buffer != nil {
			utils.Put(s.buffer)
			s.buffer = nil
		}
	})
	return s.closeErr
}
