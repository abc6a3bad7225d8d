package sources

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/Egham-7/sitegen-mock/internal/services/stream/contracts"

	"github.com/gabriel-vasile/mimetype"
)

// MemoryOpener serves content held in memory. Every Open gets an independent reader.
type MemoryOpener struct {
	mu       sync.RWMutex
	contents map[string][]byte
}

// NewMemoryOpener creates an empty in-memory opener
func NewMemoryOpener() *MemoryOpener {
	return &MemoryOpener{contents: make(map[string][]byte)}
}

// Put stores a copy of data under identifier
func (o *MemoryOpener) Put(identifier string, data []byte) {
	stored := make([]byte, len(data))
	copy(stored, data)

	o.mu.Lock()
	o.contents[identifier] = stored
	o.mu.Unlock()
}

// Open returns a reader over the content stored for identifier
func (o *MemoryOpener) Open(ctx context.Context, identifier string) (contracts.ContentHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o.mu.RLock()
	data, ok := o.contents[identifier]
	o.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("identifier %q: %w", identifier, contracts.ErrContentNotFound)
	}

	return newBytesHandle(data), nil
}

type bytesHandle struct {
	*bytes.Reader
	mediaType string
}

func newBytesHandle(data []byte) *bytesHandle {
	return &bytesHandle{
		Reader:    bytes.NewReader(data),
		mediaType: mimetype.Detect(data).String(),
	}
}

func (h *bytesHandle) MediaType() string {
	return h.mediaType
}

func (h *bytesHandle) Close() error {
	return nil
}
