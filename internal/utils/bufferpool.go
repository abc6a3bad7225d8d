package utils

import (
	"sync"

	"github.com/valyala/bytebufferpool"
)

// BufferPool provides buffer pooling for streaming operations.
// bytebufferpool calibrates its size classes from the buffers that come back.
type BufferPool struct {
	pool *bytebufferpool.Pool
}

var (
	globalPool     *BufferPool
	globalPoolOnce sync.Once
)

// NewBufferPool creates a new buffer pool
func NewBufferPool() *BufferPool {
	return &BufferPool{
		pool: &bytebufferpool.Pool{},
	}
}

// Get retrieves a buffer from the pool
func (bp *BufferPool) Get() *bytebufferpool.ByteBuffer {
	return bp.pool.Get()
}

// GetSized retrieves a buffer whose B slice has length size
func (bp *BufferPool) GetSized(size int) *bytebufferpool.ByteBuffer {
	buf := bp.pool.Get()
	if cap(buf.B) < size {
		buf.B = make([]byte, size)
	} else {
		buf.B = buf.B[:size]
	}
	return buf
}

// Put returns a buffer to the pool
func (bp *BufferPool) Put(buf *bytebufferpool.ByteBuffer) {
	if buf == nil {
		return
	}
	bp.pool.Put(buf)
}

// Global returns the global buffer pool instance
func Global() *BufferPool {
	globalPoolOnce.Do(func() {
		globalPool = NewBufferPool()
	})
	return globalPool
}

// Get is a convenience function that uses the global pool
func Get() *bytebufferpool.ByteBuffer {
	return Global().Get()
}

// GetSized is a convenience function that uses the global pool
func GetSized(size int) *bytebufferpool.ByteBuffer {
	return Global().GetSized(size)
}

// Put is a convenience function that uses the global pool
func Put(buf *bytebufferpool.ByteBuffer) {
	Global().Put(buf)
}
