package writers

import (
	"bufio"
	"net"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/Egham-7/sitegen-mock/internal/services/stream/contracts"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/valyala/fasthttp"
)

// HTTPStreamWriter writes raw chunks to a fasthttp body stream
type HTTPStreamWriter struct {
	writer     *bufio.Writer
	connState  contracts.ConnectionState
	sessionID  string
	totalBytes int64
}

// NewHTTPStreamWriter creates a new HTTP stream writer
func NewHTTPStreamWriter(writer *bufio.Writer, connState contracts.ConnectionState, sessionID string) *HTTPStreamWriter {
	return &HTTPStreamWriter{
		writer:    writer,
		connState: connState,
		sessionID: sessionID,
	}
}

// Write writes data to the HTTP stream
func (w *HTTPStreamWriter) Write(data []byte) error {
	if len(data) == 0 {
		return nil
	}

	if !w.connState.IsConnected() {
		return contracts.NewClientDisconnectError(w.sessionID)
	}

	n, err := w.writer.Write(data)
	if n > 0 {
		// Account for actual bytes written, even on partial write or error
		w.totalBytes += int64(n)
	}

	if err != nil {
		return w.classify("write failed", err)
	}
	return nil
}

// Flush pushes buffered data to the connection
func (w *HTTPStreamWriter) Flush() error {
	if !w.connState.IsConnected() {
		return contracts.NewClientDisconnectError(w.sessionID)
	}

	if err := w.writer.Flush(); err != nil {
		return w.classify("flush failed", err)
	}
	return nil
}

// Close flushes whatever is left. The body ends when the stream writer returns.
func (w *HTTPStreamWriter) Close() error {
	if !w.connState.IsConnected() {
		return nil
	}
	if err := w.writer.Flush(); err != nil {
		return w.classify("flush failed", err)
	}
	return nil
}

// TotalBytes returns total bytes written
func (w *HTTPStreamWriter) TotalBytes() int64 {
	return w.totalBytes
}

func (w *HTTPStreamWriter) classify(message string, err error) error {
	if contracts.IsConnectionClosed(err) {
		return contracts.NewClientDisconnectError(w.sessionID)
	}
	return contracts.NewInternalError(w.sessionID, message, err)
}

// FastHTTPConnectionState reports whether the client behind a fasthttp request
// is still there. The request context alone only ends on server shutdown; Watch
// adds the peer closing its socket.
type FastHTTPConnectionState struct {
	ctx      *fasthttp.RequestCtx
	gone     chan struct{}
	goneOnce sync.Once
}

// NewFastHTTPConnectionState creates connection state from FastHTTP context
func NewFastHTTPConnectionState(ctx *fasthttp.RequestCtx) *FastHTTPConnectionState {
	return &FastHTTPConnectionState{
		ctx:  ctx,
		gone: make(chan struct{}),
	}
}

// IsConnected checks if client is still connected
func (c *FastHTTPConnectionState) IsConnected() bool {
	if c.ctx == nil {
		return false
	}
	select {
	case <-c.gone:
		return false
	case <-c.ctx.Done():
		return false
	default:
		return true
	}
}

// Done returns a channel closed once Watch sees the peer go away
func (c *FastHTTPConnectionState) Done() <-chan struct{} {
	return c.gone
}

// Watch reads the client socket in the background until the peer closes it,
// then marks the connection gone and calls onGone. Anything the client sends
// while the response streams is discarded. The returned stop unblocks the read
// and waits for the watcher to exit; onGone is not called after stop.
// Connections that are not network sockets are not watched.
func (c *FastHTTPConnectionState) Watch(onGone func()) (stop func()) {
	conn := socketConn(c.ctx)
	if conn == nil {
		return func() {}
	}
	// the server's read deadline for the request would end the watch early
	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		return func() {}
	}

	var stopping atomic.Bool
	exited := make(chan struct{})

	go func() {
		defer close(exited)

		var buf [64]byte
		var err error
		for err == nil {
			_, err = conn.Read(buf[:])
		}
		if stopping.Load() {
			return
		}

		fiberlog.Debugf("Client %s went away: %v", conn.RemoteAddr(), err)
		c.goneOnce.Do(func() { close(c.gone) })
		if onGone != nil {
			onGone()
		}
	}()

	return func() {
		stopping.Store(true)
		_ = conn.SetReadDeadline(time.Now())
		<-exited
	}
}

// socketConn returns the request's connection when it is backed by an OS socket
func socketConn(ctx *fasthttp.RequestCtx) net.Conn {
	if ctx == nil {
		return nil
	}
	conn := ctx.Conn()
	socket := conn
	if wrapped, ok := conn.(interface{ NetConn() net.Conn }); ok {
		socket = wrapped.NetConn()
	}
	if _, ok := socket.(syscall.Conn); !ok {
		return nil
	}
	return conn
}
