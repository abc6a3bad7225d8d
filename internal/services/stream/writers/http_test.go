package writers

import (
	"bufio"
	"bytes"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/Egham-7/sitegen-mock/internal/services/stream/contracts"

	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

type connected struct{}

func (connected) IsConnected() bool { return true }

func (connected) Done() <-chan struct{} { return nil }

type failingWriter struct {
	err error
}

func (w failingWriter) Write([]byte) (int, error) {
	return 0, w.err
}

func TestHTTPStreamWriter(t *testing.T) {
	t.Run("writes and flushes", func(t *testing.T) {
		req := require.New(t)

		var out bytes.Buffer
		w := NewHTTPStreamWriter(bufio.NewWriter(&out), connected{}, "s1")

		req.NoError(w.Write([]byte("hello ")))
		req.NoError(w.Write(nil))
		req.NoError(w.Write([]byte("world")))
		req.Empty(out.String())

		req.NoError(w.Flush())
		req.Equal("hello world", out.String())
		req.EqualValues(11, w.TotalBytes())
		req.NoError(w.Close())
	})

	t.Run("closed connection is a disconnect", func(t *testing.T) {
		req := require.New(t)

		bw := bufio.NewWriterSize(failingWriter{err: errors.New("write tcp: broken pipe")}, 16)
		w := NewHTTPStreamWriter(bw, connected{}, "s2")

		req.NoError(w.Write([]byte("abc")))
		err := w.Flush()
		req.True(contracts.IsClientDisconnect(err), "got %v", err)
	})

	t.Run("other failures are internal", func(t *testing.T) {
		req := require.New(t)

		bw := bufio.NewWriterSize(failingWriter{err: errors.New("quota exceeded")}, 16)
		w := NewHTTPStreamWriter(bw, connected{}, "s3")

		req.NoError(w.Write([]byte("abc")))
		err := w.Flush()

		t1, ok := contracts.TypeOf(err)
		req.True(ok)
		req.Equal(contracts.InternalError, t1)
	})

	t.Run("missing request context reads as disconnected", func(t *testing.T) {
		req := require.New(t)

		w := NewHTTPStreamWriter(bufio.NewWriter(&bytes.Buffer{}), NewFastHTTPConnectionState(nil), "s4")
		req.True(contracts.IsClientDisconnect(w.Write([]byte("x"))))
		req.NoError(w.Close())
	})
}

// tcpRequestCtx returns a request context served over a real loopback socket
// and the client end of that socket
func tcpRequestCtx(t *testing.T) (*fasthttp.RequestCtx, net.Conn) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	client, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	server, err := ln.Accept()
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.Close() })

	ctx := &fasthttp.RequestCtx{}
	ctx.Init2(server, nil, false)
	return ctx, client
}

func TestFastHTTPConnectionState_Watch(t *testing.T) {
	t.Run("peer close marks the connection gone", func(t *testing.T) {
		req := require.New(t)

		ctx, client := tcpRequestCtx(t)
		state := NewFastHTTPConnectionState(ctx)

		notified := make(chan struct{})
		stop := state.Watch(func() { close(notified) })
		defer stop()

		req.True(state.IsConnected())
		req.NoError(client.Close())

		select {
		case <-notified:
		case <-time.After(2 * time.Second):
			req.Fail("disconnect not observed")
		}
		req.False(state.IsConnected())

		select {
		case <-state.Done():
		default:
			req.Fail("Done not closed")
		}

		w := NewHTTPStreamWriter(bufio.NewWriter(&bytes.Buffer{}), state, "s5")
		req.True(contracts.IsClientDisconnect(w.Write([]byte("x"))))
	})

	t.Run("client data does not end the watch", func(t *testing.T) {
		req := require.New(t)

		ctx, client := tcpRequestCtx(t)
		state := NewFastHTTPConnectionState(ctx)

		called := make(chan struct{}, 1)
		stop := state.Watch(func() { called <- struct{}{} })

		_, err := client.Write([]byte("GET / HTTP/1.1\r\n\r\n"))
		req.NoError(err)
		time.Sleep(50 * time.Millisecond)
		req.True(state.IsConnected())

		stop()
		req.Empty(called)
		req.True(state.IsConnected())
	})

	t.Run("stop without disconnect", func(t *testing.T) {
		req := require.New(t)

		ctx, _ := tcpRequestCtx(t)
		state := NewFastHTTPConnectionState(ctx)

		called := make(chan struct{}, 1)
		stop := state.Watch(func() { called <- struct{}{} })
		stop()

		req.Empty(called)
		req.True(state.IsConnected())
	})

	t.Run("in-memory connections are not watched", func(t *testing.T) {
		req := require.New(t)

		ctx := &fasthttp.RequestCtx{}
		ctx.Init(&fasthttp.Request{}, nil, nil)
		state := NewFastHTTPConnectionState(ctx)

		stop := state.Watch(func() { req.Fail("unexpected disconnect") })
		stop()
		req.True(state.IsConnected())
	})
}
