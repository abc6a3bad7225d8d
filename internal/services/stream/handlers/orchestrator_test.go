package handlers

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/Egham-7/sitegen-mock/internal/models"
	"github.com/Egham-7/sitegen-mock/internal/services/stream/contracts"
	"github.com/Egham-7/sitegen-mock/internal/services/stream/delivery"
	"github.com/Egham-7/sitegen-mock/internal/services/stream/sources"

	"github.com/stretchr/testify/require"
)

// recordingWriter collects written chunks and can fail the nth write
type recordingWriter struct {
	chunks  [][]byte
	flushes int
	closed  int
	failAt  int
	sessID  string
}

func (w *recordingWriter) Write(data []byte) error {
	if w.failAt > 0 && len(w.chunks)+1 == w.failAt {
		return contracts.NewClientDisconnectError(w.sessID)
	}
	w.chunks = append(w.chunks, append([]byte(nil), data...))
	return nil
}

func (w *recordingWriter) Flush() error {
	w.flushes++
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed++
	return nil
}

func newSession(t *testing.T, data []byte, blockSize int, delay time.Duration) *delivery.Session {
	t.Helper()
	opener := sources.NewMemoryOpener()
	opener.Put("1", data)

	session, err := delivery.NewService(opener).StartStream("1", models.PacingPolicy{BlockSize: blockSize, Delay: delay})
	require.NoError(t, err)
	return session
}

func TestStreamOrchestrator_Handle(t *testing.T) {
	t.Run("writes every chunk", func(t *testing.T) {
		req := require.New(t)

		data := []byte("<html><body>generated</body></html>")
		session := newSession(t, data, 8, 0)
		writer := &recordingWriter{}

		err := NewStreamOrchestrator(session, "req_1").Handle(context.Background(), writer)

		streamErr := requireType(t, err, contracts.StreamComplete)
		req.True(streamErr.IsExpected())
		req.Equal(data, bytes.Join(writer.chunks, nil))
		req.Len(writer.chunks, 5)
		req.Equal(5, writer.flushes)
		req.Equal(1, writer.closed)
		req.Equal(delivery.Completed, session.State())
	})

	t.Run("client disconnect cancels the session", func(t *testing.T) {
		req := require.New(t)

		session := newSession(t, bytes.Repeat([]byte("a"), 64), 8, 0)
		writer := &recordingWriter{failAt: 3, sessID: session.ID()}

		err := NewStreamOrchestrator(session, "req_2").Handle(context.Background(), writer)

		requireType(t, err, contracts.ClientDisconnect)
		req.Len(writer.chunks, 2)
		req.Equal(delivery.Cancelled, session.State())
		req.Equal(1, writer.closed)
	})

	t.Run("context end stops pacing", func(t *testing.T) {
		req := require.New(t)

		session := newSession(t, bytes.Repeat([]byte("a"), 64), 8, time.Hour)
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err := NewStreamOrchestrator(session, "req_3").Handle(ctx, &recordingWriter{})

		requireType(t, err, contracts.Cancelled)
		req.Equal(delivery.Cancelled, session.State())
	})

	t.Run("missing content fails", func(t *testing.T) {
		req := require.New(t)

		session, err := delivery.NewService(sources.NewMemoryOpener()).
			StartStream("nope", models.PacingPolicy{BlockSize: 8})
		req.NoError(err)

		err = NewStreamOrchestrator(session, "req_4").Handle(context.Background(), &recordingWriter{})

		streamErr := requireType(t, err, contracts.NotFound)
		req.False(streamErr.IsExpected())
		req.Equal(delivery.Failed, session.State())
	})
}

func requireType(t *testing.T, err error, want contracts.StreamErrorType) *contracts.StreamError {
	t.Helper()
	var streamErr *contracts.StreamError
	require.ErrorAs(t, err, &streamErr)
	require.Equal(t, want, streamErr.Type, "got %v", err)
	return streamErr
}
