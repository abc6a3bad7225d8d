package delivery

import (
	"context"
	"errors"
	"io"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Egham-7/sitegen-mock/internal/models"
	"github.com/Egham-7/sitegen-mock/internal/services/stream/contracts"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// ErrCancelRequested is the cancellation cause recorded when Cancel or Close ends a session
var ErrCancelRequested = errors.New("cancel requested by consumer")

// Summary describes a session once it reached a terminal state
type Summary struct {
	SessionID  string
	Identifier string
	State      State
	Chunks     int
	Bytes      int64
	Policy     models.PacingPolicy
	StartedAt  time.Time
	Duration   time.Duration
	Err        error
}

// Session is one paced, single-consumer delivery of a ChunkSource.
//
// Idle -> Streaming on Open or the first Next; Streaming -> Completed when the
// source is exhausted, Cancelled when the context ends or Cancel/Close is
// called, Failed on any open or read error. The source is closed exactly once
// on entering a terminal state. Next must not be called concurrently; Cancel
// and Close may be called from any goroutine.
type Session struct {
	id         string
	identifier string
	source     contracts.ChunkSource
	policy     models.PacingPolicy

	mu        sync.Mutex
	state     State
	busy      bool
	err       error
	chunks    int
	bytes     int64
	createdAt time.Time
	endedAt   time.Time

	cancelCh   chan struct{}
	cancelOnce sync.Once
	iterated   atomic.Bool
}

func newSession(id, identifier string, source contracts.ChunkSource, policy models.PacingPolicy) *Session {
	return &Session{
		id:         id,
		identifier: identifier,
		source:     source,
		policy:     policy,
		state:      Idle,
		createdAt:  time.Now(),
		cancelCh:   make(chan struct{}),
	}
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// Identifier returns the source identifier the session streams
func (s *Session) Identifier() string {
	return s.identifier
}

// Policy returns the pacing policy of the session
func (s *Session) Policy() models.PacingPolicy {
	return s.policy
}

// State returns the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// MediaType returns the media type of the opened content
func (s *Session) MediaType() string {
	return s.source.MediaType()
}

// Open moves an Idle session to Streaming by acquiring the content handle.
// It lets a caller surface NotFound or IOError before committing to a response.
// Opening a Streaming session is a no-op.
func (s *Session) Open(ctx context.Context) error {
	if err := s.begin(ctx); err != nil {
		return err
	}

	err := s.openSource(ctx)

	s.mu.Lock()
	s.busy = false
	if err != nil {
		err = s.terminateLocked(openFailureState(err), err)
	} else if cause := s.interruptCause(ctx); cause != nil {
		err = s.terminateLocked(Cancelled, contracts.NewCancelledError(s.id, cause))
	}
	s.mu.Unlock()
	return err
}

// Next returns the next chunk after waiting the pacing delay. It returns
// io.EOF when the content is exhausted and a StreamError for any other end.
func (s *Session) Next(ctx context.Context) (contracts.Chunk, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}

	chunk, next, err := s.step(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false

	if next == Streaming {
		// a cancel that arrived while the chunk was read drops the chunk
		if cause := s.interruptCause(ctx); cause != nil {
			return nil, s.terminateLocked(Cancelled, contracts.NewCancelledError(s.id, cause))
		}
		s.chunks++
		s.bytes += int64(len(chunk))
		return chunk, nil
	}

	return nil, s.terminateLocked(next, err)
}

// begin checks the session can make progress and marks it busy
func (s *Session) begin(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.IsTerminal() {
		return contracts.NewAlreadyTerminatedError(s.id, s.state.String())
	}
	if s.busy {
		return contracts.NewInternalError(s.id, "session is single-consumer; concurrent call rejected", nil)
	}
	if cause := s.interruptCause(ctx); cause != nil {
		return s.terminateLocked(Cancelled, contracts.NewCancelledError(s.id, cause))
	}

	s.busy = true
	return nil
}

// step performs one read and pacing wait outside the lock
func (s *Session) step(ctx context.Context) (contracts.Chunk, State, error) {
	if s.State() == Idle {
		if err := s.openSource(ctx); err != nil {
			return nil, openFailureState(err), err
		}
		if cause := s.interruptCause(ctx); cause != nil {
			return nil, Cancelled, contracts.NewCancelledError(s.id, cause)
		}
	}

	chunk, err := s.source.Next(ctx)
	if errors.Is(err, io.EOF) {
		return nil, Completed, io.EOF
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, Cancelled, contracts.NewCancelledError(s.id, context.Cause(ctx))
		}
		return nil, Failed, contracts.NewIOError(s.id, "failed to read content", err)
	}

	if cause := s.pace(ctx); cause != nil {
		return nil, Cancelled, contracts.NewCancelledError(s.id, cause)
	}

	return chunk, Streaming, nil
}

func (s *Session) openSource(ctx context.Context) error {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()
	if state != Idle {
		return nil
	}

	if err := s.source.Open(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return contracts.NewCancelledError(s.id, context.Cause(ctx))
		}
		return contracts.NewOpenError(s.id, s.identifier, err)
	}

	s.mu.Lock()
	s.state = Streaming
	s.mu.Unlock()
	fiberlog.Debugf("[%s] Opened content %q (%s)", s.id, s.identifier, s.source.MediaType())
	return nil
}

// openFailureState is Cancelled when the open was cut short by the context
func openFailureState(err error) State {
	if contracts.IsCancelled(err) {
		return Cancelled
	}
	return Failed
}

// pace waits the inter-chunk delay. The wait ends early on context end or Cancel.
func (s *Session) pace(ctx context.Context) error {
	if s.policy.Delay <= 0 {
		return s.interruptCause(ctx)
	}

	timer := time.NewTimer(s.policy.Delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-s.cancelCh:
		return ErrCancelRequested
	}
}

// interruptCause reports why the session must stop, or nil
func (s *Session) interruptCause(ctx context.Context) error {
	select {
	case <-s.cancelCh:
		return ErrCancelRequested
	default:
	}
	if ctx.Err() != nil {
		return context.Cause(ctx)
	}
	return nil
}

// Cancel ends the session as Cancelled. A Next in progress observes the
// signal and performs the transition itself; otherwise it happens here.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.IsTerminal() {
		return
	}
	s.cancelOnce.Do(func() { close(s.cancelCh) })
	if s.busy {
		return
	}
	_ = s.terminateLocked(Cancelled, contracts.NewCancelledError(s.id, ErrCancelRequested))
}

// Close releases the session. It cancels a session that has not finished and
// is a no-op on a terminal one.
func (s *Session) Close() error {
	s.Cancel()
	return nil
}

// Err returns the error that ended the session, nil while running or after completion
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Summary returns the current counters of the session
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	end := s.endedAt
	if end.IsZero() {
		end = time.Now()
	}
	return Summary{
		SessionID:  s.id,
		Identifier: s.identifier,
		State:      s.state,
		Chunks:     s.chunks,
		Bytes:      s.bytes,
		Policy:     s.policy,
		StartedAt:  s.createdAt,
		Duration:   end.Sub(s.createdAt),
		Err:        s.err,
	}
}

// All returns the session as a one-shot sequence. Stopping the range early
// cancels the session; a second call yields AlreadyTerminated.
func (s *Session) All(ctx context.Context) iter.Seq2[contracts.Chunk, error] {
	return func(yield func(contracts.Chunk, error) bool) {
		if !s.iterated.CompareAndSwap(false, true) {
			yield(nil, contracts.NewAlreadyTerminatedError(s.id, "consumed"))
			return
		}
		defer s.Cancel()

		for {
			chunk, err := s.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

// terminateLocked records the terminal state and releases the source. It must
// be called with mu held and returns the error to hand to the caller.
func (s *Session) terminateLocked(state State, err error) error {
	s.state = state
	s.endedAt = time.Now()
	s.cancelOnce.Do(func() { close(s.cancelCh) })

	if state != Completed {
		s.err = err
	}

	if closeErr := s.source.Close(); closeErr != nil {
		fiberlog.Warnf("[%s] Error closing content %q: %v", s.id, s.identifier, closeErr)
	}

	switch state {
	case Failed:
		fiberlog.Errorf("[%s] Session failed after %d chunks: %v", s.id, s.chunks, err)
	case Cancelled:
		fiberlog.Infof("[%s] Session cancelled after %d chunks", s.id, s.chunks)
	default:
		fiberlog.Debugf("[%s] Session %s: %d chunks, %d bytes", s.id, state, s.chunks, s.bytes)
	}
	return err
}
