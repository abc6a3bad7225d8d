package contracts

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// StreamErrorType categorizes different types of streaming errors
type StreamErrorType int

const (
	// Expected terminations - not logged as errors
	ClientDisconnect StreamErrorType = iota
	StreamComplete
	Cancelled

	// Unexpected errors - logged as errors
	NotFound
	IOError
	AlreadyTerminated
	InternalError
)

func (t StreamErrorType) String() string {
	switch t {
	case ClientDisconnect:
		return "client_disconnect"
	case StreamComplete:
		return "stream_complete"
	case Cancelled:
		return "cancelled"
	case NotFound:
		return "not_found"
	case IOError:
		return "io_error"
	case AlreadyTerminated:
		return "already_terminated"
	case InternalError:
		return "internal_error"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// StreamError provides structured error handling
type StreamError struct {
	Type      StreamErrorType
	Message   string
	Cause     error
	SessionID string
}

func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *StreamError) Unwrap() error {
	return e.Cause
}

// IsExpected returns true if this error type is a normal way for a stream to end
func (e *StreamError) IsExpected() bool {
	return e.Type == ClientDisconnect || e.Type == StreamComplete || e.Type == Cancelled
}

// Error constructors
func NewClientDisconnectError(sessionID string) *StreamError {
	return &StreamError{
		Type:      ClientDisconnect,
		Message:   "Client disconnected",
		SessionID: sessionID,
	}
}

func NewStreamCompleteError(sessionID string) *StreamError {
	return &StreamError{
		Type:      StreamComplete,
		Message:   "Stream completed normally",
		SessionID: sessionID,
	}
}

func NewCancelledError(sessionID string, cause error) *StreamError {
	return &StreamError{
		Type:      Cancelled,
		Message:   "Stream cancelled",
		Cause:     cause,
		SessionID: sessionID,
	}
}

func NewNotFoundError(sessionID, identifier string, cause error) *StreamError {
	return &StreamError{
		Type:      NotFound,
		Message:   fmt.Sprintf("content %q not found", identifier),
		Cause:     cause,
		SessionID: sessionID,
	}
}

func NewIOError(sessionID, message string, cause error) *StreamError {
	return &StreamError{
		Type:      IOError,
		Message:   message,
		Cause:     cause,
		SessionID: sessionID,
	}
}

func NewAlreadyTerminatedError(sessionID, state string) *StreamError {
	return &StreamError{
		Type:      AlreadyTerminated,
		Message:   fmt.Sprintf("session already terminated in state %s", state),
		SessionID: sessionID,
	}
}

func NewInternalError(sessionID, message string, cause error) *StreamError {
	return &StreamError{
		Type:      InternalError,
		Message:   message,
		Cause:     cause,
		SessionID: sessionID,
	}
}

// NewOpenError classifies a failure to acquire a content handle
func NewOpenError(sessionID, identifier string, cause error) *StreamError {
	var streamErr *StreamError
	if errors.As(cause, &streamErr) {
		return streamErr
	}
	if errors.Is(cause, fs.ErrNotExist) || errors.Is(cause, ErrContentNotFound) {
		return NewNotFoundError(sessionID, identifier, cause)
	}
	return NewIOError(sessionID, fmt.Sprintf("failed to open content %q", identifier), cause)
}

// ErrContentNotFound is returned by openers that have nothing behind an identifier
var ErrContentNotFound = errors.New("content not found")

// Helper functions

// TypeOf returns the StreamErrorType carried by err, and false if err is not a StreamError
func TypeOf(err error) (StreamErrorType, bool) {
	var streamErr *StreamError
	if errors.As(err, &streamErr) {
		return streamErr.Type, true
	}
	return 0, false
}

// IsClientDisconnect checks if error is a client disconnect
func IsClientDisconnect(err error) bool {
	t, ok := TypeOf(err)
	return ok && t == ClientDisconnect
}

// IsCancelled checks if error ended the stream through cancellation or disconnect
func IsCancelled(err error) bool {
	t, ok := TypeOf(err)
	return ok && (t == Cancelled || t == ClientDisconnect)
}

// IsNotFound checks if error reports missing content
func IsNotFound(err error) bool {
	t, ok := TypeOf(err)
	return ok && t == NotFound
}

// IsExpectedError checks if error is expected (not a real error)
func IsExpectedError(err error) bool {
	var streamErr *StreamError
	if errors.As(err, &streamErr) {
		return streamErr.IsExpected()
	}
	return false
}

// IsConnectionClosed checks if error indicates closed connection
func IsConnectionClosed(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "connection closed") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "use of closed network connection")
}
