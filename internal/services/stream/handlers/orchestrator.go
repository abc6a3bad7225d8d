package handlers

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/Egham-7/sitegen-mock/internal/services/stream/contracts"
	"github.com/Egham-7/sitegen-mock/internal/services/stream/delivery"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// StreamOrchestrator pulls chunks from a session and writes them to the
// transport, one chunk in flight at a time
type StreamOrchestrator struct {
	session   *delivery.Session
	requestID string
}

// NewStreamOrchestrator creates a new stream orchestrator
func NewStreamOrchestrator(session *delivery.Session, requestID string) *StreamOrchestrator {
	return &StreamOrchestrator{
		session:   session,
		requestID: requestID,
	}
}

// Handle runs the session to a terminal state. It returns a StreamComplete
// error on normal completion so callers can classify every ending alike.
func (s *StreamOrchestrator) Handle(ctx context.Context, writer contracts.StreamWriter) error {
	startTime := time.Now()
	var totalChunks int64
	var totalBytes int64

	sessionID := s.session.ID()
	fiberlog.Infof("[%s] Starting stream session %s for %q", s.requestID, sessionID, s.session.Identifier())

	defer func() {
		duration := time.Since(startTime)
		fiberlog.Infof("[%s] Stream finished (%s): %d chunks, %d bytes in %v",
			s.requestID, s.session.State(), totalChunks, totalBytes, duration)

		if err := s.session.Close(); err != nil {
			fiberlog.Errorf("[%s] Error closing session: %v", s.requestID, err)
		}
		if err := writer.Close(); err != nil && !contracts.IsExpectedError(err) {
			fiberlog.Errorf("[%s] Error closing writer: %v", s.requestID, err)
		}
	}()

	for {
		chunk, err := s.session.Next(ctx)
		if errors.Is(err, io.EOF) {
			return contracts.NewStreamCompleteError(sessionID)
		}
		if err != nil {
			return err
		}

		if err := writer.Write(chunk); err != nil {
			s.session.Cancel()
			if contracts.IsClientDisconnect(err) {
				fiberlog.Infof("[%s] Client disconnected during write", s.requestID)
			}
			return err
		}

		if err := writer.Flush(); err != nil {
			s.session.Cancel()
			if contracts.IsClientDisconnect(err) {
				fiberlog.Infof("[%s] Client disconnected during flush", s.requestID)
			}
			return err
		}

		totalChunks++
		totalBytes += int64(len(chunk))

		fiberlog.Debugf("[%s] Chunk %d delivered (%d bytes)", s.requestID, totalChunks, len(chunk))
	}
}

// RequestID returns the request ID
func (s *StreamOrchestrator) RequestID() string {
	return s.requestID
}
