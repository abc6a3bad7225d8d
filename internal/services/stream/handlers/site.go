package handlers

import (
	"bufio"
	"context"
	"time"

	"github.com/Egham-7/sitegen-mock/internal/services/stream/contracts"
	"github.com/Egham-7/sitegen-mock/internal/services/stream/delivery"
	"github.com/Egham-7/sitegen-mock/internal/services/stream/writers"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/valyala/fasthttp"
)

// FinishFunc is called once the stream writer is done with a session
type FinishFunc func(summary delivery.Summary, err error)

// HandleSiteStream streams a session as the response body.
//
// The session is opened before any header is committed, so a NotFound or
// IOError is returned here and the caller can still choose the status. After
// that the body is written chunk by chunk without a Content-Length; a failure
// past this point can only truncate the body.
func HandleSiteStream(c *fiber.Ctx, session *delivery.Session, requestID string, timeout time.Duration, onFinish FinishFunc) error {
	if err := session.Open(c.UserContext()); err != nil {
		fiberlog.Warnf("[%s] Failed to open content %q: %v", requestID, session.Identifier(), err)
		return err
	}

	fiberlog.Infof("[%s] Content %q opened, starting HTTP stream", requestID, session.Identifier())

	fasthttpCtx := c.Context()
	c.Set(fiber.HeaderContentType, session.MediaType())
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set("X-Accel-Buffering", "no")
	c.Set("X-Session-ID", session.ID())
	// the disconnect watcher owns the socket's read side until the body ends
	fasthttpCtx.SetConnectionClose()

	connState := writers.NewFastHTTPConnectionState(fasthttpCtx)

	fasthttpCtx.SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		ctx, cancel := sessionContext(fasthttpCtx, timeout)
		defer cancel()

		stopWatch := connState.Watch(func() {
			fiberlog.Infof("[%s] Client disconnected, cancelling session %s", requestID, session.ID())
			session.Cancel()
			cancel()
		})

		streamWriter := writers.NewHTTPStreamWriter(w, connState, session.ID())
		err := NewStreamOrchestrator(session, requestID).Handle(ctx, streamWriter)
		stopWatch()
		if err != nil {
			if !contracts.IsExpectedError(err) {
				fiberlog.Errorf("[%s] Stream error: %v", requestID, err)
			} else {
				fiberlog.Infof("[%s] Stream ended: %v", requestID, err)
			}
		}

		if onFinish != nil {
			onFinish(session.Summary(), err)
		}
	}))

	return nil
}

// sessionContext ends on server shutdown, client disconnect or the deadline
func sessionContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(parent, timeout)
	}
	return context.WithCancel(parent)
}
