package exnest

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Stream is a live streaming response. Chunks arrive on Chunks in order until
// the server emits the termination sentinel, the connection closes, or the
// consumer abandons the stream. After the channel closes, Err reports whether
// the stream ended cleanly.
//
// A stream is not restartable. Abandon it by cancelling the context passed to
// the Stream call or by calling Close; either releases the connection.
type Stream struct {
	chunks chan StreamChunk
	body   io.Closer

	closed atomic.Bool

	mu  sync.Mutex
	err error
}

// Chunks returns the channel of parsed stream chunks.
func (s *Stream) Chunks() <-chan StreamChunk { return s.chunks }

// Err returns the error that terminated the stream, if any. Valid after the
// Chunks channel has closed.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close abandons the stream and releases the underlying connection. Safe to
// call more than once and concurrently with consumption.
func (s *Stream) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.body.Close()
}

func (s *Stream) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// consume reads SSE events from the response body, forwarding parsed chunks
// until the sentinel, an error, or cancellation. The body is closed on every
// exit path.
func (s *Stream) consume(ctx context.Context, body io.ReadCloser, logger *zap.Logger, debug bool) {
	defer close(s.chunks)
	defer s.Close()

	reader := newSSEReader(body)
	for {
		select {
		case <-ctx.Done():
			s.setErr(&AbortError{SDKError: SDKError{Message: "stream cancelled", Cause: ctx.Err()}})
			return
		default:
		}

		event, err := reader.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			// A read error after an explicit Close is the close itself,
			// not a stream failure.
			if s.closed.Load() {
				return
			}
			if ctx.Err() != nil {
				s.setErr(&AbortError{SDKError: SDKError{Message: "stream cancelled", Cause: ctx.Err()}})
			} else {
				s.setErr(&NetworkError{SDKError: SDKError{Message: "stream read error", Cause: err}})
			}
			return
		}

		if event.Event == "[DONE]" || event.Data == "[DONE]" {
			return
		}

		var chunk StreamChunk
		if err := json.Unmarshal([]byte(event.Data), &chunk); err != nil {
			if debug {
				logger.Debug("skipping malformed stream chunk",
					zap.String("data", event.Data),
					zap.Error(err),
				)
			}
			continue
		}

		select {
		case s.chunks <- chunk:
		case <-ctx.Done():
			s.setErr(&AbortError{SDKError: SDKError{Message: "stream cancelled", Cause: ctx.Err()}})
			return
		}
	}
}
