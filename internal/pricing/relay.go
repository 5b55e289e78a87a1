package pricing

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/medaid/platform/pkg/logger"
	"github.com/medaid/platform/pkg/monitoring"
	"github.com/medaid/platform/pkg/types"
)

// Sink receives relayed bytes. Flush pushes any transport-level buffering
// through to the client so each emitted line is visible immediately.
type Sink interface {
	Write(p []byte) (int, error)
	Flush()
}

// Relay adapts the upstream byte stream into a client-facing stream with
// bounded end-to-end latency. Complete lines are re-emitted as soon as they
// arrive; a periodic flush pushes out partial buffered content so a slow
// upstream trickle never looks like a stall; an idle watchdog aborts the
// stream when upstream goes silent for too long.
//
// The relay owns exactly one session and is not reused. It never reorders:
// it only re-chunks.
type Relay struct {
	flushInterval time.Duration
	idleTimeout   time.Duration
	session       *types.StreamSession
	logger        *logger.Logger
}

// NewRelay creates a relay for one stream session
func NewRelay(flushInterval, idleTimeout time.Duration, session *types.StreamSession, log *logger.Logger) *Relay {
	return &Relay{
		flushInterval: flushInterval,
		idleTimeout:   idleTimeout,
		session:       session,
		logger:        log,
	}
}

// Run pumps upstream into sink until upstream ends, the idle watchdog fires,
// the context is cancelled, or a read/write fails.
//
// Exit semantics:
//   - upstream EOF: remaining buffered bytes are flushed (newline or not)
//     and Run returns nil.
//   - idle timeout: Run returns a timeout error; the downstream response
//     must be terminated abnormally by the caller.
//   - context cancelled (client disconnect): Run returns ctx.Err().
//   - upstream read error: forwarded, never swallowed.
//
// All timers are released on every exit path. The caller is responsible for
// closing upstream afterwards, which also unblocks the internal reader
// goroutine.
func (r *Relay) Run(ctx context.Context, upstream io.Reader, sink Sink) error {
	chunks := make(chan []byte)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			buf := make([]byte, 4096)
			n, err := upstream.Read(buf)
			if n > 0 {
				select {
				case chunks <- buf[:n]:
				case <-done:
					return
				}
			}
			if err != nil {
				select {
				case readErr <- err:
				case <-done:
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(r.flushInterval)
	defer ticker.Stop()

	watchdog := time.NewTimer(r.idleTimeout)
	defer watchdog.Stop()

	var buffer []byte

	for {
		select {
		case <-ctx.Done():
			r.logger.StreamEvent(r.session.ID, "cancelled", nil)
			return ctx.Err()

		case chunk := <-chunks:
			if !watchdog.Stop() {
				select {
				case <-watchdog.C:
				default:
				}
			}
			watchdog.Reset(r.idleTimeout)

			r.session.LastDataAt = time.Now()
			buffer = append(buffer, chunk...)

			// Emit everything up to the last newline; keep the trailing
			// partial line buffered.
			if idx := bytes.LastIndexByte(buffer, '\n'); idx >= 0 {
				if err := r.emit(sink, buffer[:idx+1]); err != nil {
					return err
				}
				buffer = append(buffer[:0], buffer[idx+1:]...)
			}

		case <-ticker.C:
			// Partial-content flush: no newline required.
			if len(buffer) > 0 {
				if err := r.emit(sink, buffer); err != nil {
					return err
				}
				buffer = buffer[:0]
			}

		case <-watchdog.C:
			r.logger.StreamEvent(r.session.ID, "timed_out", map[string]interface{}{
				"idle_window": r.idleTimeout.String(),
			})
			return types.NewTimeoutError("STREAM_TIMEOUT", "stream timeout: no data received")

		case err := <-readErr:
			if err == io.EOF {
				if len(buffer) > 0 {
					if emitErr := r.emit(sink, buffer); emitErr != nil {
						return emitErr
					}
				}
				r.logger.StreamEvent(r.session.ID, "closed", map[string]interface{}{
					"bytes_relayed": r.session.BytesRelayed,
					"lines_relayed": r.session.LinesRelayed,
				})
				return nil
			}
			return fmt.Errorf("upstream stream error: %w", err)
		}
	}
}

// emit writes data downstream and updates session accounting
func (r *Relay) emit(sink Sink, data []byte) error {
	if _, err := sink.Write(data); err != nil {
		return fmt.Errorf("downstream write failed: %w", err)
	}
	sink.Flush()

	r.session.BytesRelayed += int64(len(data))
	if n := bytes.Count(data, []byte("\n")); n > 0 {
		r.session.LinesRelayed += int64(n)
		for i := 0; i < n; i++ {
			monitoring.RecordRelayedLine()
		}
	}
	return nil
}
