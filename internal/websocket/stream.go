package websocket

import (
	"context"
	"errors"
	"io"
	"iter"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/luciancaetano/racecable"
	"github.com/luciancaetano/racecable/internal/protocol"
)

// Stream implements racecable.EventStream on top of a racecable.Transport.
//
// A Stream that becomes unreachable without being closed aborts its
// transport.
type Stream struct {
	transport    racecable.Transport
	limiter      *rate.Limiter
	closeOnFatal bool
	l            *zap.Logger

	state *streamState
}

// streamState is kept apart from Stream so the cleanup can reach it
// without keeping the Stream alive.
type streamState struct {
	transport racecable.Transport

	mu     sync.RWMutex
	closed bool
}

var _ racecable.EventStream = (*Stream)(nil)

// NewStream creates an open stream reading from and writing to transport.
// Only the CloseOnFatal, RateLimitConfig and Logger fields of cfg are used;
// cfg may be nil.
func NewStream(transport racecable.Transport, cfg *Config) *Stream {
	s := &Stream{
		transport: transport,
		l:         cfg.logger().Named("stream"),
		state:     &streamState{transport: transport},
	}
	if cfg != nil {
		s.limiter = cfg.RateLimitConfig.newLimiter()
		s.closeOnFatal = cfg.CloseOnFatal
	}
	runtime.AddCleanup(s, func(st *streamState) { st.abort() }, s.state)
	return s
}

// Next returns the next relevant event
func (s *Stream) Next(ctx context.Context) (racecable.Event, error) {
	for {
		if !s.IsOpen() {
			return racecable.Event{}, io.EOF
		}

		text, data, err := s.transport.ReadMessage(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return racecable.Event{}, err
			}
			if !s.IsOpen() {
				// closed by a concurrent Close
				return racecable.Event{}, io.EOF
			}
			s.l.Error("receive failed", zap.Error(err))
			s.shutdown()
			return racecable.Event{}, &racecable.ReceiveError{Err: err}
		}

		if !text {
			s.l.Debug("skipping non-text frame", zap.Int("size", len(data)))
			continue
		}

		ev, relevant, err := protocol.Decode(data)
		if err != nil {
			return racecable.Event{}, s.frameError(err, data)
		}
		if !relevant {
			s.l.Debug("skipping irrelevant frame", zap.ByteString("frame", data))
			continue
		}
		return ev, nil
	}
}

func (s *Stream) frameError(err error, frame []byte) error {
	var serverErr *racecable.ServerError
	if errors.As(err, &serverErr) {
		s.l.Warn("server reported error",
			zap.Stringer("kind", serverErr.Kind),
			zap.Stringer("identifier", serverErr.Identifier),
			zap.String("message", serverErr.Message))
		if s.closeOnFatal && serverErr.Fatal() {
			s.shutdown()
		}
		return err
	}

	s.l.Warn("failed to decode frame", zap.Error(err), zap.ByteString("frame", frame))
	return err
}

// Events iterates over Next until the stream ends or ctx is done
func (s *Stream) Events(ctx context.Context) iter.Seq2[racecable.Event, error] {
	return func(yield func(racecable.Event, error) bool) {
		for {
			ev, err := s.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(ev, err) {
				return
			}
			if ctx.Err() != nil {
				return
			}
		}
	}
}

// Subscribe sends a subscribe command for identifier
func (s *Stream) Subscribe(ctx context.Context, identifier racecable.Identifier) error {
	return s.Send(ctx, racecable.Command{Kind: racecable.CommandSubscribe, Identifier: identifier})
}

// Unsubscribe sends an unsubscribe command for identifier
func (s *Stream) Unsubscribe(ctx context.Context, identifier racecable.Identifier) error {
	return s.Send(ctx, racecable.Command{Kind: racecable.CommandUnsubscribe, Identifier: identifier})
}

// Send encodes cmd and writes it as one text frame
func (s *Stream) Send(ctx context.Context, cmd racecable.Command) error {
	if !s.IsOpen() {
		return &racecable.SendError{Err: errors.New(racecable.ErrConnectionClosed)}
	}

	data, err := protocol.EncodeCommand(cmd)
	if err != nil {
		return &racecable.SendError{Err: err}
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return &racecable.SendError{Err: err}
		}
	}

	if err := s.transport.WriteText(ctx, data); err != nil {
		s.l.Error("send failed", zap.String("command", string(cmd.Kind)), zap.Error(err))
		return &racecable.SendError{Err: err}
	}
	s.l.Debug("sent command",
		zap.String("command", string(cmd.Kind)),
		zap.Stringer("identifier", cmd.Identifier))
	return nil
}

// Close sends a close frame and closes the stream
func (s *Stream) Close(ctx context.Context) error {
	if !s.markClosed() {
		return nil
	}
	if err := s.transport.Close(ctx); err != nil {
		return &racecable.SendError{Err: err}
	}
	return nil
}

// IsOpen returns true until the stream is closed
func (s *Stream) IsOpen() bool {
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()
	return !s.state.closed
}

// shutdown closes the stream without a close handshake
func (s *Stream) shutdown() {
	if err := s.state.abort(); err != nil {
		s.l.Debug("abort failed", zap.Error(err))
	}
}

func (s *Stream) markClosed() bool {
	return s.state.markClosed()
}

// abort releases the transport unless the stream is already closed
func (st *streamState) abort() error {
	if !st.markClosed() {
		return nil
	}
	return st.transport.Abort()
}

func (st *streamState) markClosed() bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.closed {
		return false
	}
	st.closed = true
	return true
}
