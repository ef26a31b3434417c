package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/luciancaetano/racecable"
)

const closeWait = time.Second

type readResult struct {
	messageType int
	data        []byte
	err         error
}

// Conn implements racecable.Transport over a gorilla websocket connection.
//
// Reads happen on a dedicated goroutine, one frame per ReadMessage call, so
// that a pull can be abandoned on context cancellation without breaking the
// connection. A frame read for an abandoned pull is handed to the next one.
type Conn struct {
	id   string
	conn *websocket.Conn

	reqs     chan struct{}
	results  chan readResult
	inflight bool // owned by the single reader

	writeMu sync.Mutex
	mu      sync.Mutex
	closed  bool
	done    chan struct{}
}

// NewConn wraps an established websocket connection
func NewConn(conn *websocket.Conn, readLimit int64) *Conn {
	if readLimit > 0 {
		conn.SetReadLimit(readLimit)
	}

	c := &Conn{
		id:      uuid.New().String(),
		conn:    conn,
		reqs:    make(chan struct{}),
		results: make(chan readResult, 1),
		done:    make(chan struct{}),
	}

	go c.readPump()

	return c
}

// ID returns a unique identifier for the connection, used in logs
func (c *Conn) ID() string {
	return c.id
}

// ReadMessage waits for the next message
func (c *Conn) ReadMessage(ctx context.Context) (bool, []byte, error) {
	if !c.inflight {
		select {
		case c.reqs <- struct{}{}:
			c.inflight = true
		case <-c.done:
			return false, nil, errors.New(racecable.ErrConnectionClosed)
		case <-ctx.Done():
			return false, nil, ctx.Err()
		}
	}

	select {
	case r := <-c.results:
		c.inflight = false
		return r.messageType == websocket.TextMessage, r.data, r.err
	case <-ctx.Done():
		return false, nil, ctx.Err()
	}
}

// WriteText writes one text frame. Concurrent calls are serialized.
func (c *Conn) WriteText(ctx context.Context, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.isClosed() {
		return errors.New(racecable.ErrConnectionClosed)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Close sends a normal closure frame and closes the connection
func (c *Conn) Close(ctx context.Context) error {
	return c.CloseWithCode(ctx, websocket.CloseNormalClosure, "")
}

// CloseWithCode closes the connection with a close code and optional reason
func (c *Conn) CloseWithCode(ctx context.Context, code int, reason string) error {
	if !c.markClosed() {
		return nil
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(closeWait)
	}
	message := websocket.FormatCloseMessage(code, reason)
	writeErr := c.conn.WriteControl(websocket.CloseMessage, message, deadline)

	closeErr := c.conn.Close()
	if writeErr != nil {
		return writeErr
	}
	return closeErr
}

// Abort closes the underlying connection without a close handshake
func (c *Conn) Abort() error {
	if !c.markClosed() {
		return nil
	}
	return c.conn.Close()
}

// IsAlive returns true until the connection is closed or a read fails
func (c *Conn) IsAlive() bool {
	return !c.isClosed()
}

func (c *Conn) markClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	c.closed = true
	close(c.done)
	return true
}

func (c *Conn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// readPump reads one frame per request until the connection fails. A
// failed read closes the connection, so later reads report it as closed.
func (c *Conn) readPump() {
	for {
		select {
		case <-c.reqs:
		case <-c.done:
			return
		}

		messageType, data, err := c.conn.ReadMessage()
		c.results <- readResult{messageType: messageType, data: data, err: err}
		if err != nil {
			c.Abort()
			return
		}
	}
}
