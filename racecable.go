package racecable

import (
	"context"
	"iter"
)

// EventStream is a live connection to the race event channel.
//
// Reads are pull based: nothing is read from the socket unless Next (or the
// iterator returned by Events) is waiting for an event. Only one goroutine
// may pull at a time. Commands may be sent from another goroutine; sends are
// serialized internally.
//
// Example usage:
//
//	import "github.com/luciancaetano/racecable/ws"
//
//	stream, err := ws.Dial(ctx, ws.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer stream.Close(ctx)
//
//	stream.Subscribe(ctx, racecable.GlobalRaceChannel())
//	for ev, err := range stream.Events(ctx) {
//	    // ...
//	}
type EventStream interface {
	// Next blocks until the next relevant frame arrives and returns it.
	//
	// Control frames (ping, welcome) and messages with unknown tags are
	// skipped. Per-frame failures are returned as *DecodeError or
	// *ServerError and leave the stream open. A transport failure is
	// returned once as *ReceiveError; the stream is closed afterwards and
	// every further call returns io.EOF.
	//
	// If ctx is cancelled, Next returns ctx.Err() and the stream remains
	// usable. A frame that arrives after the cancellation is returned by the
	// following call.
	Next(ctx context.Context) (Event, error)

	// Events returns an iterator over Next. Iteration stops when the stream
	// ends, when ctx is done, or when the loop body breaks.
	Events(ctx context.Context) iter.Seq2[Event, error]

	// Subscribe asks the server to start delivering frames for identifier.
	// The server answers with an EventConfirmSubscription event, or with a
	// *ServerError for that identifier.
	Subscribe(ctx context.Context, identifier Identifier) error

	// Unsubscribe stops delivery for identifier.
	Unsubscribe(ctx context.Context, identifier Identifier) error

	// Send writes an arbitrary command. Failures are returned as *SendError.
	Send(ctx context.Context, cmd Command) error

	// Close sends a close frame and closes the stream. Calling Close on a
	// closed stream is a no-op.
	Close(ctx context.Context) error

	// IsOpen reports whether the stream has not been closed yet.
	IsOpen() bool
}

// Transport is a message-framed, text-capable connection.
//
// ReadMessage suspends until a message arrives or the connection fails; text
// reports whether the message is a text frame. ReadMessage must not be called
// concurrently with itself. WriteText must be safe for concurrent use.
type Transport interface {
	ReadMessage(ctx context.Context) (text bool, data []byte, err error)
	WriteText(ctx context.Context, data []byte) error

	// Close sends a protocol close frame and releases the connection.
	Close(ctx context.Context) error
	// Abort releases the connection without a close handshake.
	Abort() error
}

// CommandKind is the outbound command verb.
type CommandKind string

const (
	CommandSubscribe   CommandKind = "subscribe"
	CommandUnsubscribe CommandKind = "unsubscribe"
	// CommandMessage publishes Data to the subscription's channel.
	CommandMessage CommandKind = "message"
)

// Command is one outbound request on the connection. Data is only sent for
// CommandMessage and is JSON encoded.
type Command struct {
	Kind       CommandKind
	Identifier Identifier
	Data       any
}
