package racecable

import (
	"fmt"
)

// ConnectError is returned when the upgrade handshake does not complete.
// StatusCode is the HTTP status the server answered with, or 0 when no
// response was received.
type ConnectError struct {
	StatusCode int
	Err        error
}

func (e *ConnectError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", ErrConnectFailed, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", ErrConnectFailed, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// ReceiveError reports a transport failure while reading. The stream that
// returned it is closed.
type ReceiveError struct {
	Err error
}

func (e *ReceiveError) Error() string {
	return fmt.Sprintf("%s: %v", ErrReceiveFailed, e.Err)
}

func (e *ReceiveError) Unwrap() error {
	return e.Err
}

// SendError reports that an outbound command or close frame could not be
// written.
type SendError struct {
	Err error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("%s: %v", ErrSendFailed, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// DecodeError reports a frame that could not be parsed. The stream stays
// open after returning it.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode frame: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ServerErrorKind enumerates the failures the server reports in-band.
type ServerErrorKind int

const (
	RaceNotFound ServerErrorKind = iota + 1
	RaceInvalidJoinToken
	FatalError
	ConnectionError
)

func (k ServerErrorKind) String() string {
	switch k {
	case RaceNotFound:
		return "race_not_found"
	case RaceInvalidJoinToken:
		return "race_invalid_join_token"
	case FatalError:
		return "fatal_error"
	case ConnectionError:
		return "connection_error"
	default:
		return "unknown"
	}
}

// ServerError is a failure of one subscription reported by the server.
// Message is the server's text verbatim.
type ServerError struct {
	Kind       ServerErrorKind
	Identifier Identifier
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

// Fatal reports whether the server usually closes the connection after
// this kind of error.
func (e *ServerError) Fatal() bool {
	return e.Kind == FatalError || e.Kind == ConnectionError
}
