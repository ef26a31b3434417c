package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/luciancaetano/racecable"
)

// FrameKind is the envelope shape a raw frame matched.
type FrameKind int

const (
	// FrameControl is a connection level frame (ping, welcome,
	// confirm_subscription).
	FrameControl FrameKind = iota + 1
	// FrameTargeted carries an identifier and a message with a known tag.
	FrameTargeted
	// FrameUnknownTargeted is shaped like FrameTargeted but its message tag
	// is not known. Such frames are dropped.
	FrameUnknownTargeted
)

type ControlKind int

const (
	ControlPing ControlKind = iota + 1
	ControlWelcome
	ControlConfirmSubscription
)

// Control frame tags.
const (
	tagPing                = "ping"
	tagWelcome             = "welcome"
	tagConfirmSubscription = "confirm_subscription"
)

// Frame is a decoded envelope. Identifier is still in its encoded form; it
// is only parsed for frames that are delivered.
type Frame struct {
	Kind       FrameKind
	Control    ControlKind
	Identifier string
	Tag        string
	Message    json.RawMessage
}

// DecodeEnvelope matches data against the envelope shapes in priority
// order: control, targeted, unknown targeted. A frame matching none of
// them is an error.
func DecodeEnvelope(data []byte) (Frame, error) {
	if len(data) > racecable.MaxFrameSize {
		return Frame{}, fmt.Errorf("%s: %d bytes", racecable.ErrFrameTooLarge, len(data))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Frame{}, err
	}

	typ, hasType := stringField(fields, "type")
	identifier, hasIdentifier := stringField(fields, "identifier")

	if hasType {
		switch typ {
		case tagPing:
			return Frame{Kind: FrameControl, Control: ControlPing}, nil
		case tagWelcome:
			return Frame{Kind: FrameControl, Control: ControlWelcome}, nil
		case tagConfirmSubscription:
			if hasIdentifier {
				return Frame{Kind: FrameControl, Control: ControlConfirmSubscription, Identifier: identifier}, nil
			}
		}
	}

	if !hasIdentifier {
		return Frame{}, errors.New(racecable.ErrInvalidFrame)
	}
	message, ok := fields["message"]
	if !ok {
		return Frame{}, errors.New(racecable.ErrInvalidFrame)
	}
	var messageFields map[string]json.RawMessage
	if err := json.Unmarshal(message, &messageFields); err != nil || messageFields == nil {
		return Frame{}, errors.New(racecable.ErrInvalidFrame)
	}
	if _, ok := messageFields["type"]; !ok {
		return Frame{}, errors.New(racecable.ErrInvalidFrame)
	}

	tag, isString := stringField(messageFields, "type")
	if isString && Recognized(tag) {
		return Frame{Kind: FrameTargeted, Identifier: identifier, Tag: tag, Message: message}, nil
	}
	return Frame{Kind: FrameUnknownTargeted, Identifier: identifier}, nil
}

// stringField returns the named field if it holds a JSON string. A null
// value counts as absent.
func stringField(fields map[string]json.RawMessage, name string) (string, bool) {
	raw, ok := fields[name]
	if !ok || isNull(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Decode runs one raw frame through the envelope decoder, the identifier
// codec and the message classifier.
//
// relevant is false for frames that must be skipped. When err is non-nil it
// is either a *racecable.ServerError or a *racecable.DecodeError. Decode
// keeps no state between calls.
func Decode(data []byte) (ev racecable.Event, relevant bool, err error) {
	frame, err := DecodeEnvelope(data)
	if err != nil {
		return racecable.Event{}, true, &racecable.DecodeError{Err: err}
	}

	switch frame.Kind {
	case FrameControl:
		if frame.Control != ControlConfirmSubscription {
			return racecable.Event{}, false, nil
		}
		id, err := DecodeIdentifier(frame.Identifier)
		if err != nil {
			return racecable.Event{}, true, &racecable.DecodeError{Err: err}
		}
		return racecable.Event{Identifier: id, Kind: racecable.EventConfirmSubscription}, true, nil

	case FrameTargeted:
		id, err := DecodeIdentifier(frame.Identifier)
		if err != nil {
			return racecable.Event{}, true, &racecable.DecodeError{Err: err}
		}
		ev, err := Classify(id, frame.Tag, frame.Message)
		if err != nil {
			var serverErr *racecable.ServerError
			if errors.As(err, &serverErr) {
				return racecable.Event{}, true, serverErr
			}
			return racecable.Event{}, true, &racecable.DecodeError{Err: err}
		}
		return ev, true, nil

	default:
		return racecable.Event{}, false, nil
	}
}
