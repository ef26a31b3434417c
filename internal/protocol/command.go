package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/luciancaetano/racecable"
)

type wireCommand struct {
	Command    racecable.CommandKind `json:"command"`
	Identifier string                `json:"identifier"`
	Data       string                `json:"data,omitempty"`
}

// EncodeCommand renders cmd as one outbound text frame, for example
// {"command":"subscribe","identifier":"{\"channel\":\"Api::V4::GlobalRaceChannel\"}"}.
// The identifier, and the data of a message command, are JSON documents
// embedded as strings.
func EncodeCommand(cmd racecable.Command) ([]byte, error) {
	if !validCommand(cmd.Kind) {
		return nil, fmt.Errorf("unknown command %q", cmd.Kind)
	}

	identifier, err := EncodeIdentifier(cmd.Identifier)
	if err != nil {
		return nil, err
	}
	w := wireCommand{Command: cmd.Kind, Identifier: identifier}

	if cmd.Kind == racecable.CommandMessage {
		data, err := json.Marshal(cmd.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode command data: %w", err)
		}
		w.Data = string(data)
	}

	out, err := json.Marshal(w)
	if err != nil {
		return nil, err
	}
	if len(out) > racecable.MaxFrameSize {
		return nil, fmt.Errorf("%s: %d bytes", racecable.ErrFrameTooLarge, len(out))
	}
	return out, nil
}

// DecodeCommand parses a command frame as written by EncodeCommand. Data of
// a message command is returned as json.RawMessage.
func DecodeCommand(data []byte) (racecable.Command, error) {
	var w wireCommand
	if err := json.Unmarshal(data, &w); err != nil {
		return racecable.Command{}, err
	}
	if !validCommand(w.Command) {
		return racecable.Command{}, fmt.Errorf("unknown command %q", w.Command)
	}

	id, err := DecodeIdentifier(w.Identifier)
	if err != nil {
		return racecable.Command{}, err
	}
	cmd := racecable.Command{Kind: w.Command, Identifier: id}
	if w.Data != "" {
		cmd.Data = json.RawMessage(w.Data)
	}
	return cmd, nil
}

func validCommand(kind racecable.CommandKind) bool {
	switch kind {
	case racecable.CommandSubscribe, racecable.CommandUnsubscribe, racecable.CommandMessage:
		return true
	default:
		return false
	}
}
