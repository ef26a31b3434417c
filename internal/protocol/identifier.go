package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/luciancaetano/racecable"
)

// wireIdentifier keeps the field order the server emits: the channel tag
// first, then the race fields.
type wireIdentifier struct {
	Channel   racecable.Channel `json:"channel"`
	RaceID    *uuid.UUID        `json:"race_id,omitempty"`
	JoinToken *string           `json:"join_token,omitempty"`
}

// EncodeIdentifier renders id as the JSON document the server expects. The
// result is embedded in envelopes as a JSON string, not as an object.
func EncodeIdentifier(id racecable.Identifier) (string, error) {
	w := wireIdentifier{Channel: id.Channel}
	switch id.Channel {
	case racecable.ChannelGlobalRace:
	case racecable.ChannelRace:
		w.RaceID = &id.RaceID
		w.JoinToken = &id.JoinToken
	default:
		return "", fmt.Errorf("%s: %q", racecable.ErrUnknownChannel, id.Channel)
	}

	out, err := json.Marshal(w)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// DecodeIdentifier parses the nested identifier document carried inside an
// envelope.
func DecodeIdentifier(s string) (racecable.Identifier, error) {
	var w struct {
		Channel   *racecable.Channel `json:"channel"`
		RaceID    *uuid.UUID         `json:"race_id"`
		JoinToken *string            `json:"join_token"`
	}
	if err := json.Unmarshal([]byte(s), &w); err != nil {
		return racecable.Identifier{}, fmt.Errorf("%s: %w", racecable.ErrInvalidIdentifier, err)
	}
	if w.Channel == nil {
		return racecable.Identifier{}, fmt.Errorf("%s: missing channel", racecable.ErrInvalidIdentifier)
	}

	switch *w.Channel {
	case racecable.ChannelGlobalRace:
		return racecable.GlobalRaceChannel(), nil
	case racecable.ChannelRace:
		if w.RaceID == nil {
			return racecable.Identifier{}, fmt.Errorf("%s: missing race_id", racecable.ErrInvalidIdentifier)
		}
		if w.JoinToken == nil {
			return racecable.Identifier{}, fmt.Errorf("%s: missing join_token", racecable.ErrInvalidIdentifier)
		}
		return racecable.RaceChannel(*w.RaceID, *w.JoinToken), nil
	default:
		return racecable.Identifier{}, fmt.Errorf("%s: %s %q", racecable.ErrInvalidIdentifier, racecable.ErrUnknownChannel, *w.Channel)
	}
}
