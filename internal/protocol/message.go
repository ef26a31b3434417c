package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/luciancaetano/racecable"
	"github.com/luciancaetano/racecable/race"
)

type payloadKind int

const (
	payloadNone payloadKind = iota
	payloadRace
	payloadOptionalRace
	payloadRaces
	payloadChatMessage
)

type tagRule struct {
	kind      racecable.EventKind
	payload   payloadKind
	serverErr racecable.ServerErrorKind
}

var messages = map[string]tagRule{
	"race_created":            {kind: racecable.EventRaceCreated, payload: payloadRace},
	"global_state":            {kind: racecable.EventGlobalState, payload: payloadRaces},
	"race_updated":            {kind: racecable.EventRaceUpdated, payload: payloadRace},
	"new_message":             {kind: racecable.EventNewMessage, payload: payloadChatMessage},
	"new_attachment":          {kind: racecable.EventNewAttachment, payload: payloadRace},
	"race_state":              {kind: racecable.EventRaceState, payload: payloadRace},
	"race_start_scheduled":    {kind: racecable.EventRaceStartScheduled, payload: payloadOptionalRace},
	"race_ended":              {kind: racecable.EventRaceEnded, payload: payloadOptionalRace},
	"race_entries_updated":    {kind: racecable.EventRaceEntriesUpdated, payload: payloadOptionalRace},
	"race_not_found":          {serverErr: racecable.RaceNotFound},
	"race_invalid_join_token": {serverErr: racecable.RaceInvalidJoinToken},
	"fatal_error":             {serverErr: racecable.FatalError},
	"connection_error":        {serverErr: racecable.ConnectionError},
}

// payloadAliases are the names the server uses for the payload slot of a
// message's data object, in the order they are tried.
var payloadAliases = []string{"race", "races", "chat_message"}

// Recognized reports whether tag is a message tag this package can classify.
func Recognized(tag string) bool {
	_, ok := messages[tag]
	return ok
}

// Classify converts the message of a targeted frame into an event. The four
// terminal tags produce a *racecable.ServerError carrying the server's text.
func Classify(id racecable.Identifier, tag string, message json.RawMessage) (racecable.Event, error) {
	rule, ok := messages[tag]
	if !ok {
		return racecable.Event{}, fmt.Errorf("unknown message tag %q", tag)
	}

	if rule.serverErr != 0 {
		var body struct {
			Message *string `json:"message"`
		}
		if err := json.Unmarshal(message, &body); err != nil {
			return racecable.Event{}, err
		}
		text := rule.serverErr.String()
		if body.Message != nil {
			text = *body.Message
		}
		return racecable.Event{}, &racecable.ServerError{Kind: rule.serverErr, Identifier: id, Message: text}
	}

	var body struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(message, &body); err != nil {
		return racecable.Event{}, err
	}

	var data map[string]json.RawMessage
	if !isNull(body.Data) {
		if err := json.Unmarshal(body.Data, &data); err != nil {
			return racecable.Event{}, fmt.Errorf("%s: data: %w", tag, err)
		}
	}

	ev := racecable.Event{Identifier: id, Kind: rule.kind}
	switch rule.payload {
	case payloadRace, payloadOptionalRace:
		r, err := extractPayload[race.Race](data, raceFields...)
		if err != nil && !(rule.payload == payloadOptionalRace && errors.Is(err, errNoPayload)) {
			return racecable.Event{}, fmt.Errorf("%s: %w", tag, err)
		}
		ev.Race = r
	case payloadRaces:
		races, err := extractPayload[[]race.Race](data, raceFields...)
		if err != nil {
			return racecable.Event{}, fmt.Errorf("%s: %w", tag, err)
		}
		ev.Races = *races
	case payloadChatMessage:
		msg, err := extractPayload[race.ChatMessage](data, chatMessageFields...)
		if err != nil {
			return racecable.Event{}, fmt.Errorf("%s: %w", tag, err)
		}
		ev.ChatMessage = msg
	}
	return ev, nil
}

var errNoPayload = errors.New(racecable.ErrMissingPayload)

// Fields a slot must carry, non-null, to be taken as a race or a chat
// message. For list payloads every element must carry them.
var (
	raceFields        = []string{"id"}
	chatMessageFields = []string{"body", "user"}
)

// extractPayload returns the first alias slot that is present, non-null,
// carries the required fields and decodes as T. If no alias is present
// errNoPayload is returned; if aliases are present but none matches, the
// last error is returned.
func extractPayload[T any](data map[string]json.RawMessage, required ...string) (*T, error) {
	var lastErr error
	for _, alias := range payloadAliases {
		raw, ok := data[alias]
		if !ok || isNull(raw) {
			continue
		}
		v := new(T)
		if err := json.Unmarshal(raw, v); err != nil {
			lastErr = fmt.Errorf("%s: %w", alias, err)
			continue
		}
		if err := checkFields(raw, required); err != nil {
			lastErr = fmt.Errorf("%s: %w", alias, err)
			continue
		}
		return v, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errNoPayload
}

// checkFields verifies that raw, an object or an array of objects, has a
// non-null value for every required field.
func checkFields(raw json.RawMessage, required []string) error {
	if len(required) == 0 {
		return nil
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		for i, item := range items {
			if err := checkFields(item, required); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return err
	}
	for _, name := range required {
		if value, ok := fields[name]; !ok || isNull(value) {
			return fmt.Errorf("missing %q", name)
		}
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
