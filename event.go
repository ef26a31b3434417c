package racecable

import (
	"github.com/luciancaetano/racecable/race"
)

// EventKind tells which payload field of an Event is populated.
type EventKind int

const (
	EventUnknown EventKind = iota
	// EventConfirmSubscription carries no payload.
	EventConfirmSubscription
	EventRaceCreated
	// EventGlobalState carries Races.
	EventGlobalState
	EventRaceUpdated
	// EventNewMessage carries ChatMessage.
	EventNewMessage
	EventNewAttachment
	EventRaceState
	// EventRaceStartScheduled, EventRaceEnded and EventRaceEntriesUpdated
	// may arrive without a race body, in which case Race is nil.
	EventRaceStartScheduled
	EventRaceEnded
	EventRaceEntriesUpdated
)

var eventKindNames = map[EventKind]string{
	EventUnknown:             "unknown",
	EventConfirmSubscription: "confirm_subscription",
	EventRaceCreated:         "race_created",
	EventGlobalState:         "global_state",
	EventRaceUpdated:         "race_updated",
	EventNewMessage:          "new_message",
	EventNewAttachment:       "new_attachment",
	EventRaceState:           "race_state",
	EventRaceStartScheduled:  "race_start_scheduled",
	EventRaceEnded:           "race_ended",
	EventRaceEntriesUpdated:  "race_entries_updated",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return eventKindNames[EventUnknown]
}

// OptionalRace reports whether events of this kind may omit the race body.
func (k EventKind) OptionalRace() bool {
	switch k {
	case EventRaceStartScheduled, EventRaceEnded, EventRaceEntriesUpdated:
		return true
	default:
		return false
	}
}

// Event is one relevant frame delivered by an EventStream.
//
// Identifier is the subscription the frame belongs to. Exactly one of Race,
// Races or ChatMessage is set depending on Kind, except for
// EventConfirmSubscription and the optional-race kinds.
type Event struct {
	Identifier  Identifier
	Kind        EventKind
	Race        *race.Race
	Races       []race.Race
	ChatMessage *race.ChatMessage
}
