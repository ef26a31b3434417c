package race

import (
	"encoding/json"
	"fmt"
)

// Status is the lifecycle state of an Entry, derived from its timestamps.
type Status int

const (
	// Entered means the entry has joined but is not ready.
	Entered Status = iota
	Ready
	Finished
	Forfeited
)

func (s Status) String() string {
	switch s {
	case Entered:
		return "entered"
	case Ready:
		return "ready"
	case Finished:
		return "finished"
	case Forfeited:
		return "forfeited"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Status derives the lifecycle state from the entry's timestamps. A finish
// takes precedence over a forfeit, which takes precedence over ready.
//
// The result is informational only. The server decides which transitions
// are legal, so it must not be used to reject a request before sending it.
func (e *Entry) Status() Status {
	switch {
	case e.FinishedAt != nil:
		return Finished
	case e.ForfeitedAt != nil:
		return Forfeited
	case e.ReadiedAt != nil:
		return Ready
	default:
		return Entered
	}
}

func (e *Entry) IsReady() bool     { return e.ReadiedAt != nil }
func (e *Entry) IsFinished() bool  { return e.FinishedAt != nil }
func (e *Entry) IsForfeited() bool { return e.ForfeitedAt != nil }

// EntryAction sets or clears exactly one of the entry timestamps.
type EntryAction int

const (
	ReadyUp EntryAction = iota + 1
	Unready
	Finish
	UndoFinish
	Forfeit
	UndoForfeit
)

// the server stamps the time itself when it receives this value
const nowValue = "now"

var entryActionNames = map[EntryAction]string{
	ReadyUp:     "ready_up",
	Unready:     "unready",
	Finish:      "finish",
	UndoFinish:  "undo_finish",
	Forfeit:     "forfeit",
	UndoForfeit: "undo_forfeit",
}

func (a EntryAction) String() string {
	if name, ok := entryActionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("EntryAction(%d)", int(a))
}

// Field returns the entry field the action writes.
func (a EntryAction) Field() string {
	switch a {
	case ReadyUp, Unready:
		return "readied_at"
	case Finish, UndoFinish:
		return "finished_at"
	case Forfeit, UndoForfeit:
		return "forfeited_at"
	default:
		return ""
	}
}

// Sets reports whether the action sets its field (true) or clears it.
func (a EntryAction) Sets() bool {
	return a == ReadyUp || a == Finish || a == Forfeit
}

// Undo returns the action that reverts a.
func (a EntryAction) Undo() EntryAction {
	switch a {
	case ReadyUp:
		return Unready
	case Unready:
		return ReadyUp
	case Finish:
		return UndoFinish
	case UndoFinish:
		return Finish
	case Forfeit:
		return UndoForfeit
	case UndoForfeit:
		return Forfeit
	default:
		return a
	}
}

// Body renders the PATCH body for the action, for example
// {"entry":{"readied_at":"now"}} or {"entry":{"readied_at":null}}.
func (a EntryAction) Body() ([]byte, error) {
	field := a.Field()
	if field == "" {
		return nil, fmt.Errorf("unknown entry action %d", int(a))
	}
	var value *string
	if a.Sets() {
		now := nowValue
		value = &now
	}
	return json.Marshal(map[string]map[string]*string{
		"entry": {field: value},
	})
}
