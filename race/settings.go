package race

import (
	"encoding/json"
)

// Settings is the request body used to create a Race. Nil fields are left
// to the server's defaults.
type Settings struct {
	GameID     *string     `json:"game_id,omitempty"`
	CategoryID *string     `json:"category_id,omitempty"`
	Notes      *string     `json:"notes,omitempty"`
	Visibility *Visibility `json:"visibility,omitempty"`
}

type updateOp int

const (
	opKeep updateOp = iota
	opClear
	opSet
)

// Update describes what to do with one property of an existing Race. The
// zero value keeps the current value.
type Update[T any] struct {
	op    updateOp
	value T
}

// Keep leaves the property untouched.
func Keep[T any]() Update[T] { return Update[T]{} }

// Clear removes the property's value.
func Clear[T any]() Update[T] { return Update[T]{op: opClear} }

// Set replaces the property's value.
func Set[T any](v T) Update[T] { return Update[T]{op: opSet, value: v} }

func (u Update[T]) IsKeep() bool { return u.op == opKeep }

// Value returns the value to set, if the update sets one.
func (u Update[T]) Value() (T, bool) {
	return u.value, u.op == opSet
}

// UpdateSettings is the request body used to change a Race.
type UpdateSettings struct {
	GameID     Update[string]
	CategoryID Update[string]
	Notes      Update[string]
	// Visibility cannot be cleared, only kept (nil) or replaced.
	Visibility *Visibility
}

// MarshalJSON omits kept properties and encodes cleared ones as null.
func (s UpdateSettings) MarshalJSON() ([]byte, error) {
	body := make(map[string]any)
	putUpdate(body, "game_id", s.GameID)
	putUpdate(body, "category_id", s.CategoryID)
	putUpdate(body, "notes", s.Notes)
	if s.Visibility != nil {
		body["visibility"] = *s.Visibility
	}
	return json.Marshal(body)
}

func putUpdate[T any](body map[string]any, key string, u Update[T]) {
	if u.IsKeep() {
		return
	}
	if v, ok := u.Value(); ok {
		body[key] = v
		return
	}
	body[key] = nil
}

// JoinAs selects who joins a Race: the authenticated user, or a ghost
// replaying one of their past runs.
type JoinAs struct {
	GhostRunID string
}

// Myself joins as the authenticated user.
func Myself() JoinAs { return JoinAs{} }

// Ghost joins as a replay of the run with the given id.
func Ghost(runID string) JoinAs { return JoinAs{GhostRunID: runID} }

func (j JoinAs) IsGhost() bool { return j.GhostRunID != "" }

type joinEntry struct {
	RunID string `json:"run_id"`
}

type joinRequest struct {
	JoinToken string     `json:"join_token,omitempty"`
	Entry     *joinEntry `json:"entry,omitempty"`
}

// JoinBody renders the body of a join request. An empty join token is
// omitted.
func JoinBody(as JoinAs, joinToken string) ([]byte, error) {
	req := joinRequest{JoinToken: joinToken}
	if as.IsGhost() {
		req.Entry = &joinEntry{RunID: as.GhostRunID}
	}
	return json.Marshal(req)
}

type chatMessageBody struct {
	Body string `json:"body"`
}

// ChatMessageBody renders the body used to post a chat message.
func ChatMessageBody(message string) ([]byte, error) {
	return json.Marshal(struct {
		ChatMessage chatMessageBody `json:"chat_message"`
	}{chatMessageBody{Body: message}})
}
