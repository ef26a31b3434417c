package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/luciancaetano/racecable/race"
)

const racesPath = "races"

// ActiveRaces returns the races that have not ended
func (c *Client) ActiveRaces(ctx context.Context) ([]race.Race, error) {
	var out struct {
		Races []race.Race `json:"races"`
	}
	if err := c.do(ctx, http.MethodGet, c.endpoint(racesPath), nil, &out); err != nil {
		return nil, err
	}
	return out.Races, nil
}

func (c *Client) Race(ctx context.Context, id uuid.UUID) (*race.Race, error) {
	var out struct {
		Race race.Race `json:"race"`
	}
	if err := c.do(ctx, http.MethodGet, c.endpoint(racesPath, id.String()), nil, &out); err != nil {
		return nil, err
	}
	return &out.Race, nil
}

// CreateRace creates a race owned by the authenticated user. The join token
// of the new race is only returned here.
func (c *Client) CreateRace(ctx context.Context, settings race.Settings) (*race.Race, error) {
	body, err := json.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}

	var out struct {
		Race race.Race `json:"race"`
	}
	if err := c.do(ctx, http.MethodPost, c.endpoint(racesPath), body, &out); err != nil {
		return nil, err
	}
	return &out.Race, nil
}

func (c *Client) UpdateRace(ctx context.Context, id uuid.UUID, settings race.UpdateSettings) (*race.Race, error) {
	body, err := json.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}

	var out struct {
		Race race.Race `json:"race"`
	}
	if err := c.do(ctx, http.MethodPatch, c.endpoint(racesPath, id.String()), body, &out); err != nil {
		return nil, err
	}
	return &out.Race, nil
}

// Entries returns every entry of a race
func (c *Client) Entries(ctx context.Context, raceID uuid.UUID) ([]race.Entry, error) {
	var out struct {
		Entries []race.Entry `json:"entries"`
	}
	if err := c.do(ctx, http.MethodGet, c.endpoint(racesPath, raceID.String(), "entries"), nil, &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

// Entry returns the authenticated user's entry in a race
func (c *Client) Entry(ctx context.Context, raceID uuid.UUID) (*race.Entry, error) {
	var out struct {
		Entry race.Entry `json:"entry"`
	}
	if err := c.do(ctx, http.MethodGet, c.endpoint(racesPath, raceID.String(), "entry"), nil, &out); err != nil {
		return nil, err
	}
	return &out.Entry, nil
}

// Join enters a race. The join token is required for invite-only and
// secret races and may be empty otherwise.
func (c *Client) Join(ctx context.Context, raceID uuid.UUID, as race.JoinAs, joinToken string) (*race.Entry, error) {
	body, err := race.JoinBody(as, joinToken)
	if err != nil {
		return nil, err
	}

	var out struct {
		Entry race.Entry `json:"entry"`
	}
	if err := c.do(ctx, http.MethodPost, c.endpoint(racesPath, raceID.String(), "entries"), body, &out); err != nil {
		return nil, err
	}
	return &out.Entry, nil
}

func (c *Client) Leave(ctx context.Context, raceID, entryID uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, c.endpoint(racesPath, raceID.String(), "entries", entryID.String()), nil, nil)
}

func (c *Client) ReadyUp(ctx context.Context, raceID, entryID uuid.UUID) (*race.Entry, error) {
	return c.UpdateEntry(ctx, raceID, entryID, race.ReadyUp)
}

func (c *Client) Unready(ctx context.Context, raceID, entryID uuid.UUID) (*race.Entry, error) {
	return c.UpdateEntry(ctx, raceID, entryID, race.Unready)
}

func (c *Client) Finish(ctx context.Context, raceID, entryID uuid.UUID) (*race.Entry, error) {
	return c.UpdateEntry(ctx, raceID, entryID, race.Finish)
}

func (c *Client) UndoFinish(ctx context.Context, raceID, entryID uuid.UUID) (*race.Entry, error) {
	return c.UpdateEntry(ctx, raceID, entryID, race.UndoFinish)
}

func (c *Client) Forfeit(ctx context.Context, raceID, entryID uuid.UUID) (*race.Entry, error) {
	return c.UpdateEntry(ctx, raceID, entryID, race.Forfeit)
}

func (c *Client) UndoForfeit(ctx context.Context, raceID, entryID uuid.UUID) (*race.Entry, error) {
	return c.UpdateEntry(ctx, raceID, entryID, race.UndoForfeit)
}

// UpdateEntry applies one lifecycle action to an entry and returns the
// entry as the server stored it. The request is sent whatever the entry's
// current status; the server decides whether the transition is allowed.
func (c *Client) UpdateEntry(ctx context.Context, raceID, entryID uuid.UUID, action race.EntryAction) (*race.Entry, error) {
	body, err := action.Body()
	if err != nil {
		return nil, err
	}

	var out struct {
		Entry race.Entry `json:"entry"`
	}
	endpoint := c.endpoint(racesPath, raceID.String(), "entries", entryID.String())
	if err := c.do(ctx, http.MethodPatch, endpoint, body, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	return &out.Entry, nil
}

// Chat returns the chat history of a race
func (c *Client) Chat(ctx context.Context, raceID uuid.UUID) ([]race.ChatMessage, error) {
	var out struct {
		ChatMessages []race.ChatMessage `json:"chat_messages"`
	}
	if err := c.do(ctx, http.MethodGet, c.endpoint(racesPath, raceID.String(), "chat"), nil, &out); err != nil {
		return nil, err
	}
	return out.ChatMessages, nil
}

func (c *Client) SendChatMessage(ctx context.Context, raceID uuid.UUID, message string) (*race.ChatMessage, error) {
	body, err := race.ChatMessageBody(message)
	if err != nil {
		return nil, err
	}

	var out struct {
		ChatMessage race.ChatMessage `json:"chat_message"`
	}
	if err := c.do(ctx, http.MethodPost, c.endpoint(racesPath, raceID.String(), "chat"), body, &out); err != nil {
		return nil, err
	}
	return &out.ChatMessage, nil
}
