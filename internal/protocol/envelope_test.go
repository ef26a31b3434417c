package protocol

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/luciancaetano/racecable"
)

const testRaceJSON = `{
	"id": "11111111-1111-1111-1111-111111111111",
	"path": "/races/abcd",
	"game": null,
	"category": null,
	"visibility": "public",
	"join_token": null,
	"notes": "no glitches",
	"owner": {"id": "7", "name": "cryze92", "created_at": "2018-05-05T12:00:00Z", "updated_at": "2018-05-05T12:00:00Z"},
	"entries": [],
	"chat_messages": [],
	"attachments": [],
	"started_at": null,
	"created_at": "2020-02-02T20:00:00Z",
	"updated_at": "2020-02-02T20:00:00Z"
}`

const testChatJSON = `{
	"body": "glhf",
	"from_entrant": true,
	"created_at": "2020-02-02T20:02:00Z",
	"updated_at": "2020-02-02T20:02:00Z",
	"user": {"id": "7", "name": "cryze92", "created_at": "2018-05-05T12:00:00Z", "updated_at": "2018-05-05T12:00:00Z"}
}`

func raceID() racecable.Identifier {
	return racecable.RaceChannel(uuid.MustParse(testRaceID), "abc")
}

// targetedFrame builds an envelope with the identifier double encoded
func targetedFrame(t *testing.T, id racecable.Identifier, message string) []byte {
	t.Helper()

	encoded, err := EncodeIdentifier(id)
	if err != nil {
		t.Fatalf("EncodeIdentifier() error = %v", err)
	}
	frame, err := json.Marshal(map[string]any{
		"identifier": encoded,
		"message":    json.RawMessage(message),
	})
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	return frame
}

// TestDecodeEnvelopeShapes tests which shape each frame matches, including
// frames that fit several shapes
func TestDecodeEnvelopeShapes(t *testing.T) {
	t.Parallel()

	identifier := `"{\"channel\":\"Api::V4::GlobalRaceChannel\"}"`

	tests := []struct {
		name        string
		frame       string
		wantKind    FrameKind
		wantControl ControlKind
		wantTag     string
		wantErr     bool
	}{
		{
			name:        "ping",
			frame:       `{"type":"ping","message":1700000000}`,
			wantKind:    FrameControl,
			wantControl: ControlPing,
		},
		{
			name:        "welcome",
			frame:       `{"type":"welcome"}`,
			wantKind:    FrameControl,
			wantControl: ControlWelcome,
		},
		{
			name:        "confirm subscription",
			frame:       `{"type":"confirm_subscription","identifier":` + identifier + `}`,
			wantKind:    FrameControl,
			wantControl: ControlConfirmSubscription,
		},
		{
			name:        "control tag wins over targeted shape",
			frame:       `{"type":"ping","identifier":` + identifier + `,"message":{"type":"race_updated"}}`,
			wantKind:    FrameControl,
			wantControl: ControlPing,
		},
		{
			name:     "targeted",
			frame:    `{"identifier":` + identifier + `,"message":{"type":"race_updated","data":{}}}`,
			wantKind: FrameTargeted,
			wantTag:  "race_updated",
		},
		{
			name:     "targeted with unrelated top-level type",
			frame:    `{"type":"broadcast","identifier":` + identifier + `,"message":{"type":"race_ended"}}`,
			wantKind: FrameTargeted,
			wantTag:  "race_ended",
		},
		{
			name:     "unknown message tag",
			frame:    `{"identifier":` + identifier + `,"message":{"type":"race_renamed","data":{}}}`,
			wantKind: FrameUnknownTargeted,
		},
		{
			name:     "non-string message tag",
			frame:    `{"identifier":` + identifier + `,"message":{"type":42}}`,
			wantKind: FrameUnknownTargeted,
		},
		{
			name:    "confirm subscription without identifier",
			frame:   `{"type":"confirm_subscription"}`,
			wantErr: true,
		},
		{
			name:    "unknown control tag",
			frame:   `{"type":"disconnect","reason":"unauthorized"}`,
			wantErr: true,
		},
		{
			name:    "identifier as object",
			frame:   `{"identifier":{"channel":"Api::V4::GlobalRaceChannel"},"message":{"type":"race_updated"}}`,
			wantErr: true,
		},
		{
			name:    "null identifier",
			frame:   `{"identifier":null,"message":{"type":"race_renamed"}}`,
			wantErr: true,
		},
		{
			name:    "null identifier on confirm subscription",
			frame:   `{"type":"confirm_subscription","identifier":null}`,
			wantErr: true,
		},
		{
			name:    "message without tag",
			frame:   `{"identifier":` + identifier + `,"message":{"data":{}}}`,
			wantErr: true,
		},
		{
			name:    "message not an object",
			frame:   `{"identifier":` + identifier + `,"message":"race_updated"}`,
			wantErr: true,
		},
		{
			name:    "missing message",
			frame:   `{"identifier":` + identifier + `}`,
			wantErr: true,
		},
		{
			name:    "empty object",
			frame:   `{}`,
			wantErr: true,
		},
		{
			name:    "array",
			frame:   `[{"type":"ping"}]`,
			wantErr: true,
		},
		{
			name:    "not json",
			frame:   `ping`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := DecodeEnvelope([]byte(tt.frame))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeEnvelope() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if got.Control != tt.wantControl {
				t.Errorf("Control = %v, want %v", got.Control, tt.wantControl)
			}
			if got.Tag != tt.wantTag {
				t.Errorf("Tag = %q, want %q", got.Tag, tt.wantTag)
			}
		})
	}
}

// TestDecodeEnvelopeTooLarge tests the frame size cap
func TestDecodeEnvelopeTooLarge(t *testing.T) {
	t.Parallel()

	frame := `{"type":"ping","pad":"` + strings.Repeat("x", racecable.MaxFrameSize) + `"}`
	if _, err := DecodeEnvelope([]byte(frame)); err == nil {
		t.Error("expected error for oversized frame")
	}
}

// TestDecodeDropsIrrelevantFrames tests that ping, welcome and unknown tags
// produce nothing
func TestDecodeDropsIrrelevantFrames(t *testing.T) {
	t.Parallel()

	frames := map[string][]byte{
		"ping":                            []byte(`{"type":"ping","message":1700000000}`),
		"welcome":                         []byte(`{"type":"welcome"}`),
		"unknown tag":                     targetedFrame(t, raceID(), `{"type":"race_renamed","data":{"name":"x"}}`),
		"unknown tag with bad identifier": []byte(`{"identifier":"not json","message":{"type":"race_renamed"}}`),
	}

	for name, frame := range frames {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ev, relevant, err := Decode(frame)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if relevant {
				t.Errorf("Decode() relevant = true, event %+v", ev)
			}
		})
	}
}

// TestDecodeConfirmSubscription tests the one control frame that is delivered
func TestDecodeConfirmSubscription(t *testing.T) {
	t.Parallel()

	frame := []byte(`{"type":"confirm_subscription","identifier":"{\"channel\":\"Api::V4::RaceChannel\",\"race_id\":\"11111111-1111-1111-1111-111111111111\",\"join_token\":\"abc\"}"}`)

	ev, relevant, err := Decode(frame)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !relevant {
		t.Fatal("Decode() relevant = false")
	}
	if ev.Kind != racecable.EventConfirmSubscription {
		t.Errorf("Kind = %v, want %v", ev.Kind, racecable.EventConfirmSubscription)
	}
	if ev.Identifier != raceID() {
		t.Errorf("Identifier = %v, want %v", ev.Identifier, raceID())
	}
	if ev.Race != nil || ev.Races != nil || ev.ChatMessage != nil {
		t.Errorf("confirmation carries a payload: %+v", ev)
	}
}

// TestDecodeRaceUpdated decodes a complete targeted frame
func TestDecodeRaceUpdated(t *testing.T) {
	t.Parallel()

	frame := []byte(`{"identifier":"{\"channel\":\"Api::V4::RaceChannel\",\"race_id\":\"11111111-1111-1111-1111-111111111111\",\"join_token\":\"abc\"}","message":{"type":"race_updated","data":{"message":"ok","race":` + testRaceJSON + `}}}`)

	ev, relevant, err := Decode(frame)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !relevant {
		t.Fatal("Decode() relevant = false")
	}
	if ev.Identifier.RaceID != uuid.MustParse(testRaceID) || ev.Identifier.JoinToken != "abc" {
		t.Errorf("Identifier = %v", ev.Identifier)
	}
	if ev.Kind != racecable.EventRaceUpdated {
		t.Errorf("Kind = %v, want %v", ev.Kind, racecable.EventRaceUpdated)
	}
	if ev.Race == nil {
		t.Fatal("Race is nil")
	}
	if ev.Race.Path != "/races/abcd" {
		t.Errorf("Race.Path = %q", ev.Race.Path)
	}
	if ev.Race.Notes == nil || *ev.Race.Notes != "no glitches" {
		t.Errorf("Race.Notes = %v", ev.Race.Notes)
	}
}

// TestDecodeServerErrors tests the four terminal tags
func TestDecodeServerErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tag      string
		wantKind racecable.ServerErrorKind
		fatal    bool
	}{
		{"race_not_found", racecable.RaceNotFound, false},
		{"race_invalid_join_token", racecable.RaceInvalidJoinToken, false},
		{"fatal_error", racecable.FatalError, true},
		{"connection_error", racecable.ConnectionError, true},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			t.Parallel()

			frame := targetedFrame(t, raceID(), `{"type":"`+tt.tag+`","message":"Race not found"}`)
			_, relevant, err := Decode(frame)
			if !relevant {
				t.Error("Decode() relevant = false")
			}

			var serverErr *racecable.ServerError
			if !errors.As(err, &serverErr) {
				t.Fatalf("Decode() error = %v, want *ServerError", err)
			}
			if serverErr.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", serverErr.Kind, tt.wantKind)
			}
			if serverErr.Message != "Race not found" || serverErr.Error() != "Race not found" {
				t.Errorf("Message = %q", serverErr.Message)
			}
			if serverErr.Identifier != raceID() {
				t.Errorf("Identifier = %v", serverErr.Identifier)
			}
			if serverErr.Fatal() != tt.fatal {
				t.Errorf("Fatal() = %v, want %v", serverErr.Fatal(), tt.fatal)
			}
		})
	}
}

// TestDecodeErrors tests frames that surface as decode errors
func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	frames := map[string][]byte{
		"malformed json":             []byte(`{"type":`),
		"no known shape":             []byte(`{"hello":"world"}`),
		"bad nested identifier":      []byte(`{"identifier":"{not json","message":{"type":"race_updated","data":{"race":` + testRaceJSON + `}}}`),
		"bad confirm identifier":     []byte(`{"type":"confirm_subscription","identifier":"{\"channel\":\"Nope\"}"}`),
		"known tag without payload":  targetedFrame(t, raceID(), `{"type":"race_created","data":{"message":"ok"}}`),
		"known tag with bad payload": targetedFrame(t, raceID(), `{"type":"race_created","data":{"race":{"id":"nope"}}}`),
		"data not an object":         targetedFrame(t, raceID(), `{"type":"race_created","data":[]}`),
		"null identifier":            []byte(`{"identifier":null,"message":{"type":"race_renamed"}}`),
		"race slot for chat message": targetedFrame(t, raceID(), `{"type":"new_message","data":{"race":`+testRaceJSON+`}}`),
	}

	for name, frame := range frames {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, relevant, err := Decode(frame)
			if !relevant {
				t.Error("Decode() relevant = false")
			}
			var decodeErr *racecable.DecodeError
			if !errors.As(err, &decodeErr) {
				t.Errorf("Decode() error = %v, want *DecodeError", err)
			}
		})
	}
}

// TestDecodeIsStateless tests that decoding the same bytes twice gives the
// same result
func TestDecodeIsStateless(t *testing.T) {
	t.Parallel()

	frames := [][]byte{
		targetedFrame(t, raceID(), `{"type":"race_state","data":{"race":`+testRaceJSON+`}}`),
		targetedFrame(t, raceID(), `{"type":"fatal_error","message":"boom"}`),
		[]byte(`{"type":"ping"}`),
		[]byte(`{"broken"`),
	}

	for _, frame := range frames {
		ev1, rel1, err1 := Decode(frame)
		ev2, rel2, err2 := Decode(frame)

		if rel1 != rel2 {
			t.Errorf("relevant differs: %v vs %v", rel1, rel2)
		}
		if !reflect.DeepEqual(ev1, ev2) {
			t.Errorf("events differ: %+v vs %+v", ev1, ev2)
		}
		if (err1 == nil) != (err2 == nil) || (err1 != nil && err1.Error() != err2.Error()) {
			t.Errorf("errors differ: %v vs %v", err1, err2)
		}
	}
}
