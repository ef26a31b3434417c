package race

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Visibility controls who can see and join a Race.
type Visibility string

const (
	Public     Visibility = "public"
	InviteOnly Visibility = "invite_only"
	Secret     Visibility = "secret"
)

// Valid reports whether v is one of the known visibilities.
func (v Visibility) Valid() bool {
	switch v {
	case Public, InviteOnly, Secret:
		return true
	default:
		return false
	}
}

func (v *Visibility) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if !Visibility(s).Valid() {
		return fmt.Errorf("unknown visibility %q", s)
	}
	*v = Visibility(s)
	return nil
}

// Race is a competition between multiple runners. Values are snapshots
// issued by the server.
type Race struct {
	ID         uuid.UUID  `json:"id"`
	Path       string     `json:"path"`
	Game       *Game      `json:"game"`
	Category   *Category  `json:"category"`
	Visibility Visibility `json:"visibility"`
	// JoinToken is only returned to the creator, in the creation response.
	JoinToken    *string       `json:"join_token"`
	Notes        *string       `json:"notes"`
	Owner        Runner        `json:"owner"`
	Entries      []Entry       `json:"entries"`
	ChatMessages []ChatMessage `json:"chat_messages"`
	Attachments  []Attachment  `json:"attachments"`
	StartedAt    *time.Time    `json:"started_at"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Entry is one participant's slot in a Race.
//
// ReadiedAt, FinishedAt and ForfeitedAt are set and cleared independently
// by the server. Any combination may be reported.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	// Creator differs from Runner only for ghost entries.
	Creator     Runner     `json:"creator"`
	Runner      Runner     `json:"runner"`
	Ghost       bool       `json:"ghost"`
	ReadiedAt   *time.Time `json:"readied_at"`
	FinishedAt  *time.Time `json:"finished_at"`
	ForfeitedAt *time.Time `json:"forfeited_at"`
	// Run is the linked run, if any. A linked run lets the race page show
	// realtime splits.
	Run       *Run      `json:"run"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ChatMessage struct {
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
	FromEntrant bool      `json:"from_entrant"`
	UpdatedAt   time.Time `json:"updated_at"`
	User        Runner    `json:"user"`
}

// Attachment is a file attached to a Race. Attachments never change once
// created.
type Attachment struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Filename  string    `json:"filename"`
	URL       string    `json:"url"`
}

type Runner struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	DisplayName *string   `json:"display_name"`
	Avatar      *string   `json:"avatar"`
	TwitchID    *string   `json:"twitch_id"`
	TwitchName  *string   `json:"twitch_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Game struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Shortname  *string    `json:"shortname"`
	Categories []Category `json:"categories"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Run struct {
	ID                  *string      `json:"id"`
	SrdcID              *string      `json:"srdc_id"`
	Attempts            *uint32      `json:"attempts"`
	Game                Game         `json:"game"`
	Category            Category     `json:"category"`
	Program             string       `json:"program"`
	DefaultTiming       string       `json:"default_timing"`
	ImageURL            *string      `json:"image_url"`
	VideoURL            *string      `json:"video_url"`
	RealtimeDurationMS  *float64     `json:"realtime_duration_ms"`
	RealtimeSumOfBestMS *float64     `json:"realtime_sum_of_best_ms"`
	GametimeDurationMS  *float64     `json:"gametime_duration_ms"`
	GametimeSumOfBestMS *float64     `json:"gametime_sum_of_best_ms"`
	Runners             []Runner     `json:"runners"`
	Segments            []Segment    `json:"segments"`
	Histories           []RunHistory `json:"histories"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

type RunHistory struct {
	AttemptNumber      uint32  `json:"attempt_number"`
	RealtimeDurationMS float64 `json:"realtime_duration_ms"`
	GametimeDurationMS float64 `json:"gametime_duration_ms"`
}

type Segment struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	SegmentNumber uint32    `json:"segment_number"`

	RealtimeStartMS            float64 `json:"realtime_start_ms"`
	RealtimeEndMS              float64 `json:"realtime_end_ms"`
	RealtimeDurationMS         float64 `json:"realtime_duration_ms"`
	RealtimeShortestDurationMS float64 `json:"realtime_shortest_duration_ms"`
	RealtimeGold               bool    `json:"realtime_gold"`
	RealtimeReduced            bool    `json:"realtime_reduced"`
	RealtimeSkipped            bool    `json:"realtime_skipped"`

	GametimeStartMS            *float64 `json:"gametime_start_ms"`
	GametimeEndMS              *float64 `json:"gametime_end_ms"`
	GametimeDurationMS         *float64 `json:"gametime_duration_ms"`
	GametimeShortestDurationMS *float64 `json:"gametime_shortest_duration_ms"`
	GametimeGold               bool     `json:"gametime_gold"`
	GametimeReduced            bool     `json:"gametime_reduced"`
	GametimeSkipped            bool     `json:"gametime_skipped"`

	Histories []SegmentHistory `json:"histories"`
}

type SegmentHistory struct {
	AttemptNumber      uint32  `json:"attempt_number"`
	RealtimeDurationMS float64 `json:"realtime_duration_ms"`
	GametimeDurationMS float64 `json:"gametime_duration_ms"`
}

// FindEntry returns the entry with the given id, if the race has one.
func (r *Race) FindEntry(id uuid.UUID) (*Entry, bool) {
	for i := range r.Entries {
		if r.Entries[i].ID == id {
			return &r.Entries[i], true
		}
	}
	return nil, false
}

// Started reports whether the server has recorded a start time.
func (r *Race) Started() bool {
	return r.StartedAt != nil
}
