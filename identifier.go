package racecable

import (
	"fmt"

	"github.com/google/uuid"
)

// Channel names the logical server-side channel a subscription targets.
type Channel string

// Identifier selects one logical subscription on the multiplexed
// connection: either the global race feed or a single race.
//
// RaceID and JoinToken are only meaningful for ChannelRace.
type Identifier struct {
	Channel   Channel
	RaceID    uuid.UUID
	JoinToken string
}

// GlobalRaceChannel returns the identifier of the feed announcing every
// public race.
func GlobalRaceChannel() Identifier {
	return Identifier{Channel: ChannelGlobalRace}
}

// RaceChannel returns the identifier of a single race. The join token is
// required by the server for invite-only and secret races; public races
// accept an empty token.
func RaceChannel(raceID uuid.UUID, joinToken string) Identifier {
	return Identifier{Channel: ChannelRace, RaceID: raceID, JoinToken: joinToken}
}

// IsGlobal reports whether the identifier targets the global race feed.
func (i Identifier) IsGlobal() bool {
	return i.Channel == ChannelGlobalRace
}

func (i Identifier) String() string {
	if i.Channel == ChannelRace {
		return fmt.Sprintf("%s(%s)", i.Channel, i.RaceID)
	}
	return string(i.Channel)
}
