package models

import "time"

// ParticipantStatus represents elimination statuses, matching the ENUM used by the platform.
type ParticipantStatus string

const (
	ParticipantActive       ParticipantStatus = "active"
	ParticipantEliminated   ParticipantStatus = "eliminated"
	ParticipantWinner       ParticipantStatus = "winner"
	ParticipantDisqualified ParticipantStatus = "disqualified"
	ParticipantWithdrawn    ParticipantStatus = "withdrawn"
)

// DefaultRating is assigned to participants who have never played a rated match.
const DefaultRating = 1200

// Participant is owned by the tournament for the duration of the event.
// Rating and MatchesPlayed persist across tournaments and are owned by the
// platform's user/team records; the engine reads and updates them in place
// and the caller persists them.
type Participant struct {
	ID            int               `json:"id"`
	DisplayName   string            `json:"display_name"`
	Rating        int               `json:"rating"`
	MatchesPlayed int               `json:"matches_played"`
	Seed          *int              `json:"seed,omitempty"`
	Status        ParticipantStatus `json:"status"`
	RegisteredAt  time.Time         `json:"registered_at"`
}
