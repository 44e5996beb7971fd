package models

// StandingEntry is one row of a tournament standings table. Points follow the
// platform convention: 3 per win, 1 per draw, 0 per loss. Byes count as wins
// for standings purposes but never move ratings.
type StandingEntry struct {
	Rank          int    `json:"rank"`
	ParticipantID int    `json:"participant_id"`
	DisplayName   string `json:"display_name"`
	Rating        int    `json:"rating"`
	Played        int    `json:"played"`
	Wins          int    `json:"wins"`
	Draws         int    `json:"draws"`
	Losses        int    `json:"losses"`
	ScoreFor      int    `json:"score_for"`
	ScoreAgainst  int    `json:"score_against"`
	Points        int    `json:"points"`
}
