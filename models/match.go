package models

import "time"

// ForfeitScore is the sentinel submitted as one side's score when that side
// did not show up. The forfeiting side loses and takes a small capped rating
// penalty; the opponent's rating is left unchanged.
const ForfeitScore = -1

// MatchResult is immutable once recorded. Corrections replace the node's
// result wholesale after the previous outcome has been reversed.
type MatchResult struct {
	NodeUID    string    `json:"node_uid"`
	Score1     int       `json:"score1"`
	Score2     int       `json:"score2"`
	WinnerID   *int      `json:"winner_id,omitempty"` // nil means draw
	Forfeit    bool      `json:"forfeit,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Draw reports whether the result ended without a winner. Only round-robin
// and swiss formats permit this.
func (r *MatchResult) Draw() bool {
	return r.WinnerID == nil
}
