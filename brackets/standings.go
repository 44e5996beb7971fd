package brackets

import (
	"sort"

	"github.com/Dosada05/bracket-engine/models"
)

const (
	pointsPerWin  = 3
	pointsPerDraw = 1
)

// Standings computes the standings table from recorded results: 3/1/0
// points, ordered by points, then rating, then registration time, then id —
// the same tie-break the rating seeding policy uses. The computation is pure,
// so calling it twice without an intervening result yields identical output.
// Swiss byes count as full-point wins; elimination byes are not played
// matches and count nothing.
func Standings(bracket *models.Bracket) []models.StandingEntry {
	entries := make([]models.StandingEntry, 0, len(bracket.Participants))
	index := make(map[int]*models.StandingEntry, len(bracket.Participants))
	for _, p := range bracket.Participants {
		entries = append(entries, models.StandingEntry{
			ParticipantID: p.ID,
			DisplayName:   p.DisplayName,
			Rating:        p.Rating,
		})
		index[p.ID] = &entries[len(entries)-1]
	}

	for _, n := range bracket.Nodes {
		if n.Voided {
			continue
		}
		if n.IsBye {
			if bracket.Format == models.FormatSwiss && n.ByeParticipantID != nil {
				if e := index[*n.ByeParticipantID]; e != nil {
					e.Played++
					e.Wins++
					e.Points += pointsPerWin
				}
			}
			continue
		}
		if n.Result == nil || n.Participant1ID == nil || n.Participant2ID == nil {
			continue
		}

		e1, e2 := index[*n.Participant1ID], index[*n.Participant2ID]
		if e1 == nil || e2 == nil {
			continue
		}
		s1, s2 := clampScore(n.Result.Score1), clampScore(n.Result.Score2)
		e1.Played++
		e2.Played++
		e1.ScoreFor += s1
		e1.ScoreAgainst += s2
		e2.ScoreFor += s2
		e2.ScoreAgainst += s1

		switch {
		case n.Result.Draw():
			e1.Draws++
			e2.Draws++
			e1.Points += pointsPerDraw
			e2.Points += pointsPerDraw
		case *n.Result.WinnerID == *n.Participant1ID:
			e1.Wins++
			e1.Points += pointsPerWin
			e2.Losses++
		default:
			e2.Wins++
			e2.Points += pointsPerWin
			e1.Losses++
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		if entries[i].Rating != entries[j].Rating {
			return entries[i].Rating > entries[j].Rating
		}
		pi := bracket.Participant(entries[i].ParticipantID)
		pj := bracket.Participant(entries[j].ParticipantID)
		if pi != nil && pj != nil && !pi.RegisteredAt.Equal(pj.RegisteredAt) {
			return pi.RegisteredAt.Before(pj.RegisteredAt)
		}
		return entries[i].ParticipantID < entries[j].ParticipantID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// clampScore maps the forfeit sentinel to zero for score tallies.
func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	return s
}
