package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/bracket-engine/models"
)

type SwissGenerator struct{}

func NewSwissGenerator() BracketGenerator {
	return &SwissGenerator{}
}

func (g *SwissGenerator) GetName() string {
	return "Swiss"
}

// GenerateBracket builds only round one eagerly: top half of the seeds
// against the bottom half (seed 1 vs seed N/2+1 and so on). Later rounds
// depend on standings and are appended by the progression engine. For odd
// counts the lowest seed receives a full-point bye.
func (g *SwissGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*models.Bracket, error) {
	bracket := newBracket(models.FormatSwiss, params)

	n := len(params.Participants)
	if bracket.Options.SwissRounds <= 0 {
		_, r := nextPowerOfTwo(n)
		bracket.Options.SwissRounds = r
	}

	ids := make([]int, n)
	for i, p := range params.Participants {
		ids[i] = p.ID
	}

	playing := ids
	var byeID *int
	if n%2 == 1 {
		byeID = intPtr(ids[n-1])
		playing = ids[:n-1]
	}

	half := len(playing) / 2
	for i := 0; i < half; i++ {
		bracket.AddNode(&models.BracketNode{
			UID:            fmt.Sprintf("R1M%d", i+1),
			Round:          1,
			OrderInRound:   i + 1,
			Branch:         models.BranchMain,
			Participant1ID: intPtr(playing[i]),
			Participant2ID: intPtr(playing[i+half]),
		})
	}
	if byeID != nil {
		bracket.AddNode(&models.BracketNode{
			UID:              fmt.Sprintf("R1M%d", half+1),
			Round:            1,
			OrderInRound:     half + 1,
			Branch:           models.BranchMain,
			IsBye:            true,
			ByeParticipantID: byeID,
		})
	}
	return bracket, nil
}

// buildSwissRound appends the nodes of the next swiss round based on current
// standings: sort by accumulated points (ties by rating, then registration,
// then id — the seeding tie-break), give the bye to the lowest-ranked
// participant without one, then pair greedily from the top while avoiding
// rematches via backtracking. If no rematch-free pairing exists the round is
// paired in standings order anyway.
func buildSwissRound(bracket *models.Bracket, round int) []*models.BracketNode {
	order := make([]int, 0, len(bracket.Participants))
	for _, entry := range Standings(bracket) {
		p := bracket.Participant(entry.ParticipantID)
		if p != nil && p.Status == models.ParticipantActive {
			order = append(order, p.ID)
		}
	}

	played := make(map[[2]int]bool)
	hadBye := make(map[int]bool)
	for _, n := range bracket.Nodes {
		if n.IsBye && n.ByeParticipantID != nil {
			hadBye[*n.ByeParticipantID] = true
			continue
		}
		if n.Participant1ID != nil && n.Participant2ID != nil {
			played[pairKey(*n.Participant1ID, *n.Participant2ID)] = true
		}
	}

	var byeID *int
	if len(order)%2 == 1 {
		idx := len(order) - 1
		for i := len(order) - 1; i >= 0; i-- {
			if !hadBye[order[i]] {
				idx = i
				break
			}
		}
		byeID = intPtr(order[idx])
		order = append(order[:idx:idx], order[idx+1:]...)
	}

	pairs, ok := pairAvoidingRematches(order, played)
	if !ok {
		pairs = pairs[:0]
		for i := 0; i+1 < len(order); i += 2 {
			pairs = append(pairs, [2]int{order[i], order[i+1]})
		}
	}

	var added []*models.BracketNode
	for i, pair := range pairs {
		node := &models.BracketNode{
			UID:            fmt.Sprintf("R%dM%d", round, i+1),
			Round:          round,
			OrderInRound:   i + 1,
			Branch:         models.BranchMain,
			Participant1ID: intPtr(pair[0]),
			Participant2ID: intPtr(pair[1]),
		}
		bracket.AddNode(node)
		added = append(added, node)
	}
	if byeID != nil {
		node := &models.BracketNode{
			UID:              fmt.Sprintf("R%dM%d", round, len(pairs)+1),
			Round:            round,
			OrderInRound:     len(pairs) + 1,
			Branch:           models.BranchMain,
			IsBye:            true,
			ByeParticipantID: byeID,
		}
		bracket.AddNode(node)
		added = append(added, node)
	}
	return added
}

// pairAvoidingRematches pairs the ordered list top-down, backtracking when a
// choice leaves someone below with only rematches. Greedy with backtracking
// is sufficient at realistic tournament sizes; globally optimal swiss
// pairing is deliberately out of scope.
func pairAvoidingRematches(ordered []int, played map[[2]int]bool) ([][2]int, bool) {
	if len(ordered) == 0 {
		return nil, true
	}
	first := ordered[0]
	for i := 1; i < len(ordered); i++ {
		opponent := ordered[i]
		if played[pairKey(first, opponent)] {
			continue
		}
		rest := make([]int, 0, len(ordered)-2)
		rest = append(rest, ordered[1:i]...)
		rest = append(rest, ordered[i+1:]...)
		if tail, ok := pairAvoidingRematches(rest, played); ok {
			return append([][2]int{{first, opponent}}, tail...), true
		}
	}
	return nil, false
}

func pairKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}
