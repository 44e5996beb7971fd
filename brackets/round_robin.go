package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/bracket-engine/models"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() BracketGenerator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) GetName() string {
	return "RoundRobin"
}

// GenerateBracket pairs every two participants exactly once, grouped into
// rounds with the circle method: one participant stays fixed and the rest
// rotate, so nobody plays twice in a round. For odd counts a rotating dummy
// gives one participant each round off; those byes create no nodes.
func (g *RoundRobinGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*models.Bracket, error) {
	bracket := newBracket(models.FormatRoundRobin, params)

	ring := make([]int, 0, len(params.Participants)+1)
	for _, p := range params.Participants {
		ring = append(ring, p.ID)
	}
	if len(ring)%2 == 1 {
		ring = append(ring, 0) // dummy opponent marks the round's bye
	}

	n := len(ring)
	for round := 1; round <= n-1; round++ {
		match := 1
		for i := 0; i < n/2; i++ {
			id1, id2 := ring[i], ring[n-1-i]
			if id1 == 0 || id2 == 0 {
				continue
			}
			bracket.AddNode(&models.BracketNode{
				UID:            fmt.Sprintf("R%dM%d", round, match),
				Round:          round,
				OrderInRound:   match,
				Branch:         models.BranchMain,
				Participant1ID: intPtr(id1),
				Participant2ID: intPtr(id2),
			})
			match++
		}
		// Rotate everyone but the first position.
		ring = append(ring[:1], append([]int{ring[n-1]}, ring[1:n-1]...)...)
	}

	return bracket, nil
}
