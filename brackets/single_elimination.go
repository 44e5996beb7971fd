package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/bracket-engine/models"
)

type SingleEliminationGenerator struct {
}

func NewSingleEliminationGenerator() BracketGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*models.Bracket, error) {
	bracket := newBracket(models.FormatSingleElimination, params)
	buildMainBracket(bracket, params.Participants)
	return bracket, nil
}

// seedOrder returns the slot order of seeds 1..size for the first round so
// that seed 1 meets the lowest remaining seed in each half recursively: the
// two strongest seeds cannot meet before the final without an upset.
func seedOrder(size int) []int {
	order := []int{1}
	for len(order) < size {
		mirror := len(order)*2 + 1
		next := make([]int, 0, len(order)*2)
		for _, s := range order {
			next = append(next, s, mirror-s)
		}
		order = next
	}
	return order
}

// buildMainBracket creates the full main-branch node tree, places round-one
// participants by seed, and auto-advances byes into round two. Returns the
// number of rounds.
func buildMainBracket(bracket *models.Bracket, seeded []*models.Participant) int {
	n := len(seeded)
	size, rounds := nextPowerOfTwo(n)

	// All rounds of placeholder nodes first, wired by UID.
	for r := 1; r <= rounds; r++ {
		matches := size >> uint(r)
		for m := 1; m <= matches; m++ {
			node := &models.BracketNode{
				UID:          mainUID(r, m),
				Round:        r,
				OrderInRound: m,
				Branch:       models.BranchMain,
			}
			if r > 1 {
				node.SourceNode1UID = strPtr(mainUID(r-1, 2*m-1))
				node.SourceNode2UID = strPtr(mainUID(r-1, 2*m))
			}
			if r < rounds {
				node.WinnerToUID = strPtr(mainUID(r+1, (m+1)/2))
				node.WinnerToSlot = intPtr(2 - m%2)
			}
			bracket.AddNode(node)
		}
	}

	// Round one placement: seeds beyond n are byes, which lands every bye
	// against a top seed because of the pairing order.
	order := seedOrder(size)
	for m := 1; m <= size/2; m++ {
		node := bracket.Node(mainUID(1, m))
		seed1, seed2 := order[2*(m-1)], order[2*(m-1)+1]

		if seed1 <= n {
			node.Participant1ID = intPtr(seeded[seed1-1].ID)
		} else {
			node.Slot1Bye = true
		}
		if seed2 <= n {
			node.Participant2ID = intPtr(seeded[seed2-1].ID)
		} else {
			node.Slot2Bye = true
		}

		if node.Slot1Bye || node.Slot2Bye {
			advanceByeNode(bracket, node)
		}
	}
	return rounds
}

// advanceByeNode marks a node with exactly one occupied slot as a bye and
// pushes its participant straight into the downstream slot. No result is
// recorded and no rating update happens for a bye.
func advanceByeNode(bracket *models.Bracket, node *models.BracketNode) {
	var pid *int
	if node.Participant1ID != nil {
		pid = node.Participant1ID
	} else {
		pid = node.Participant2ID
	}
	node.IsBye = true
	node.ByeParticipantID = pid

	if node.WinnerToUID == nil || pid == nil {
		return
	}
	next := bracket.Node(*node.WinnerToUID)
	next.SetParticipant(*node.WinnerToSlot, pid)
}

func mainUID(round, match int) string {
	return fmt.Sprintf("R%dM%d", round, match)
}
