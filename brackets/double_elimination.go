package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/bracket-engine/models"
)

const (
	GrandFinalUID      = "GF"
	GrandFinalResetUID = "GF2"
)

type DoubleEliminationGenerator struct {
}

func NewDoubleEliminationGenerator() BracketGenerator {
	return &DoubleEliminationGenerator{}
}

func (g *DoubleEliminationGenerator) GetName() string {
	return "DoubleElimination"
}

// GenerateBracket builds the main bracket exactly like single elimination,
// then a losers bracket with standard drop-in scheduling: main round 1
// losers pair up in losers round 1, main round r>1 losers enter losers
// round 2(r-1) against the survivors of the previous losers round. The
// losers-bracket winner meets the undefeated main-bracket winner in the
// grand final; a reset node is built eagerly and is voided unless the
// losers-side representative wins game one.
func (g *DoubleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*models.Bracket, error) {
	bracket := newBracket(models.FormatDoubleElimination, params)
	rounds := buildMainBracket(bracket, params.Participants)
	size := 1 << uint(rounds)

	mainFinal := bracket.Node(mainUID(rounds, 1))
	mainFinal.WinnerToUID = strPtr(GrandFinalUID)
	mainFinal.WinnerToSlot = intPtr(1)

	gf := &models.BracketNode{
		UID:            GrandFinalUID,
		Round:          rounds + 1,
		OrderInRound:   1,
		Branch:         models.BranchMain,
		GrandFinal:     true,
		SourceNode1UID: strPtr(mainFinal.UID),
	}
	gf2 := &models.BracketNode{
		UID:             GrandFinalResetUID,
		Round:           rounds + 2,
		OrderInRound:    1,
		Branch:          models.BranchMain,
		GrandFinalReset: true,
		SourceNode1UID:  strPtr(GrandFinalUID),
		SourceNode2UID:  strPtr(GrandFinalUID),
		Source2IsLoser:  true,
	}

	if rounds == 1 {
		// Two participants: no losers rounds, the final's loser drops
		// straight into the grand final.
		mainFinal.LoserToUID = strPtr(GrandFinalUID)
		mainFinal.LoserToSlot = intPtr(2)
		gf.SourceNode2UID = strPtr(mainFinal.UID)
		gf.Source2IsLoser = true
		bracket.AddNode(gf)
		bracket.AddNode(gf2)
		return bracket, nil
	}

	lbRounds := 2 * (rounds - 1)
	for lr := 1; lr <= lbRounds; lr++ {
		matches := size >> uint((lr+1)/2+1)
		for m := 1; m <= matches; m++ {
			node := &models.BracketNode{
				UID:          losersUID(lr, m),
				Round:        lr,
				OrderInRound: m,
				Branch:       models.BranchLosers,
			}
			switch {
			case lr == 1:
				node.SourceNode1UID = strPtr(mainUID(1, 2*m-1))
				node.Source1IsLoser = true
				node.SourceNode2UID = strPtr(mainUID(1, 2*m))
				node.Source2IsLoser = true
			case lr%2 == 0:
				node.SourceNode1UID = strPtr(losersUID(lr-1, m))
				node.SourceNode2UID = strPtr(mainUID(lr/2+1, m))
				node.Source2IsLoser = true
			default:
				node.SourceNode1UID = strPtr(losersUID(lr-1, 2*m-1))
				node.SourceNode2UID = strPtr(losersUID(lr-1, 2*m))
			}

			if lr == lbRounds {
				node.WinnerToUID = strPtr(GrandFinalUID)
				node.WinnerToSlot = intPtr(2)
			} else if lr%2 == 0 {
				node.WinnerToUID = strPtr(losersUID(lr+1, (m+1)/2))
				node.WinnerToSlot = intPtr(2 - m%2)
			} else {
				node.WinnerToUID = strPtr(losersUID(lr+1, m))
				node.WinnerToSlot = intPtr(1)
			}
			bracket.AddNode(node)
		}
	}

	// Route every main-bracket loser to its drop-in slot.
	for m := 1; m <= size/2; m++ {
		n := bracket.Node(mainUID(1, m))
		n.LoserToUID = strPtr(losersUID(1, (m+1)/2))
		n.LoserToSlot = intPtr(2 - m%2)
	}
	for r := 2; r <= rounds; r++ {
		for m := 1; m <= size>>uint(r); m++ {
			n := bracket.Node(mainUID(r, m))
			n.LoserToUID = strPtr(losersUID(2*(r-1), m))
			n.LoserToSlot = intPtr(2)
		}
	}

	gf.SourceNode2UID = strPtr(losersUID(lbRounds, 1))
	bracket.AddNode(gf)
	bracket.AddNode(gf2)

	propagateLosersByes(bracket, lbRounds)
	return bracket, nil
}

// propagateLosersByes marks losers-bracket slots that will never receive a
// participant because the feeding main-round-one node was a bye, then
// cascades: a losers node with two dead slots is a phantom that passes the
// bye on to its own destination.
func propagateLosersByes(bracket *models.Bracket, lbRounds int) {
	for _, n := range bracket.NodesInRound(models.BranchLosers, 1) {
		if src := bracket.Node(*n.SourceNode1UID); src.IsBye {
			n.Slot1Bye = true
		}
		if src := bracket.Node(*n.SourceNode2UID); src.IsBye {
			n.Slot2Bye = true
		}
	}

	for lr := 1; lr <= lbRounds; lr++ {
		for _, n := range bracket.NodesInRound(models.BranchLosers, lr) {
			if n.Slot1Bye && n.Slot2Bye {
				n.IsBye = true
				if n.WinnerToUID != nil {
					target := bracket.Node(*n.WinnerToUID)
					if *n.WinnerToSlot == 1 {
						target.Slot1Bye = true
					} else {
						target.Slot2Bye = true
					}
				}
			}
		}
	}
}

func losersUID(round, match int) string {
	return fmt.Sprintf("LR%dM%d", round, match)
}
