package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/bracket-engine/models"
)

// GenerateBracketParams carries everything a generator needs. Participants
// must already be in seed order (seed 1 first).
type GenerateBracketParams struct {
	TournamentID int
	Participants []*models.Participant
	Options      models.BracketOptions
}

// BracketGenerator constructs the initial node arena for one format.
type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) (*models.Bracket, error)

	GetName() string
}

// formatMinimums holds the minimum participant count per format.
var formatMinimums = map[models.BracketFormat]int{
	models.FormatSingleElimination: 2,
	models.FormatDoubleElimination: 2,
	models.FormatRoundRobin:        3,
	models.FormatSwiss:             3,
}

// Build validates the participant count, dispatches to the format's
// generator, and leaves the returned bracket in progress with all build-time
// bye auto-advances applied.
func Build(ctx context.Context, format models.BracketFormat, params GenerateBracketParams) (*models.Bracket, error) {
	min, ok := formatMinimums[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if len(params.Participants) < min {
		return nil, fmt.Errorf("%w: %s requires at least %d, got %d",
			ErrInsufficientParticipants, format, min, len(params.Participants))
	}

	var gen BracketGenerator
	switch format {
	case models.FormatSingleElimination:
		gen = NewSingleEliminationGenerator()
	case models.FormatDoubleElimination:
		gen = NewDoubleEliminationGenerator()
	case models.FormatRoundRobin:
		gen = NewRoundRobinGenerator()
	case models.FormatSwiss:
		gen = NewSwissGenerator()
	}

	bracket, err := gen.GenerateBracket(ctx, params)
	if err != nil {
		return nil, err
	}
	bracket.Status = models.BracketInProgress
	bracket.CurrentRound = 1
	return bracket, nil
}

// newBracket initializes the arena shell shared by all generators and stamps
// seed numbers from the input order.
func newBracket(format models.BracketFormat, params GenerateBracketParams) *models.Bracket {
	participants := make([]*models.Participant, len(params.Participants))
	for i, p := range params.Participants {
		seed := i + 1
		p.Seed = &seed
		p.Status = models.ParticipantActive
		participants[i] = p
	}
	b := &models.Bracket{
		ID:           fmt.Sprintf("t%d-%s", params.TournamentID, formatSlug(format)),
		TournamentID: params.TournamentID,
		Format:       format,
		Options:      params.Options,
		Status:       models.BracketBuilding,
		Participants: participants,
	}
	b.Reindex()
	return b
}

func formatSlug(format models.BracketFormat) string {
	switch format {
	case models.FormatSingleElimination:
		return "se"
	case models.FormatDoubleElimination:
		return "de"
	case models.FormatRoundRobin:
		return "rr"
	case models.FormatSwiss:
		return "swiss"
	}
	return "bracket"
}

// nextPowerOfTwo returns the smallest power of two >= n together with its
// exponent, which is the number of main-bracket rounds.
func nextPowerOfTwo(n int) (size, rounds int) {
	size = 1
	for size < n {
		size <<= 1
		rounds++
	}
	return size, rounds
}

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}
