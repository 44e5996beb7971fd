// Package seeding orders a participant list into seed positions 1..N under a
// configurable policy. It reads ratings but never changes them.
package seeding

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/Dosada05/bracket-engine/models"
)

// Policy selects how seed positions are assigned.
type Policy string

const (
	// PolicyRandom shuffles participants with the injected random source.
	PolicyRandom Policy = "random"
	// PolicyRating sorts by rating descending; ties break by registration
	// time ascending, then by id.
	PolicyRating Policy = "rating"
	// PolicyManual applies a caller-supplied permutation of participant ids.
	PolicyManual Policy = "manual"
)

var (
	ErrInvalidSeeding = errors.New("invalid seeding")
	ErrUnknownPolicy  = errors.New("unknown seeding policy")
)

// Options carries policy-specific inputs.
type Options struct {
	// Rand is the random source for PolicyRandom. It must be provided so
	// that seeding is reproducible for tests and audit replays.
	Rand *rand.Rand
	// ManualOrder lists participant ids in seed order for PolicyManual.
	ManualOrder []int
}

// Seed returns a new slice in seed order and stamps Seed numbers 1..N onto
// the participants. The input slice is not reordered.
func Seed(participants []*models.Participant, policy Policy, opts Options) ([]*models.Participant, error) {
	if len(participants) == 0 {
		return nil, fmt.Errorf("%w: no participants to seed", ErrInvalidSeeding)
	}

	ordered := make([]*models.Participant, len(participants))
	copy(ordered, participants)

	switch policy {
	case PolicyRating:
		sort.SliceStable(ordered, func(i, j int) bool {
			if ordered[i].Rating != ordered[j].Rating {
				return ordered[i].Rating > ordered[j].Rating
			}
			if !ordered[i].RegisteredAt.Equal(ordered[j].RegisteredAt) {
				return ordered[i].RegisteredAt.Before(ordered[j].RegisteredAt)
			}
			return ordered[i].ID < ordered[j].ID
		})

	case PolicyRandom:
		if opts.Rand == nil {
			return nil, fmt.Errorf("%w: random policy requires a random source", ErrInvalidSeeding)
		}
		opts.Rand.Shuffle(len(ordered), func(i, j int) {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		})

	case PolicyManual:
		byID := make(map[int]*models.Participant, len(participants))
		for _, p := range participants {
			byID[p.ID] = p
		}
		if len(opts.ManualOrder) != len(participants) {
			return nil, fmt.Errorf("%w: manual order has %d entries for %d participants",
				ErrInvalidSeeding, len(opts.ManualOrder), len(participants))
		}
		seen := make(map[int]bool, len(opts.ManualOrder))
		for i, id := range opts.ManualOrder {
			p, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("%w: participant %d is not registered", ErrInvalidSeeding, id)
			}
			if seen[id] {
				return nil, fmt.Errorf("%w: participant %d listed twice", ErrInvalidSeeding, id)
			}
			seen[id] = true
			ordered[i] = p
		}

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, policy)
	}

	for i, p := range ordered {
		seed := i + 1
		p.Seed = &seed
	}
	return ordered, nil
}
