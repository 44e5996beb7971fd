package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/bracket-engine/brackets"
	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/realtime"
	"github.com/Dosada05/bracket-engine/repositories"
	"github.com/Dosada05/bracket-engine/seeding"
	"github.com/Dosada05/bracket-engine/storage"
)

// EventPublisher receives progression events for live subscribers. The
// realtime hub satisfies it; a nil publisher disables publication.
type EventPublisher interface {
	Publish(bracketID, eventType string, payload interface{})
}

type StartTournamentParams struct {
	TournamentID  int
	Format        models.BracketFormat
	Participants  []*models.Participant
	SeedingPolicy seeding.Policy
	SeedingOpts   seeding.Options
	Options       models.BracketOptions
}

// TournamentEngine is the composition root: it seeds, builds, persists, and
// progresses brackets, serializing all mutations per bracket.
type TournamentEngine interface {
	StartTournament(ctx context.Context, params StartTournamentParams) (*models.Bracket, error)
	SubmitResult(ctx context.Context, bracketID, nodeUID string, score1, score2 int) (*brackets.ProgressionOutcome, error)
	GetBracket(ctx context.Context, bracketID string) (*models.Bracket, error)
	GetStandings(ctx context.Context, bracketID string) ([]models.StandingEntry, error)
	Restore(ctx context.Context) error
}

type tournamentEngine struct {
	repo        repositories.BracketSnapshotRepository
	archiver    storage.SnapshotArchiver
	publisher   EventPublisher
	progression *brackets.ProgressionEngine
	logger      *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	live  map[string]*models.Bracket
}

func NewTournamentEngine(
	repo repositories.BracketSnapshotRepository,
	archiver storage.SnapshotArchiver,
	publisher EventPublisher,
	progression *brackets.ProgressionEngine,
	logger *slog.Logger,
) TournamentEngine {
	return &tournamentEngine{
		repo:        repo,
		archiver:    archiver,
		publisher:   publisher,
		progression: progression,
		logger:      logger,
		locks:       make(map[string]*sync.Mutex),
		live:        make(map[string]*models.Bracket),
	}
}

// lockFor returns the mutex guarding one bracket, creating it on first use.
func (e *tournamentEngine) lockFor(bracketID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[bracketID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[bracketID] = l
	}
	return l
}

func (e *tournamentEngine) StartTournament(ctx context.Context, params StartTournamentParams) (*models.Bracket, error) {
	seeded, err := seeding.Seed(params.Participants, params.SeedingPolicy, params.SeedingOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to seed tournament %d: %w", params.TournamentID, err)
	}

	bracket, err := brackets.Build(ctx, params.Format, brackets.GenerateBracketParams{
		TournamentID: params.TournamentID,
		Participants: seeded,
		Options:      params.Options,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build %s bracket for tournament %d: %w",
			params.Format, params.TournamentID, err)
	}
	bracket.CreatedAt = time.Now().UTC()

	lock := e.lockFor(bracket.ID)
	lock.Lock()
	defer lock.Unlock()

	if err := e.repo.Create(ctx, bracket); err != nil {
		if errors.Is(err, repositories.ErrBracketConflict) {
			return nil, ErrTournamentAlreadyStarted
		}
		return nil, err
	}

	e.mu.Lock()
	e.live[bracket.ID] = bracket
	e.mu.Unlock()

	e.logger.Info("tournament started",
		slog.String("bracket_id", bracket.ID),
		slog.String("format", string(bracket.Format)),
		slog.Int("participants", len(bracket.Participants)))

	return copyBracket(bracket)
}

func (e *tournamentEngine) SubmitResult(ctx context.Context, bracketID, nodeUID string, score1, score2 int) (*brackets.ProgressionOutcome, error) {
	lock := e.lockFor(bracketID)
	lock.Lock()
	defer lock.Unlock()

	bracket, err := e.loadLocked(ctx, bracketID)
	if err != nil {
		return nil, err
	}

	outcome, err := e.progression.RecordResult(bracket, nodeUID, score1, score2)
	if err != nil {
		return nil, err
	}

	if err := e.repo.Save(ctx, bracket); err != nil {
		return nil, fmt.Errorf("failed to persist bracket %s after result: %w", bracketID, err)
	}

	e.publish(outcome)
	if outcome.Completed {
		e.archive(ctx, bracket)
	}

	e.logger.Info("result recorded",
		slog.String("bracket_id", bracketID),
		slog.String("node_uid", nodeUID),
		slog.Bool("corrected", outcome.Corrected),
		slog.Bool("completed", outcome.Completed))

	return outcome, nil
}

func (e *tournamentEngine) GetBracket(ctx context.Context, bracketID string) (*models.Bracket, error) {
	lock := e.lockFor(bracketID)
	lock.Lock()
	defer lock.Unlock()

	bracket, err := e.loadLocked(ctx, bracketID)
	if err != nil {
		return nil, err
	}
	return copyBracket(bracket)
}

func (e *tournamentEngine) GetStandings(ctx context.Context, bracketID string) ([]models.StandingEntry, error) {
	lock := e.lockFor(bracketID)
	lock.Lock()
	defer lock.Unlock()

	bracket, err := e.loadLocked(ctx, bracketID)
	if err != nil {
		return nil, err
	}
	return brackets.Standings(bracket), nil
}

// Restore loads every non-completed bracket back into the working set, in
// parallel. Called once at service start.
func (e *tournamentEngine) Restore(ctx context.Context) error {
	stored, err := e.repo.ListByStatus(ctx, models.BracketInProgress)
	if err != nil {
		return fmt.Errorf("failed to list brackets for restore: %w", err)
	}

	g, _ := errgroup.WithContext(ctx)
	var restoredMu sync.Mutex
	restored := make(map[string]*models.Bracket, len(stored))

	for _, bracket := range stored {
		bracket := bracket
		g.Go(func() error {
			if err := validateSnapshot(bracket); err != nil {
				return fmt.Errorf("snapshot %s failed validation: %w", bracket.ID, err)
			}
			restoredMu.Lock()
			restored[bracket.ID] = bracket
			restoredMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	e.mu.Lock()
	for id, bracket := range restored {
		e.live[id] = bracket
	}
	e.mu.Unlock()

	e.logger.Info("brackets restored", slog.Int("count", len(restored)))
	return nil
}

// loadLocked returns the working copy of a bracket, reading it from the
// repository on first touch. Callers hold the bracket lock.
func (e *tournamentEngine) loadLocked(ctx context.Context, bracketID string) (*models.Bracket, error) {
	e.mu.Lock()
	bracket, ok := e.live[bracketID]
	e.mu.Unlock()
	if ok {
		return bracket, nil
	}

	bracket, err := e.repo.GetByID(ctx, bracketID)
	if err != nil {
		if errors.Is(err, repositories.ErrBracketNotFound) {
			return nil, ErrBracketNotFound
		}
		return nil, err
	}

	e.mu.Lock()
	e.live[bracketID] = bracket
	e.mu.Unlock()
	return bracket, nil
}

func (e *tournamentEngine) publish(outcome *brackets.ProgressionOutcome) {
	if e.publisher == nil {
		return
	}
	eventType := realtimeEventFor(outcome)
	e.publisher.Publish(outcome.BracketID, eventType, outcome)
}

func realtimeEventFor(outcome *brackets.ProgressionOutcome) string {
	switch {
	case outcome.Completed:
		return realtime.EventBracketCompleted
	case outcome.Corrected:
		return realtime.EventResultCorrected
	default:
		return realtime.EventResultRecorded
	}
}

// archive pushes the final snapshot to object storage. Archival failures are
// logged, not surfaced: the result itself is already persisted.
func (e *tournamentEngine) archive(ctx context.Context, bracket *models.Bracket) {
	if e.archiver == nil {
		return
	}
	snapshot, err := json.Marshal(bracket)
	if err != nil {
		e.logger.Error("failed to marshal bracket for archive",
			slog.String("bracket_id", bracket.ID), slog.Any("error", err))
		return
	}
	result, err := e.archiver.Archive(ctx, bracket.ID, snapshot)
	if err != nil {
		e.logger.Error("failed to archive completed bracket",
			slog.String("bracket_id", bracket.ID), slog.Any("error", err))
		return
	}
	e.logger.Info("bracket archived",
		slog.String("bracket_id", bracket.ID),
		slog.String("location", result.Location))
}

// copyBracket returns a detached copy so readers never observe concurrent
// mutation of the working set.
func copyBracket(bracket *models.Bracket) (*models.Bracket, error) {
	raw, err := json.Marshal(bracket)
	if err != nil {
		return nil, fmt.Errorf("failed to copy bracket %s: %w", bracket.ID, err)
	}
	var out models.Bracket
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to copy bracket %s: %w", bracket.ID, err)
	}
	out.Reindex()
	return &out, nil
}

// validateSnapshot checks the internal references of a restored bracket.
func validateSnapshot(bracket *models.Bracket) error {
	for _, n := range bracket.Nodes {
		for _, ref := range []*string{n.WinnerToUID, n.LoserToUID, n.SourceNode1UID, n.SourceNode2UID} {
			if ref != nil && bracket.Node(*ref) == nil {
				return fmt.Errorf("node %s references missing node %s", n.UID, *ref)
			}
		}
		for _, slot := range []int{1, 2} {
			if id := n.Participant(slot); id != nil && bracket.Participant(*id) == nil {
				return fmt.Errorf("node %s references missing participant %d", n.UID, *id)
			}
		}
	}
	return nil
}
