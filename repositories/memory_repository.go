package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/Dosada05/bracket-engine/models"
)

// inMemoryBracketSnapshotRepository keeps marshaled snapshots in a map. It
// backs tests and database-less deployments; storing bytes rather than
// pointers gives it the same copy semantics as the Postgres implementation.
type inMemoryBracketSnapshotRepository struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

func NewInMemoryBracketSnapshotRepository() BracketSnapshotRepository {
	return &inMemoryBracketSnapshotRepository{
		snapshots: make(map[string][]byte),
	}
}

func (r *inMemoryBracketSnapshotRepository) Create(ctx context.Context, bracket *models.Bracket) error {
	snapshot, err := json.Marshal(bracket)
	if err != nil {
		return fmt.Errorf("failed to marshal bracket %s: %w", bracket.ID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.snapshots[bracket.ID]; exists {
		return ErrBracketConflict
	}
	r.snapshots[bracket.ID] = snapshot
	return nil
}

func (r *inMemoryBracketSnapshotRepository) Save(ctx context.Context, bracket *models.Bracket) error {
	snapshot, err := json.Marshal(bracket)
	if err != nil {
		return fmt.Errorf("failed to marshal bracket %s: %w", bracket.ID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.snapshots[bracket.ID]; !exists {
		return ErrBracketNotFound
	}
	r.snapshots[bracket.ID] = snapshot
	return nil
}

func (r *inMemoryBracketSnapshotRepository) GetByID(ctx context.Context, id string) (*models.Bracket, error) {
	r.mu.RLock()
	snapshot, ok := r.snapshots[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrBracketNotFound
	}
	return unmarshalBracket(snapshot)
}

func (r *inMemoryBracketSnapshotRepository) ListByStatus(ctx context.Context, status models.BracketStatus) ([]*models.Bracket, error) {
	r.mu.RLock()
	ids := make([]string, 0, len(r.snapshots))
	for id := range r.snapshots {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var brackets []*models.Bracket
	for _, id := range ids {
		b, err := unmarshalBracket(r.snapshots[id])
		if err != nil {
			r.mu.RUnlock()
			return nil, err
		}
		if b.Status == status {
			brackets = append(brackets, b)
		}
	}
	r.mu.RUnlock()
	return brackets, nil
}

func (r *inMemoryBracketSnapshotRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.snapshots[id]; !ok {
		return ErrBracketNotFound
	}
	delete(r.snapshots, id)
	return nil
}
