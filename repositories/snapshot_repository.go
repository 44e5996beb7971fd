package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Dosada05/bracket-engine/models"
)

var (
	ErrBracketNotFound = errors.New("bracket snapshot not found")
	ErrBracketConflict = errors.New("bracket snapshot already exists for this tournament and format")
)

// BracketSnapshotRepository persists whole brackets as JSON snapshots. The
// engine mutates brackets in memory and saves the full snapshot after every
// accepted result; there is no per-match persistence.
type BracketSnapshotRepository interface {
	Create(ctx context.Context, bracket *models.Bracket) error
	Save(ctx context.Context, bracket *models.Bracket) error
	GetByID(ctx context.Context, id string) (*models.Bracket, error)
	ListByStatus(ctx context.Context, status models.BracketStatus) ([]*models.Bracket, error)
	Delete(ctx context.Context, id string) error
}

type postgresBracketSnapshotRepository struct {
	db *sql.DB
}

func NewPostgresBracketSnapshotRepository(db *sql.DB) BracketSnapshotRepository {
	return &postgresBracketSnapshotRepository{db: db}
}

func (r *postgresBracketSnapshotRepository) Create(ctx context.Context, bracket *models.Bracket) error {
	snapshot, err := json.Marshal(bracket)
	if err != nil {
		return fmt.Errorf("failed to marshal bracket %s: %w", bracket.ID, err)
	}

	query := `
		INSERT INTO bracket_snapshots (id, tournament_id, format, status, snapshot)
		VALUES ($1, $2, $3, $4, $5)`

	_, err = r.db.ExecContext(ctx, query,
		bracket.ID, bracket.TournamentID, bracket.Format, bracket.Status, snapshot,
	)
	return r.handleSnapshotError(err)
}

func (r *postgresBracketSnapshotRepository) Save(ctx context.Context, bracket *models.Bracket) error {
	snapshot, err := json.Marshal(bracket)
	if err != nil {
		return fmt.Errorf("failed to marshal bracket %s: %w", bracket.ID, err)
	}

	query := `
		UPDATE bracket_snapshots
		SET status = $2, snapshot = $3, updated_at = now()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, bracket.ID, bracket.Status, snapshot)
	if err != nil {
		return r.handleSnapshotError(err)
	}
	return checkAffectedRows(result, ErrBracketNotFound)
}

func (r *postgresBracketSnapshotRepository) GetByID(ctx context.Context, id string) (*models.Bracket, error) {
	query := `SELECT snapshot FROM bracket_snapshots WHERE id = $1`

	var snapshot []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(&snapshot)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBracketNotFound
		}
		return nil, fmt.Errorf("failed to load bracket snapshot %s: %w", id, err)
	}
	return unmarshalBracket(snapshot)
}

func (r *postgresBracketSnapshotRepository) ListByStatus(ctx context.Context, status models.BracketStatus) ([]*models.Bracket, error) {
	query := `SELECT snapshot FROM bracket_snapshots WHERE status = $1 ORDER BY updated_at`

	rows, err := r.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s bracket snapshots: %w", status, err)
	}
	defer rows.Close()

	var brackets []*models.Bracket
	for rows.Next() {
		var snapshot []byte
		if err := rows.Scan(&snapshot); err != nil {
			return nil, fmt.Errorf("failed to scan bracket snapshot: %w", err)
		}
		b, err := unmarshalBracket(snapshot)
		if err != nil {
			return nil, err
		}
		brackets = append(brackets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating bracket snapshots: %w", err)
	}
	return brackets, nil
}

func (r *postgresBracketSnapshotRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bracket_snapshots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bracket snapshot %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrBracketNotFound)
}

func (r *postgresBracketSnapshotRepository) handleSnapshotError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return ErrBracketConflict
	}
	return fmt.Errorf("bracket snapshot query failed: %w", err)
}

// unmarshalBracket restores a snapshot and rebuilds the lookup indexes that
// are not part of the serialized form.
func unmarshalBracket(snapshot []byte) (*models.Bracket, error) {
	var b models.Bracket
	if err := json.Unmarshal(snapshot, &b); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bracket snapshot: %w", err)
	}
	b.Reindex()
	return &b, nil
}
