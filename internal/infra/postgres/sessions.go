package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/screenquiz/screenquiz-analysis-service/internal/domain/entity"
)

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) Create(ctx context.Context, s *entity.TestSession) error {
	steps, err := json.Marshal(s.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}

	query := `
		INSERT INTO test_sessions (
			id, upload_id, total_steps, current_step, is_completed, steps,
			created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_, err = r.pool.Exec(ctx, query,
		s.ID, s.UploadID, s.TotalSteps, s.CurrentStep, s.IsCompleted, steps,
		s.CreatedAt, s.UpdatedAt, s.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.TestSession, error) {
	query := `
		SELECT id, upload_id, total_steps, current_step, is_completed, steps,
			created_at, updated_at, completed_at
		FROM test_sessions WHERE id=$1`

	s := &entity.TestSession{}
	var steps []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.UploadID, &s.TotalSteps, &s.CurrentStep, &s.IsCompleted, &steps,
		&s.CreatedAt, &s.UpdatedAt, &s.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("find session by id: %w", err)
	}
	if err := json.Unmarshal(steps, &s.Steps); err != nil {
		return nil, fmt.Errorf("unmarshal steps: %w", err)
	}
	return s, nil
}

// AdvanceStep persists the advanced step state only if the stored session is
// still on fromStep. A false return means another attempt won the race and
// the caller should reload.
func (r *SessionRepository) AdvanceStep(ctx context.Context, s *entity.TestSession, fromStep int) (bool, error) {
	query := `
		UPDATE test_sessions SET
			current_step=$2, is_completed=$3, updated_at=$4, completed_at=$5
		WHERE id=$1 AND current_step=$6`

	tag, err := r.pool.Exec(ctx, query,
		s.ID, s.CurrentStep, s.IsCompleted, s.UpdatedAt, s.CompletedAt, fromStep,
	)
	if err != nil {
		return false, fmt.Errorf("advance session step: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
