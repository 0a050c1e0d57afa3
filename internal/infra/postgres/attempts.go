package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/screenquiz/screenquiz-analysis-service/internal/domain/entity"
)

type AttemptRepository struct {
	pool *pgxpool.Pool
}

func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

func (r *AttemptRepository) Append(ctx context.Context, a *entity.TestAttempt) error {
	query := `
		INSERT INTO test_attempts (
			id, session_id, step_number, hotspot_id,
			click_x, click_y, expected_x, expected_y,
			is_correct, time_spent_ms, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`

	_, err := r.pool.Exec(ctx, query,
		a.ID, a.SessionID, a.StepNumber, a.HotspotID,
		a.ClickX, a.ClickY, a.ExpectedX, a.ExpectedY,
		a.IsCorrect, a.TimeSpentMs, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}
