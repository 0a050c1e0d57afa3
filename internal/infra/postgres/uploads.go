package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/screenquiz/screenquiz-analysis-service/internal/domain/entity"
)

type UploadRepository struct {
	pool *pgxpool.Pool
}

func NewUploadRepository(pool *pgxpool.Pool) *UploadRepository {
	return &UploadRepository{pool: pool}
}

func (r *UploadRepository) Create(ctx context.Context, u *entity.Upload) error {
	query := `
		INSERT INTO uploads (
			id, user_id, video_key, mode, status, session_id,
			frame_count, candidate_count, file_size, video_duration,
			attempt, max_attempts, error_message,
			created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`

	_, err := r.pool.Exec(ctx, query,
		u.ID, u.UserID, u.VideoKey, string(u.Mode), string(u.Status), u.SessionID,
		u.FrameCount, u.CandidateCount, u.FileSize, u.VideoDuration,
		u.Attempt, u.MaxAttempts, u.ErrorMessage,
		u.CreatedAt, u.UpdatedAt, u.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

func (r *UploadRepository) Update(ctx context.Context, u *entity.Upload) error {
	query := `
		UPDATE uploads SET
			status=$2, session_id=$3, frame_count=$4, candidate_count=$5,
			video_duration=$6, attempt=$7, error_message=$8,
			updated_at=$9, completed_at=$10
		WHERE id=$1`

	_, err := r.pool.Exec(ctx, query,
		u.ID, string(u.Status), u.SessionID, u.FrameCount, u.CandidateCount,
		u.VideoDuration, u.Attempt, u.ErrorMessage,
		u.UpdatedAt, u.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update upload: %w", err)
	}
	return nil
}

func (r *UploadRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Upload, error) {
	query := `
		SELECT id, user_id, video_key, mode, status, session_id,
			frame_count, candidate_count, file_size, video_duration,
			attempt, max_attempts, error_message,
			created_at, updated_at, completed_at
		FROM uploads WHERE id=$1`

	u := &entity.Upload{}
	var mode, status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.UserID, &u.VideoKey, &mode, &status, &u.SessionID,
		&u.FrameCount, &u.CandidateCount, &u.FileSize, &u.VideoDuration,
		&u.Attempt, &u.MaxAttempts, &u.ErrorMessage,
		&u.CreatedAt, &u.UpdatedAt, &u.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("find upload by id: %w", err)
	}
	u.Mode = entity.SamplingMode(mode)
	u.Status = entity.UploadStatus(status)
	return u, nil
}
