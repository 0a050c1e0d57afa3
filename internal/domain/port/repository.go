package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/screenquiz/screenquiz-analysis-service/internal/domain/entity"
)

type UploadRepository interface {
	Create(ctx context.Context, upload *entity.Upload) error
	Update(ctx context.Context, upload *entity.Upload) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Upload, error)
}

// SessionRepository persists test sessions. AdvanceStep writes the session's
// step state conditioned on the step it was advanced from and reports whether
// the row was actually updated, so two racing attempts for the same step
// cannot double-advance.
type SessionRepository interface {
	Create(ctx context.Context, session *entity.TestSession) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.TestSession, error)
	AdvanceStep(ctx context.Context, session *entity.TestSession, fromStep int) (bool, error)
}

// AttemptRepository is append-only; attempt records are immutable facts.
type AttemptRepository interface {
	Append(ctx context.Context, attempt *entity.TestAttempt) error
}
