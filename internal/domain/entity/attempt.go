package entity

import (
	"time"

	"github.com/google/uuid"
)

// TestAttempt is an immutable record of one click evaluated against a
// hotspot. Attempts are append-only; they are never updated or deleted.
type TestAttempt struct {
	ID          uuid.UUID
	SessionID   uuid.UUID
	StepNumber  int
	HotspotID   uuid.UUID
	ClickX      int
	ClickY      int
	ExpectedX   int
	ExpectedY   int
	IsCorrect   bool
	TimeSpentMs int64
	CreatedAt   time.Time
}

func NewTestAttempt(id uuid.UUID, sessionID uuid.UUID, stepNumber int, target Hotspot, clickX, clickY int, timeSpentMs int64, correct bool) *TestAttempt {
	return &TestAttempt{
		ID:          id,
		SessionID:   sessionID,
		StepNumber:  stepNumber,
		HotspotID:   target.ID,
		ClickX:      clickX,
		ClickY:      clickY,
		ExpectedX:   target.X,
		ExpectedY:   target.Y,
		IsCorrect:   correct,
		TimeSpentMs: timeSpentMs,
		CreatedAt:   time.Now().UTC(),
	}
}
