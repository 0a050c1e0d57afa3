package entity

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisRequestMessage is the inbound message from the quiz.analysis queue.
type AnalysisRequestMessage struct {
	UploadID  uuid.UUID    `json:"upload_id"`
	UserID    string       `json:"user_id"`
	VideoKey  string       `json:"video_key"`
	Mode      SamplingMode `json:"mode"`
	FileSize  int64        `json:"file_size"`
	UserEmail string       `json:"user_email"`
}

// AnalysisStatusMessage is the outbound message published to the quiz.status
// queue after every terminal transition of an upload.
type AnalysisStatusMessage struct {
	UploadID       uuid.UUID    `json:"upload_id"`
	UserID         string       `json:"user_id"`
	Status         UploadStatus `json:"status"`
	VideoKey       string       `json:"video_key"`
	SessionID      *uuid.UUID   `json:"session_id,omitempty"`
	FrameCount     int          `json:"frame_count,omitempty"`
	CandidateCount int          `json:"candidate_count,omitempty"`
	Duration       float64      `json:"duration_seconds,omitempty"`
	ErrorMessage   string       `json:"error_message,omitempty"`
	Attempt        int          `json:"attempt"`
	MaxAttempts    int          `json:"max_attempts"`
}

// AttemptMessage is the inbound message from the quiz.attempts queue. Click
// coordinates are in original-image pixel space; the client converts from
// any display scaling before publishing.
type AttemptMessage struct {
	SessionID   uuid.UUID `json:"session_id"`
	HotspotID   uuid.UUID `json:"hotspot_id"`
	ClickX      int       `json:"click_x"`
	ClickY      int       `json:"click_y"`
	TimeSpentMs int64     `json:"time_spent_ms"`
}

// VerdictMessage is the outbound message published to the quiz.verdicts
// queue after an attempt has been scored.
type VerdictMessage struct {
	SessionID   uuid.UUID  `json:"session_id"`
	StepNumber  int        `json:"step_number"`
	IsCorrect   bool       `json:"is_correct"`
	CurrentStep int        `json:"current_step"`
	TotalSteps  int        `json:"total_steps"`
	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
