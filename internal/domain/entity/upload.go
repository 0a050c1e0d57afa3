package entity

import (
	"time"

	"github.com/google/uuid"
)

type SamplingMode string

const (
	ModeSmart SamplingMode = "smart"
	ModeQuick SamplingMode = "quick"
)

type UploadStatus string

const (
	UploadStatusPending    UploadStatus = "PENDING"
	UploadStatusProcessing UploadStatus = "PROCESSING"
	UploadStatusCompleted  UploadStatus = "COMPLETED"
	UploadStatusFailed     UploadStatus = "FAILED"
)

// Upload tracks one screen-recording analysis run from receipt to the
// session it produced.
type Upload struct {
	ID             uuid.UUID
	UserID         string
	VideoKey       string
	Mode           SamplingMode
	Status         UploadStatus
	SessionID      *uuid.UUID
	FrameCount     int
	CandidateCount int
	FileSize       int64
	VideoDuration  float64
	Attempt        int
	MaxAttempts    int
	ErrorMessage   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}

func NewUpload(id uuid.UUID, userID, videoKey string, mode SamplingMode, fileSize int64, maxAttempts int) *Upload {
	now := time.Now().UTC()
	if mode != ModeQuick {
		mode = ModeSmart
	}
	return &Upload{
		ID:          id,
		UserID:      userID,
		VideoKey:    videoKey,
		Mode:        mode,
		FileSize:    fileSize,
		Status:      UploadStatusPending,
		Attempt:     0,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (u *Upload) MarkProcessing() {
	u.Status = UploadStatusProcessing
	u.Attempt++
	u.UpdatedAt = time.Now().UTC()
}

func (u *Upload) MarkCompleted(sessionID uuid.UUID, frameCount, candidateCount int, duration float64) {
	now := time.Now().UTC()
	u.Status = UploadStatusCompleted
	u.SessionID = &sessionID
	u.FrameCount = frameCount
	u.CandidateCount = candidateCount
	u.VideoDuration = duration
	u.ErrorMessage = ""
	u.UpdatedAt = now
	u.CompletedAt = &now
}

func (u *Upload) MarkFailed(errMsg string) {
	u.Status = UploadStatusFailed
	u.ErrorMessage = errMsg
	u.UpdatedAt = time.Now().UTC()
}

func (u *Upload) CanRetry() bool {
	return u.Attempt < u.MaxAttempts
}
