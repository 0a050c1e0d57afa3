package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNoSelectedFrames is returned when a session is created from a frame set
// in which nothing qualified for auto-selection. A zero-step session would be
// completed before its first click, so creation refuses it outright.
var ErrNoSelectedFrames = errors.New("no selected frames to build a session from")

// SessionStep is one step of a test run: the frame the user is shown and the
// click targets that count as correct for it.
type SessionStep struct {
	FrameKey string    `json:"frame_key"`
	Hotspots []Hotspot `json:"hotspots"`
}

// TestSession is the lifecycle of one test run. CurrentStep is 1-based and
// sits at TotalSteps+1 once the session is completed; IsCompleted is always
// equivalent to CurrentStep > TotalSteps.
type TestSession struct {
	ID          uuid.UUID
	UploadID    uuid.UUID
	TotalSteps  int
	CurrentStep int
	IsCompleted bool
	Steps       []SessionStep
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

func NewTestSession(id, uploadID uuid.UUID, steps []SessionStep) (*TestSession, error) {
	if len(steps) == 0 {
		return nil, ErrNoSelectedFrames
	}
	now := time.Now().UTC()
	return &TestSession{
		ID:          id,
		UploadID:    uploadID,
		TotalSteps:  len(steps),
		CurrentStep: 1,
		Steps:       steps,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// CurrentHotspots returns the click targets of the step the session is
// waiting on, or nil once the session is completed.
func (s *TestSession) CurrentHotspots() []Hotspot {
	if s.IsCompleted || s.CurrentStep < 1 || s.CurrentStep > len(s.Steps) {
		return nil
	}
	return s.Steps[s.CurrentStep-1].Hotspots
}

// HotspotByID looks up a target among the current step's hotspots.
func (s *TestSession) HotspotByID(id uuid.UUID) (Hotspot, bool) {
	for _, h := range s.CurrentHotspots() {
		if h.ID == id {
			return h, true
		}
	}
	return Hotspot{}, false
}

// Advance moves the session past the current step after a correct click.
// Advancing past the last step completes the session and stamps the
// completion time. Advancing a completed session is a no-op.
func (s *TestSession) Advance() {
	if s.IsCompleted {
		return
	}
	now := time.Now().UTC()
	s.CurrentStep++
	if s.CurrentStep > s.TotalSteps {
		s.IsCompleted = true
		s.CompletedAt = &now
	}
	s.UpdatedAt = now
}
