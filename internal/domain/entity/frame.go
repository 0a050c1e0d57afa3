package entity

import "github.com/google/uuid"

// HotspotEstimate is the estimated click target attached to a sampled frame,
// carrying the confidence and reasoning of the event that produced it.
type HotspotEstimate struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// FrameDescriptor is one still image realized from a candidate event.
// LocalPath points at the scratch file before upload; ImageKey is the object
// key once the still has been stored.
type FrameDescriptor struct {
	Index     int
	Event     CandidateEvent
	LocalPath string
	ImageKey  string
	Selected  bool
	Hotspot   HotspotEstimate
}

// Hotspot is a named click target in original, full-resolution image space.
// Coordinates are never display-scaled; scoring depends on that.
type Hotspot struct {
	ID    uuid.UUID `json:"id"`
	X     int       `json:"x"`
	Y     int       `json:"y"`
	Label string    `json:"label"`
}
