package entity

// SilenceBoundaryKind distinguishes the two markers the audio analysis
// emits: the moment speech falls silent and the moment it resumes.
type SilenceBoundaryKind int

const (
	SilenceStart SilenceBoundaryKind = iota
	SilenceEnd
)

// SilenceBoundary is a raw audio observation: a silence marker at a point
// in time, in seconds from the start of the video.
type SilenceBoundary struct {
	Kind SilenceBoundaryKind
	Time float64
}

// SceneChange is a raw visual observation: a point of significant visual
// change with a magnitude score in [0,1].
type SceneChange struct {
	Time  float64
	Score float64
}

// SpeechSegment is an interval of sustained speech derived from silence
// boundaries.
type SpeechSegment struct {
	Start float64
	End   float64
}

// Midpoint returns the center of the segment in seconds.
func (s SpeechSegment) Midpoint() float64 {
	return (s.Start + s.End) / 2
}

// EventType tags a candidate event with the signal it was derived from.
type EventType int

const (
	EventSpeech EventType = iota
	EventClick
	EventQuickInterval
)

func (t EventType) String() string {
	switch t {
	case EventSpeech:
		return "speech"
	case EventClick:
		return "click"
	case EventQuickInterval:
		return "quick_interval"
	default:
		return "unknown"
	}
}

// CandidateEvent is a timestamped, typed, confidence-scored hypothesis that
// something interesting happens in the video at that moment. X and Y are an
// estimated click position in original-image pixel space; for speech and
// quick-interval events the position is a placeholder, not a measurement.
type CandidateEvent struct {
	Timestamp  float64
	Type       EventType
	Confidence float64
	X          int
	Y          int
	Reason     string
}
