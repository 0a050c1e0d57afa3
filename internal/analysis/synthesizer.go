// Package analysis turns raw video observations into an ordered sequence of
// candidate events and realizes those events as frame descriptors.
package analysis

import (
	"sort"

	"github.com/screenquiz/screenquiz-analysis-service/internal/domain/entity"
	"github.com/screenquiz/screenquiz-analysis-service/internal/domain/port"
	"go.uber.org/zap"
)

const (
	// A speech-active interval shorter than this is treated as noise.
	defaultMinSpeechGap = 3.0

	// Fallback grid used when audio analysis yields nothing usable.
	defaultFallbackInterval   = 15.0
	defaultFallbackCeiling    = 300.0
	defaultFallbackSegmentLen = 2.0

	// Scene changes below this magnitude are ignored as click candidates.
	defaultSceneThreshold = 0.4

	// Confidence assigned to speech-derived events.
	defaultSpeechConfidence = 0.7
)

// Fixed placeholder position for speech-derived events. Speech carries no
// positional signal at all, so the target defaults to frame center.
const (
	speechPlaceholderX = 640
	speechPlaceholderY = 360
)

// Synthesizer merges heterogeneous observation streams into one ordered
// candidate-event sequence. It is pure: no I/O, no external processes.
type Synthesizer struct {
	MinSpeechGap       float64
	FallbackInterval   float64
	FallbackCeiling    float64
	FallbackSegmentLen float64
	SceneThreshold     float64
	SpeechConfidence   float64

	estimator port.PositionEstimator
	logger    *zap.Logger
}

func NewSynthesizer(estimator port.PositionEstimator, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{
		MinSpeechGap:       defaultMinSpeechGap,
		FallbackInterval:   defaultFallbackInterval,
		FallbackCeiling:    defaultFallbackCeiling,
		FallbackSegmentLen: defaultFallbackSegmentLen,
		SceneThreshold:     defaultSceneThreshold,
		SpeechConfidence:   defaultSpeechConfidence,
		estimator:          estimator,
		logger:             logger,
	}
}

// SegmentSpeech scans silence boundaries in time order and emits the
// sustained speech-active intervals between them. A silence-start at t
// closes the interval [lastSpeechEnd, t] only when it lasted longer than
// MinSpeechGap; shorter bursts are dropped. Speech after the final
// silence-end is not emitted.
func (s *Synthesizer) SegmentSpeech(boundaries []entity.SilenceBoundary) []entity.SpeechSegment {
	var segments []entity.SpeechSegment
	lastSpeechEnd := 0.0

	for _, b := range boundaries {
		switch b.Kind {
		case entity.SilenceStart:
			if b.Time-lastSpeechEnd > s.MinSpeechGap {
				segments = append(segments, entity.SpeechSegment{Start: lastSpeechEnd, End: b.Time})
			}
		case entity.SilenceEnd:
			lastSpeechEnd = b.Time
		}
	}

	return segments
}

// FallbackSegments synthesizes a pseudo-segment every FallbackInterval
// seconds up to FallbackCeiling, guaranteeing the pipeline always has some
// candidate events even when audio analysis is unavailable.
func (s *Synthesizer) FallbackSegments() []entity.SpeechSegment {
	var segments []entity.SpeechSegment
	for t := 0.0; t < s.FallbackCeiling; t += s.FallbackInterval {
		segments = append(segments, entity.SpeechSegment{Start: t, End: t + s.FallbackSegmentLen})
	}
	return segments
}

// Synthesize produces the merged, ascending-by-timestamp candidate-event
// sequence. Speech events are inserted before click events, and the sort is
// stable, so equal timestamps keep speech first. Duplicate timestamps are
// not deduplicated.
func (s *Synthesizer) Synthesize(boundaries []entity.SilenceBoundary, scenes []entity.SceneChange) []entity.CandidateEvent {
	segments := s.SegmentSpeech(boundaries)
	if len(segments) == 0 {
		s.logger.Info("no usable speech segments, using fallback grid",
			zap.Int("boundary_count", len(boundaries)),
		)
		segments = s.FallbackSegments()
	}

	events := make([]entity.CandidateEvent, 0, len(segments)+len(scenes))
	for _, seg := range segments {
		events = append(events, entity.CandidateEvent{
			Timestamp:  seg.Midpoint(),
			Type:       entity.EventSpeech,
			Confidence: s.SpeechConfidence,
			X:          speechPlaceholderX,
			Y:          speechPlaceholderY,
			Reason:     "sustained speech",
		})
	}

	for i, sc := range scenes {
		if sc.Score <= s.SceneThreshold {
			continue
		}
		conf := sc.Score
		if conf > 1.0 {
			conf = 1.0
		}
		x, y := s.estimator.Estimate(i)
		events = append(events, entity.CandidateEvent{
			Timestamp:  sc.Time,
			Type:       entity.EventClick,
			Confidence: conf,
			X:          x,
			Y:          y,
			Reason:     "scene change",
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp < events[j].Timestamp
	})

	s.logger.Debug("candidate events synthesized",
		zap.Int("speech_segments", len(segments)),
		zap.Int("scene_changes", len(scenes)),
		zap.Int("events", len(events)),
	)

	return events
}
