package analysis

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/screenquiz/screenquiz-analysis-service/internal/domain/entity"
	"github.com/screenquiz/screenquiz-analysis-service/internal/domain/port"
	"go.uber.org/zap"
)

const (
	// Hard cap on per-event extractions in smart mode. Each extraction is a
	// separate external-process call with real wall-clock cost.
	defaultMaxFrames = 20

	// Quick-mode sampling grid spacing in seconds.
	defaultQuickInterval = 10.0

	// Smart-mode descriptors above this confidence are pre-selected even
	// when not click-derived.
	defaultAutoSelectConfidence = 0.8

	quickConfidence = 0.5
)

// SampleResult is the outcome of one sampling run: the surviving frame
// descriptors plus aggregate accounting for the events that fed them.
type SampleResult struct {
	Descriptors   []entity.FrameDescriptor
	Candidates    int
	Failed        int
	VideoDuration float64
}

// Sampler realizes candidate events as still images and bounds total work.
type Sampler struct {
	MaxFrames            int
	QuickInterval        float64
	AutoSelectConfidence float64

	extractor port.FrameExtractor
	quickPos  port.PositionEstimator
	logger    *zap.Logger
}

func NewSampler(extractor port.FrameExtractor, quickPos port.PositionEstimator, logger *zap.Logger) *Sampler {
	return &Sampler{
		MaxFrames:            defaultMaxFrames,
		QuickInterval:        defaultQuickInterval,
		AutoSelectConfidence: defaultAutoSelectConfidence,
		extractor:            extractor,
		quickPos:             quickPos,
		logger:               logger,
	}
}

// SampleSmart extracts one still per candidate event, capped at MaxFrames
// (the earliest events win; the rest are silently dropped). A per-event
// extraction failure skips that event and continues; one failure never fails
// the batch. The events slice must already be sorted ascending by timestamp.
func (s *Sampler) SampleSmart(ctx context.Context, videoPath, outputDir string, events []entity.CandidateEvent) (*SampleResult, error) {
	duration, err := s.extractor.ProbeDuration(ctx, videoPath)
	if err != nil {
		s.logger.Warn("could not probe video duration", zap.Error(err))
	}

	total := len(events)
	if len(events) > s.MaxFrames {
		events = events[:s.MaxFrames]
	}

	result := &SampleResult{Candidates: total, VideoDuration: duration}
	for _, ev := range events {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		outPath := filepath.Join(outputDir, fmt.Sprintf("frame_%04d.png", len(result.Descriptors)))
		if err := s.extractor.ExtractFrame(ctx, videoPath, ev.Timestamp, outPath); err != nil {
			result.Failed++
			s.logger.Warn("frame extraction failed, skipping event",
				zap.Float64("timestamp", ev.Timestamp),
				zap.String("event_type", ev.Type.String()),
				zap.Error(err),
			)
			continue
		}

		result.Descriptors = append(result.Descriptors, entity.FrameDescriptor{
			Index:     len(result.Descriptors),
			Event:     ev,
			LocalPath: outPath,
			Selected:  s.autoSelect(ev),
			Hotspot: entity.HotspotEstimate{
				X:          ev.X,
				Y:          ev.Y,
				Confidence: ev.Confidence,
				Reason:     ev.Reason,
			},
		})
	}

	s.logger.Info("smart sampling done",
		zap.Int("candidates", total),
		zap.Int("extracted", len(result.Descriptors)),
		zap.Int("failed", result.Failed),
	)

	return result, nil
}

// SampleQuick bypasses signal analysis entirely: a fixed grid every
// QuickInterval seconds over the probed duration, uncapped, every descriptor
// selected, with deterministic placeholder positions. Quick mode trades
// accuracy for speed and determinism.
func (s *Sampler) SampleQuick(ctx context.Context, videoPath, outputDir string) (*SampleResult, error) {
	duration, err := s.extractor.ProbeDuration(ctx, videoPath)
	if err != nil || duration <= 0 {
		s.logger.Warn("could not probe video duration for quick sampling, assuming ceiling",
			zap.Error(err),
		)
		duration = defaultFallbackCeiling
	}

	result := &SampleResult{VideoDuration: duration}
	idx := 0
	for t := 0.0; t < duration; t += s.QuickInterval {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		result.Candidates++

		x, y := s.quickPos.Estimate(idx)
		ev := entity.CandidateEvent{
			Timestamp:  t,
			Type:       entity.EventQuickInterval,
			Confidence: quickConfidence,
			X:          x,
			Y:          y,
			Reason:     "interval sample",
		}

		outPath := filepath.Join(outputDir, fmt.Sprintf("frame_%04d.png", len(result.Descriptors)))
		if err := s.extractor.ExtractFrame(ctx, videoPath, t, outPath); err != nil {
			result.Failed++
			s.logger.Warn("frame extraction failed, skipping interval",
				zap.Float64("timestamp", t),
				zap.Error(err),
			)
			idx++
			continue
		}

		result.Descriptors = append(result.Descriptors, entity.FrameDescriptor{
			Index:     len(result.Descriptors),
			Event:     ev,
			LocalPath: outPath,
			Selected:  true,
			Hotspot: entity.HotspotEstimate{
				X:          ev.X,
				Y:          ev.Y,
				Confidence: ev.Confidence,
				Reason:     ev.Reason,
			},
		})
		idx++
	}

	s.logger.Info("quick sampling done",
		zap.Float64("duration", duration),
		zap.Int("extracted", len(result.Descriptors)),
		zap.Int("failed", result.Failed),
	)

	return result, nil
}

func (s *Sampler) autoSelect(ev entity.CandidateEvent) bool {
	switch ev.Type {
	case entity.EventClick, entity.EventQuickInterval:
		return true
	case entity.EventSpeech:
		return ev.Confidence > s.AutoSelectConfidence
	default:
		return false
	}
}
