package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/screenquiz/screenquiz-analysis-service/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeExtractor struct {
	duration float64
	probeErr error
	failAt   map[float64]bool
	calls    []float64
}

func (f *fakeExtractor) ExtractFrame(_ context.Context, _ string, timestamp float64, _ string) error {
	f.calls = append(f.calls, timestamp)
	if f.failAt[timestamp] {
		return errors.New("extraction failed")
	}
	return nil
}

func (f *fakeExtractor) ProbeDuration(context.Context, string) (float64, error) {
	return f.duration, f.probeErr
}

func speechEvents(n int, confidence float64) []entity.CandidateEvent {
	events := make([]entity.CandidateEvent, n)
	for i := range events {
		events[i] = entity.CandidateEvent{
			Timestamp:  float64(i),
			Type:       entity.EventSpeech,
			Confidence: confidence,
		}
	}
	return events
}

func TestSampleSmartCapsAtMaxFrames(t *testing.T) {
	ex := &fakeExtractor{duration: 120}
	s := NewSampler(ex, GridWalkEstimator{}, zap.NewNop())

	result, err := s.SampleSmart(context.Background(), "in.mp4", t.TempDir(), speechEvents(35, 0.7))
	require.NoError(t, err)

	assert.Len(t, result.Descriptors, 20)
	assert.Equal(t, 35, result.Candidates)
	// The earliest 20 by timestamp win.
	assert.Equal(t, 19.0, result.Descriptors[19].Event.Timestamp)
	assert.Len(t, ex.calls, 20)
}

func TestSampleSmartSkipsFailedExtractions(t *testing.T) {
	ex := &fakeExtractor{duration: 60, failAt: map[float64]bool{1: true, 3: true}}
	s := NewSampler(ex, GridWalkEstimator{}, zap.NewNop())

	result, err := s.SampleSmart(context.Background(), "in.mp4", t.TempDir(), speechEvents(5, 0.7))
	require.NoError(t, err)

	assert.Len(t, result.Descriptors, 3)
	assert.Equal(t, 2, result.Failed)
	// Surviving descriptors stay densely indexed.
	for i, d := range result.Descriptors {
		assert.Equal(t, i, d.Index)
	}
}

func TestSampleSmartSelectionRule(t *testing.T) {
	ex := &fakeExtractor{duration: 60}
	s := NewSampler(ex, GridWalkEstimator{}, zap.NewNop())

	events := []entity.CandidateEvent{
		{Timestamp: 1, Type: entity.EventSpeech, Confidence: 0.7},
		{Timestamp: 2, Type: entity.EventSpeech, Confidence: 0.81},
		{Timestamp: 3, Type: entity.EventClick, Confidence: 0.41},
		{Timestamp: 4, Type: entity.EventSpeech, Confidence: 0.8},
	}

	result, err := s.SampleSmart(context.Background(), "in.mp4", t.TempDir(), events)
	require.NoError(t, err)
	require.Len(t, result.Descriptors, 4)

	assert.False(t, result.Descriptors[0].Selected, "low-confidence speech")
	assert.True(t, result.Descriptors[1].Selected, "confidence above threshold")
	assert.True(t, result.Descriptors[2].Selected, "click-derived, regardless of confidence")
	assert.False(t, result.Descriptors[3].Selected, "0.8 is not > 0.8")
}

func TestSampleSmartPropagatesHotspotEstimate(t *testing.T) {
	ex := &fakeExtractor{duration: 60}
	s := NewSampler(ex, GridWalkEstimator{}, zap.NewNop())

	events := []entity.CandidateEvent{
		{Timestamp: 1, Type: entity.EventClick, Confidence: 0.9, X: 700, Y: 300, Reason: "scene change"},
	}

	result, err := s.SampleSmart(context.Background(), "in.mp4", t.TempDir(), events)
	require.NoError(t, err)
	require.Len(t, result.Descriptors, 1)

	h := result.Descriptors[0].Hotspot
	assert.Equal(t, 700, h.X)
	assert.Equal(t, 300, h.Y)
	assert.Equal(t, 0.9, h.Confidence)
	assert.Equal(t, "scene change", h.Reason)
}

func TestSampleQuickGridIsUncappedAndAllSelected(t *testing.T) {
	ex := &fakeExtractor{duration: 300}
	s := NewSampler(ex, GridWalkEstimator{}, zap.NewNop())

	result, err := s.SampleQuick(context.Background(), "in.mp4", t.TempDir())
	require.NoError(t, err)

	// 10s grid over 300s: 30 frames, beyond the smart-mode cap.
	require.Len(t, result.Descriptors, 30)
	for i, d := range result.Descriptors {
		assert.True(t, d.Selected)
		assert.Equal(t, entity.EventQuickInterval, d.Event.Type)
		assert.Equal(t, float64(i)*10, d.Event.Timestamp)
	}
}

func TestSampleQuickPositionsAreDeterministic(t *testing.T) {
	run := func() *SampleResult {
		ex := &fakeExtractor{duration: 50}
		s := NewSampler(ex, GridWalkEstimator{}, zap.NewNop())
		result, err := s.SampleQuick(context.Background(), "in.mp4", t.TempDir())
		require.NoError(t, err)
		return result
	}

	a, b := run(), run()
	require.Equal(t, len(a.Descriptors), len(b.Descriptors))
	for i := range a.Descriptors {
		assert.Equal(t, a.Descriptors[i].Hotspot, b.Descriptors[i].Hotspot)
	}
	// Positions vary across the grid rather than repeating one point.
	assert.NotEqual(t, a.Descriptors[0].Hotspot.X, a.Descriptors[1].Hotspot.X)
}

func TestSampleQuickShortVideo(t *testing.T) {
	ex := &fakeExtractor{duration: 7}
	s := NewSampler(ex, GridWalkEstimator{}, zap.NewNop())

	result, err := s.SampleQuick(context.Background(), "in.mp4", t.TempDir())
	require.NoError(t, err)
	assert.Len(t, result.Descriptors, 1)
}

func TestSampleQuickAssumesCeilingWhenProbeFails(t *testing.T) {
	ex := &fakeExtractor{probeErr: errors.New("no ffprobe")}
	s := NewSampler(ex, GridWalkEstimator{}, zap.NewNop())

	result, err := s.SampleQuick(context.Background(), "in.mp4", t.TempDir())
	require.NoError(t, err)
	assert.Len(t, result.Descriptors, 30)
	assert.Equal(t, 300.0, result.VideoDuration)
}

func TestSampleSmartEmptyEvents(t *testing.T) {
	ex := &fakeExtractor{duration: 10}
	s := NewSampler(ex, GridWalkEstimator{}, zap.NewNop())

	result, err := s.SampleSmart(context.Background(), "in.mp4", t.TempDir(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Descriptors)
	assert.Zero(t, result.Candidates)
}
