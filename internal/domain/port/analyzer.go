package port

import (
	"context"

	"github.com/screenquiz/screenquiz-analysis-service/internal/domain/entity"
)

// SignalAnalyzer produces the two raw observation streams of a video.
// Implementations degrade, never fail: if a modality cannot be analyzed or
// its output cannot be parsed, the stream for that modality is empty and the
// pipeline falls back to grid sampling downstream.
type SignalAnalyzer interface {
	DetectSilence(ctx context.Context, videoPath string) []entity.SilenceBoundary
	DetectScenes(ctx context.Context, videoPath string) []entity.SceneChange
}
