package port

import "context"

// FrameExtractor realizes a single still image from a video at a point in
// time. A failed extraction is reported per call; callers skip and continue.
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, videoPath string, timestamp float64, outputPath string) error
	ProbeDuration(ctx context.Context, videoPath string) (float64, error)
}
