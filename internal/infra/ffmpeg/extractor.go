package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Extractor pulls single still images out of a video with ffmpeg.
type Extractor struct {
	callTimeout time.Duration
	logger      *zap.Logger
}

func NewExtractor(callTimeout time.Duration, logger *zap.Logger) *Extractor {
	return &Extractor{callTimeout: callTimeout, logger: logger}
}

// ExtractFrame writes the frame nearest to timestamp (seconds) to
// outputPath. Seeking before the input keeps extraction fast on long videos.
func (e *Extractor) ExtractFrame(ctx context.Context, videoPath string, timestamp float64, outputPath string) error {
	ctx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-ss", strconv.FormatFloat(timestamp, 'f', 3, 64),
		"-i", videoPath,
		"-vframes", "1",
		"-q:v", "2",
		"-y",
		outputPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg frame at %.3fs: %w, output: %s", timestamp, err, string(output))
	}
	return nil
}

func (e *Extractor) ProbeDuration(ctx context.Context, videoPath string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	durationStr := strings.TrimSpace(string(output))
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}
	return duration, nil
}
