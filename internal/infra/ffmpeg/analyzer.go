package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/screenquiz/screenquiz-analysis-service/internal/domain/entity"
	"go.uber.org/zap"
)

// Analyzer runs ffmpeg filter passes over a video and parses the log output
// for silence boundaries and scene changes. Per the signal-extraction
// contract it degrades instead of failing: any error or unparsable output
// yields an empty stream for that modality.
type Analyzer struct {
	noiseDB        float64
	minSilence     float64
	sceneThreshold float64
	callTimeout    time.Duration
	logger         *zap.Logger
}

type AnalyzerConfig struct {
	NoiseDB        float64
	MinSilence     float64
	SceneThreshold float64
	CallTimeout    time.Duration
}

func NewAnalyzer(cfg AnalyzerConfig, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		noiseDB:        cfg.NoiseDB,
		minSilence:     cfg.MinSilence,
		sceneThreshold: cfg.SceneThreshold,
		callTimeout:    cfg.CallTimeout,
		logger:         logger,
	}
}

func (a *Analyzer) DetectSilence(ctx context.Context, videoPath string) []entity.SilenceBoundary {
	ctx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", videoPath,
		"-af", fmt.Sprintf("silencedetect=noise=%.1fdB:d=%.2f", a.noiseDB, a.minSilence),
		"-f", "null",
		"-",
	)

	// silencedetect writes its markers to stderr; ffmpeg exits non-zero for
	// some inputs even when markers were produced, so parse regardless.
	output, err := cmd.CombinedOutput()
	if err != nil {
		a.logger.Warn("silence detection run failed, parsing whatever was produced",
			zap.String("video", videoPath),
			zap.Error(err),
		)
	}

	boundaries := parseSilenceBoundaries(string(output))
	a.logger.Debug("silence detection complete",
		zap.Int("boundaries", len(boundaries)),
	)
	return boundaries
}

func (a *Analyzer) DetectScenes(ctx context.Context, videoPath string) []entity.SceneChange {
	ctx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", videoPath,
		"-vf", fmt.Sprintf("select='gt(scene,%.2f)',metadata=print", a.sceneThreshold),
		"-f", "null",
		"-",
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		a.logger.Warn("scene detection run failed, parsing whatever was produced",
			zap.String("video", videoPath),
			zap.Error(err),
		)
	}

	scenes := parseSceneChanges(string(output))
	a.logger.Debug("scene detection complete",
		zap.Int("scenes", len(scenes)),
	)
	return scenes
}

// parseSilenceBoundaries scans silencedetect output for silence_start and
// silence_end markers, preserving their order of appearance.
func parseSilenceBoundaries(output string) []entity.SilenceBoundary {
	var boundaries []entity.SilenceBoundary

	for _, line := range strings.Split(output, "\n") {
		if idx := strings.Index(line, "silence_start:"); idx >= 0 {
			if t, ok := parseLeadingFloat(line[idx+len("silence_start:"):]); ok {
				boundaries = append(boundaries, entity.SilenceBoundary{Kind: entity.SilenceStart, Time: t})
			}
		} else if idx := strings.Index(line, "silence_end:"); idx >= 0 {
			if t, ok := parseLeadingFloat(line[idx+len("silence_end:"):]); ok {
				boundaries = append(boundaries, entity.SilenceBoundary{Kind: entity.SilenceEnd, Time: t})
			}
		}
	}

	return boundaries
}

// parseSceneChanges pairs the pts_time of each selected frame with the
// lavfi.scene_score line that follows it in metadata=print output.
func parseSceneChanges(output string) []entity.SceneChange {
	var scenes []entity.SceneChange
	lastTime := -1.0

	for _, line := range strings.Split(output, "\n") {
		if idx := strings.Index(line, "pts_time:"); idx >= 0 {
			if t, ok := parseLeadingFloat(line[idx+len("pts_time:"):]); ok {
				lastTime = t
			}
			continue
		}
		if idx := strings.Index(line, "lavfi.scene_score="); idx >= 0 && lastTime >= 0 {
			if score, ok := parseLeadingFloat(line[idx+len("lavfi.scene_score="):]); ok {
				scenes = append(scenes, entity.SceneChange{Time: lastTime, Score: score})
			}
			lastTime = -1.0
		}
	}

	return scenes
}

func parseLeadingFloat(s string) (float64, bool) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
