package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/screenquiz/screenquiz-analysis-service/internal/analysis"
	"github.com/screenquiz/screenquiz-analysis-service/internal/domain/entity"
	"github.com/screenquiz/screenquiz-analysis-service/internal/domain/port"
	"github.com/screenquiz/screenquiz-analysis-service/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// AnalyzeVideoUseCase runs the full frame-selection pipeline for one
// uploaded screen recording: download, signal analysis (or quick grid),
// candidate synthesis, frame sampling, frame upload, session creation.
type AnalyzeVideoUseCase struct {
	uploads     port.UploadRepository
	sessions    port.SessionRepository
	storage     port.VideoStorage
	analyzer    port.SignalAnalyzer
	synthesizer *analysis.Synthesizer
	sampler     *analysis.Sampler
	ids         port.IDAllocator
	publisher   port.StatusPublisher
	dlq         port.DLQPublisher
	notifier    port.FailureNotifier
	logger      *zap.Logger
	tempDir     string
	maxRetry    int
}

type AnalyzeVideoConfig struct {
	TempDir    string
	MaxRetries int
}

func NewAnalyzeVideoUseCase(
	uploads port.UploadRepository,
	sessions port.SessionRepository,
	storage port.VideoStorage,
	analyzer port.SignalAnalyzer,
	synthesizer *analysis.Synthesizer,
	sampler *analysis.Sampler,
	ids port.IDAllocator,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg AnalyzeVideoConfig,
) *AnalyzeVideoUseCase {
	return &AnalyzeVideoUseCase{
		uploads:     uploads,
		sessions:    sessions,
		storage:     storage,
		analyzer:    analyzer,
		synthesizer: synthesizer,
		sampler:     sampler,
		ids:         ids,
		publisher:   publisher,
		dlq:         dlq,
		notifier:    notifier,
		logger:      logger,
		tempDir:     cfg.TempDir,
		maxRetry:    cfg.MaxRetries,
	}
}

func (uc *AnalyzeVideoUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "AnalyzeVideoUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.AnalysisRequestMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}

	span.SetAttributes(
		attribute.String("upload.id", msg.UploadID.String()),
		attribute.String("upload.video_key", msg.VideoKey),
		attribute.String("upload.mode", string(msg.Mode)),
	)

	log := uc.logger.With(zap.String("upload_id", msg.UploadID.String()), zap.String("video_key", msg.VideoKey))

	upload, err := uc.uploads.FindByID(ctx, msg.UploadID)
	if err != nil {
		upload = entity.NewUpload(msg.UploadID, msg.UserID, msg.VideoKey, msg.Mode, msg.FileSize, uc.maxRetry)
		if err := uc.uploads.Create(ctx, upload); err != nil {
			log.Error("failed to create upload record", zap.Error(err))
			return fmt.Errorf("create upload: %w", err)
		}
	}

	if !upload.CanRetry() {
		log.Warn("upload exhausted retries, sending to DLQ")
		_ = uc.handlePermanentFailure(ctx, upload, msg, rawMsg, "max retries exceeded")
		return nil
	}

	upload.MarkProcessing()
	if err := uc.uploads.Update(ctx, upload); err != nil {
		log.Error("failed to update upload to PROCESSING", zap.Error(err))
		return fmt.Errorf("update upload: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	if err := uc.analysisPipeline(ctx, upload, msg, rawMsg, log); err != nil {
		return err
	}

	metrics.UploadsProcessedTotal.WithLabelValues("completed").Inc()
	metrics.StageDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())

	return nil
}

func (uc *AnalyzeVideoUseCase) analysisPipeline(
	ctx context.Context,
	upload *entity.Upload,
	msg entity.AnalysisRequestMessage,
	rawMsg []byte,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	workDir := filepath.Join(uc.tempDir, upload.ID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("create workdir: %w", err)
	}
	// All scratch artifacts, including the downloaded video and stills of
	// failed events, are reclaimed on every exit path.
	defer os.RemoveAll(workDir)

	// Download video
	dlStart := time.Now()
	ctx2, spanDl := tracer.Start(ctx, "download_video")
	videoPath := filepath.Join(workDir, "input.mp4")
	if err := uc.storage.DownloadVideo(ctx2, msg.VideoKey, videoPath); err != nil {
		spanDl.End()
		log.Error("failed to download video", zap.Error(err))
		return uc.handleRetryableFailure(ctx, upload, msg, rawMsg, "download_video: "+err.Error(), log)
	}
	spanDl.End()
	metrics.StageDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())

	framesDir := filepath.Join(workDir, "frames")
	if err := os.MkdirAll(framesDir, 0755); err != nil {
		return fmt.Errorf("create frames dir: %w", err)
	}

	// Sample frames: smart mode runs signal analysis and synthesis first,
	// quick mode goes straight to the fixed grid.
	smStart := time.Now()
	ctx3, spanSm := tracer.Start(ctx, "sample_frames")
	var result *analysis.SampleResult
	var err error
	if upload.Mode == entity.ModeQuick {
		result, err = uc.sampler.SampleQuick(ctx3, videoPath, framesDir)
	} else {
		silence := uc.analyzer.DetectSilence(ctx3, videoPath)
		scenes := uc.analyzer.DetectScenes(ctx3, videoPath)
		events := uc.synthesizer.Synthesize(silence, scenes)
		for _, ev := range events {
			metrics.CandidateEventsTotal.WithLabelValues(ev.Type.String()).Inc()
		}
		result, err = uc.sampler.SampleSmart(ctx3, videoPath, framesDir, events)
	}
	spanSm.End()
	if err != nil {
		log.Error("frame sampling failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, upload, msg, rawMsg, "sample_frames: "+err.Error(), log)
	}
	metrics.StageDuration.WithLabelValues("sample").Observe(time.Since(smStart).Seconds())
	metrics.FramesSampledTotal.Add(float64(len(result.Descriptors)))

	log.Info("frames sampled",
		zap.Int("extracted", len(result.Descriptors)),
		zap.Int("candidates", result.Candidates),
		zap.Int("failed", result.Failed),
	)

	if len(result.Descriptors) == 0 {
		return uc.handleRetryableFailure(ctx, upload, msg, rawMsg, "sample_frames: no frames extracted", log)
	}

	// Upload stills
	upStart := time.Now()
	ctx4, spanUp := tracer.Start(ctx, "upload_frames")
	if err := uc.uploadFrames(ctx4, upload, result.Descriptors); err != nil {
		spanUp.End()
		log.Error("frame upload failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, upload, msg, rawMsg, "upload_frames: "+err.Error(), log)
	}
	spanUp.End()
	metrics.StageDuration.WithLabelValues("upload").Observe(time.Since(upStart).Seconds())

	// Build the session from the selected descriptors only.
	session, err := uc.buildSession(upload, result.Descriptors)
	if err != nil {
		log.Error("session creation failed", zap.Error(err))
		return uc.handlePermanentFailure(ctx, upload, msg, rawMsg, "create_session: "+err.Error())
	}
	if err := uc.sessions.Create(ctx, session); err != nil {
		log.Error("failed to persist session", zap.Error(err))
		return uc.handleRetryableFailure(ctx, upload, msg, rawMsg, "create_session: "+err.Error(), log)
	}

	upload.MarkCompleted(session.ID, len(result.Descriptors), result.Candidates, result.VideoDuration)
	if err := uc.uploads.Update(ctx, upload); err != nil {
		log.Error("failed to update upload to COMPLETED", zap.Error(err))
		return fmt.Errorf("update upload completed: %w", err)
	}

	uc.publishStatus(ctx, upload, log)

	log.Info("upload analyzed successfully",
		zap.Int("frame_count", len(result.Descriptors)),
		zap.Int("candidate_count", result.Candidates),
		zap.Int("session_steps", session.TotalSteps),
		zap.Float64("duration_secs", result.VideoDuration),
		zap.String("session_id", session.ID.String()),
	)

	return nil
}

func (uc *AnalyzeVideoUseCase) uploadFrames(ctx context.Context, upload *entity.Upload, descriptors []entity.FrameDescriptor) error {
	for i := range descriptors {
		d := &descriptors[i]
		key := fmt.Sprintf("%s/%s/frame_%04d.png", upload.UserID, upload.ID.String(), d.Index)

		f, err := os.Open(d.LocalPath)
		if err != nil {
			return fmt.Errorf("open frame %d: %w", d.Index, err)
		}
		stat, err := f.Stat()
		if err != nil {
			f.Close()
			return fmt.Errorf("stat frame %d: %w", d.Index, err)
		}
		if err := uc.storage.UploadFrame(ctx, key, f, stat.Size()); err != nil {
			f.Close()
			return fmt.Errorf("upload frame %d: %w", d.Index, err)
		}
		f.Close()
		d.ImageKey = key
	}
	return nil
}

func (uc *AnalyzeVideoUseCase) buildSession(upload *entity.Upload, descriptors []entity.FrameDescriptor) (*entity.TestSession, error) {
	var steps []entity.SessionStep
	for _, d := range descriptors {
		if !d.Selected {
			continue
		}
		steps = append(steps, entity.SessionStep{
			FrameKey: d.ImageKey,
			Hotspots: []entity.Hotspot{{
				ID:    uc.ids.NewID(),
				X:     d.Hotspot.X,
				Y:     d.Hotspot.Y,
				Label: d.Hotspot.Reason,
			}},
		})
	}
	return entity.NewTestSession(uc.ids.NewID(), upload.ID, steps)
}

func (uc *AnalyzeVideoUseCase) handleRetryableFailure(
	ctx context.Context,
	upload *entity.Upload,
	msg entity.AnalysisRequestMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	upload.MarkFailed(errMsg)
	_ = uc.uploads.Update(ctx, upload)

	if !upload.CanRetry() {
		return uc.handlePermanentFailure(ctx, upload, msg, rawMsg, errMsg)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(upload.Attempt)).Inc()
	uc.publishStatus(ctx, upload, log)

	return fmt.Errorf("retryable failure (attempt %d/%d): %s", upload.Attempt, upload.MaxAttempts, errMsg)
}

func (uc *AnalyzeVideoUseCase) handlePermanentFailure(
	ctx context.Context,
	upload *entity.Upload,
	msg entity.AnalysisRequestMessage,
	rawMsg []byte,
	errMsg string,
) error {
	upload.MarkFailed(errMsg)
	_ = uc.uploads.Update(ctx, upload)

	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	uc.publishStatus(ctx, upload, uc.logger)

	metrics.UploadsProcessedTotal.WithLabelValues("dlq").Inc()

	if msg.UserEmail != "" {
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, upload.ID.String(), msg.VideoKey, errMsg)
	}

	return nil
}

func (uc *AnalyzeVideoUseCase) publishStatus(ctx context.Context, upload *entity.Upload, log *zap.Logger) {
	statusMsg := entity.AnalysisStatusMessage{
		UploadID:       upload.ID,
		UserID:         upload.UserID,
		Status:         upload.Status,
		VideoKey:       upload.VideoKey,
		SessionID:      upload.SessionID,
		FrameCount:     upload.FrameCount,
		CandidateCount: upload.CandidateCount,
		Duration:       upload.VideoDuration,
		ErrorMessage:   upload.ErrorMessage,
		Attempt:        upload.Attempt,
		MaxAttempts:    upload.MaxAttempts,
	}
	data, _ := json.Marshal(statusMsg)
	if err := uc.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}
