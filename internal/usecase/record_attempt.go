package usecase

import (
	"context"
	"encoding/json"

	"github.com/screenquiz/screenquiz-analysis-service/internal/domain/entity"
	"github.com/screenquiz/screenquiz-analysis-service/internal/domain/port"
	"github.com/screenquiz/screenquiz-analysis-service/internal/infra/metrics"
	"github.com/screenquiz/screenquiz-analysis-service/internal/scoring"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// RecordAttemptUseCase scores one reported click against the hotspot of the
// session's current step, appends the immutable attempt record, and advances
// the state machine on a correct click.
type RecordAttemptUseCase struct {
	sessions  port.SessionRepository
	attempts  port.AttemptRepository
	ids       port.IDAllocator
	publisher port.VerdictPublisher
	dlq       port.DLQPublisher
	logger    *zap.Logger
	tolerance int
}

func NewRecordAttemptUseCase(
	sessions port.SessionRepository,
	attempts port.AttemptRepository,
	ids port.IDAllocator,
	publisher port.VerdictPublisher,
	dlq port.DLQPublisher,
	logger *zap.Logger,
	tolerance int,
) *RecordAttemptUseCase {
	if tolerance <= 0 {
		tolerance = scoring.DefaultTolerance
	}
	return &RecordAttemptUseCase{
		sessions:  sessions,
		attempts:  attempts,
		ids:       ids,
		publisher: publisher,
		dlq:       dlq,
		logger:    logger,
		tolerance: tolerance,
	}
}

func (uc *RecordAttemptUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "RecordAttemptUseCase.Execute")
	defer span.End()

	var msg entity.AttemptMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal attempt", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}

	span.SetAttributes(attribute.String("session.id", msg.SessionID.String()))
	log := uc.logger.With(zap.String("session_id", msg.SessionID.String()))

	session, err := uc.sessions.FindByID(ctx, msg.SessionID)
	if err != nil {
		// A bad session id is a request-level failure; it never blocks the
		// queue or touches other sessions.
		log.Warn("attempt for unknown session", zap.Error(err))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "session_not_found")
		return nil
	}

	if session.IsCompleted {
		// Completed sessions are immutable: report the current state, record
		// nothing. Re-querying yields the same snapshot every time.
		log.Info("attempt on completed session ignored")
		uc.publishVerdict(ctx, session, session.TotalSteps, false, log)
		return nil
	}

	target, ok := session.HotspotByID(msg.HotspotID)
	if !ok {
		log.Warn("attempt references hotspot outside current step",
			zap.String("hotspot_id", msg.HotspotID.String()),
			zap.Int("current_step", session.CurrentStep),
		)
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unknown_hotspot")
		return nil
	}

	correct := scoring.Within(msg.ClickX, msg.ClickY, target.X, target.Y, uc.tolerance)
	scoredStep := session.CurrentStep

	attempt := entity.NewTestAttempt(
		uc.ids.NewID(), session.ID, scoredStep, target,
		msg.ClickX, msg.ClickY, msg.TimeSpentMs, correct,
	)
	if err := uc.attempts.Append(ctx, attempt); err != nil {
		log.Error("failed to append attempt", zap.Error(err))
		return err
	}

	if correct {
		session.Advance()
		advanced, err := uc.sessions.AdvanceStep(ctx, session, scoredStep)
		if err != nil {
			log.Error("failed to advance session", zap.Error(err))
			return err
		}
		if !advanced {
			// Lost the race against a concurrent correct click; the attempt
			// record above still stands. Report the stored state.
			log.Warn("concurrent attempt already advanced this step")
			if fresh, err := uc.sessions.FindByID(ctx, session.ID); err == nil {
				session = fresh
			}
		}
		metrics.AttemptsScoredTotal.WithLabelValues("correct").Inc()
	} else {
		metrics.AttemptsScoredTotal.WithLabelValues("incorrect").Inc()
	}

	uc.publishVerdict(ctx, session, scoredStep, correct, log)

	log.Info("attempt scored",
		zap.Int("step", scoredStep),
		zap.Bool("correct", correct),
		zap.Int("current_step", session.CurrentStep),
		zap.Bool("completed", session.IsCompleted),
	)

	return nil
}

func (uc *RecordAttemptUseCase) publishVerdict(ctx context.Context, session *entity.TestSession, scoredStep int, correct bool, log *zap.Logger) {
	verdict := entity.VerdictMessage{
		SessionID:   session.ID,
		StepNumber:  scoredStep,
		IsCorrect:   correct,
		CurrentStep: session.CurrentStep,
		TotalSteps:  session.TotalSteps,
		IsCompleted: session.IsCompleted,
		CompletedAt: session.CompletedAt,
	}
	data, _ := json.Marshal(verdict)
	if err := uc.publisher.PublishVerdict(ctx, data); err != nil {
		log.Error("failed to publish verdict", zap.Error(err))
	}
}
