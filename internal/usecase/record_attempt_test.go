package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/screenquiz/screenquiz-analysis-service/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type seqIDs struct{ n byte }

func (s *seqIDs) NewID() uuid.UUID {
	s.n++
	return uuid.UUID{15: s.n}
}

type memSessions struct {
	byID map[uuid.UUID]*entity.TestSession
}

func newMemSessions(sessions ...*entity.TestSession) *memSessions {
	m := &memSessions{byID: map[uuid.UUID]*entity.TestSession{}}
	for _, s := range sessions {
		m.byID[s.ID] = s
	}
	return m
}

func (m *memSessions) Create(_ context.Context, s *entity.TestSession) error {
	m.byID[s.ID] = s
	return nil
}

func (m *memSessions) FindByID(_ context.Context, id uuid.UUID) (*entity.TestSession, error) {
	s, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("session %s not found", id)
	}
	cp := *s
	return &cp, nil
}

func (m *memSessions) AdvanceStep(_ context.Context, s *entity.TestSession, fromStep int) (bool, error) {
	stored, ok := m.byID[s.ID]
	if !ok || stored.CurrentStep != fromStep {
		return false, nil
	}
	cp := *s
	m.byID[s.ID] = &cp
	return true, nil
}

type memAttempts struct {
	records []*entity.TestAttempt
}

func (m *memAttempts) Append(_ context.Context, a *entity.TestAttempt) error {
	m.records = append(m.records, a)
	return nil
}

type capturePublisher struct {
	verdicts []entity.VerdictMessage
}

func (c *capturePublisher) PublishVerdict(_ context.Context, msg []byte) error {
	var v entity.VerdictMessage
	if err := json.Unmarshal(msg, &v); err != nil {
		return err
	}
	c.verdicts = append(c.verdicts, v)
	return nil
}

type captureDLQ struct {
	reasons []string
}

func (c *captureDLQ) PublishToDLQ(_ context.Context, _ []byte, reason string) error {
	c.reasons = append(c.reasons, reason)
	return nil
}

func newAttemptFixture(t *testing.T, steps int) (*RecordAttemptUseCase, *entity.TestSession, *memSessions, *memAttempts, *capturePublisher, *captureDLQ) {
	t.Helper()

	ids := &seqIDs{}
	stepList := make([]entity.SessionStep, steps)
	for i := range stepList {
		stepList[i] = entity.SessionStep{
			FrameKey: fmt.Sprintf("frames/%d.png", i),
			Hotspots: []entity.Hotspot{{ID: ids.NewID(), X: 100, Y: 100, Label: "target"}},
		}
	}
	session, err := entity.NewTestSession(ids.NewID(), ids.NewID(), stepList)
	require.NoError(t, err)

	sessions := newMemSessions(session)
	attempts := &memAttempts{}
	pub := &capturePublisher{}
	dlq := &captureDLQ{}

	uc := NewRecordAttemptUseCase(sessions, attempts, ids, pub, dlq, zap.NewNop(), 25)
	return uc, session, sessions, attempts, pub, dlq
}

func attemptBody(t *testing.T, sessionID, hotspotID uuid.UUID, x, y int) []byte {
	t.Helper()
	body, err := json.Marshal(entity.AttemptMessage{
		SessionID:   sessionID,
		HotspotID:   hotspotID,
		ClickX:      x,
		ClickY:      y,
		TimeSpentMs: 1200,
	})
	require.NoError(t, err)
	return body
}

func TestRecordAttemptCorrectClickAdvances(t *testing.T) {
	uc, session, sessions, attempts, pub, _ := newAttemptFixture(t, 3)
	hs := session.Steps[0].Hotspots[0]

	err := uc.Execute(context.Background(), attemptBody(t, session.ID, hs.ID, 120, 95))
	require.NoError(t, err)

	require.Len(t, attempts.records, 1)
	rec := attempts.records[0]
	assert.True(t, rec.IsCorrect)
	assert.Equal(t, 1, rec.StepNumber)
	assert.Equal(t, 100, rec.ExpectedX)
	assert.Equal(t, int64(1200), rec.TimeSpentMs)

	stored, err := sessions.FindByID(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.CurrentStep)
	assert.False(t, stored.IsCompleted)

	require.Len(t, pub.verdicts, 1)
	assert.True(t, pub.verdicts[0].IsCorrect)
	assert.Equal(t, 1, pub.verdicts[0].StepNumber)
	assert.Equal(t, 2, pub.verdicts[0].CurrentStep)
}

func TestRecordAttemptIncorrectClickDoesNotAdvance(t *testing.T) {
	uc, session, sessions, attempts, pub, _ := newAttemptFixture(t, 3)
	hs := session.Steps[0].Hotspots[0]

	err := uc.Execute(context.Background(), attemptBody(t, session.ID, hs.ID, 126, 100))
	require.NoError(t, err)

	require.Len(t, attempts.records, 1)
	assert.False(t, attempts.records[0].IsCorrect)

	stored, err := sessions.FindByID(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CurrentStep)

	require.Len(t, pub.verdicts, 1)
	assert.False(t, pub.verdicts[0].IsCorrect)
	assert.Equal(t, 1, pub.verdicts[0].CurrentStep)
}

func TestRecordAttemptUnboundedRetries(t *testing.T) {
	uc, session, _, attempts, _, _ := newAttemptFixture(t, 1)
	hs := session.Steps[0].Hotspots[0]

	for i := 0; i < 5; i++ {
		err := uc.Execute(context.Background(), attemptBody(t, session.ID, hs.ID, 500, 500))
		require.NoError(t, err)
	}
	assert.Len(t, attempts.records, 5)
}

func TestRecordAttemptCompletesSession(t *testing.T) {
	uc, session, sessions, _, pub, _ := newAttemptFixture(t, 2)

	err := uc.Execute(context.Background(), attemptBody(t, session.ID, session.Steps[0].Hotspots[0].ID, 100, 100))
	require.NoError(t, err)
	err = uc.Execute(context.Background(), attemptBody(t, session.ID, session.Steps[1].Hotspots[0].ID, 100, 100))
	require.NoError(t, err)

	stored, err := sessions.FindByID(context.Background(), session.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsCompleted)
	assert.Equal(t, 3, stored.CurrentStep)

	final := pub.verdicts[len(pub.verdicts)-1]
	assert.True(t, final.IsCompleted)
	require.NotNil(t, final.CompletedAt)
}

func TestRecordAttemptOnCompletedSessionIsIdempotent(t *testing.T) {
	uc, session, sessions, attempts, pub, _ := newAttemptFixture(t, 1)
	hs := session.Steps[0].Hotspots[0]

	err := uc.Execute(context.Background(), attemptBody(t, session.ID, hs.ID, 100, 100))
	require.NoError(t, err)
	require.Len(t, attempts.records, 1)

	// Re-querying a completed session's state returns the same snapshot and
	// records nothing.
	for i := 0; i < 3; i++ {
		err = uc.Execute(context.Background(), attemptBody(t, session.ID, hs.ID, 100, 100))
		require.NoError(t, err)
	}
	assert.Len(t, attempts.records, 1)

	stored, err := sessions.FindByID(context.Background(), session.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsCompleted)
	assert.Equal(t, 2, stored.CurrentStep)

	for _, v := range pub.verdicts[1:] {
		assert.True(t, v.IsCompleted)
		assert.Equal(t, 2, v.CurrentStep)
	}
}

func TestRecordAttemptUnknownSessionGoesToDLQ(t *testing.T) {
	uc, _, _, attempts, pub, dlq := newAttemptFixture(t, 1)

	err := uc.Execute(context.Background(), attemptBody(t, uuid.New(), uuid.New(), 0, 0))
	require.NoError(t, err)

	assert.Empty(t, attempts.records)
	assert.Empty(t, pub.verdicts)
	require.Len(t, dlq.reasons, 1)
	assert.Equal(t, "session_not_found", dlq.reasons[0])
}

func TestRecordAttemptUnknownHotspotGoesToDLQ(t *testing.T) {
	uc, session, _, attempts, _, dlq := newAttemptFixture(t, 1)

	err := uc.Execute(context.Background(), attemptBody(t, session.ID, uuid.New(), 100, 100))
	require.NoError(t, err)

	assert.Empty(t, attempts.records)
	require.Len(t, dlq.reasons, 1)
	assert.Equal(t, "unknown_hotspot", dlq.reasons[0])
}

func TestRecordAttemptMalformedPayloadGoesToDLQ(t *testing.T) {
	uc, _, _, attempts, _, dlq := newAttemptFixture(t, 1)

	err := uc.Execute(context.Background(), []byte(`{not json`))
	require.NoError(t, err)

	assert.Empty(t, attempts.records)
	require.Len(t, dlq.reasons, 1)
	assert.Contains(t, dlq.reasons[0], "unmarshal_error")
}
