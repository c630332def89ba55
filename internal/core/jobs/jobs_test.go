package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/presupuestalo/marketplace-be/internal/core/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type recordingProvider struct {
	sent []email.Message
	err  error
}

func (p *recordingProvider) Send(ctx context.Context, msg email.Message) error {
	p.sent = append(p.sent, msg)
	return p.err
}

func (p *recordingProvider) Name() string { return "recording" }

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestSendEmailHandler(t *testing.T) {
	provider := &recordingProvider{}
	h := NewSendEmailHandler(provider)
	assert.Equal(t, TypeSendEmail, h.GetType())

	payload, _ := json.Marshal(email.Message{To: "pro@example.com", Subject: "Reembolso aprobado", HTML: "<p>ok</p>"})
	require.NoError(t, h.Handle(context.Background(), &Job{Payload: payload}))
	require.Len(t, provider.sent, 1)
	assert.Equal(t, "pro@example.com", provider.sent[0].To)

	provider.err = errors.New("provider down")
	assert.Error(t, h.Handle(context.Background(), &Job{Payload: payload}))
}

func TestSendEmailHandler_RejectsMissingRecipient(t *testing.T) {
	h := NewSendEmailHandler(&recordingProvider{})
	payload, _ := json.Marshal(email.Message{Subject: "s"})
	assert.Error(t, h.Handle(context.Background(), &Job{Payload: payload}))
	assert.Error(t, h.Handle(context.Background(), &Job{Payload: []byte("{")}))
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, 2*time.Second, backoff(1))
	assert.Equal(t, 8*time.Second, backoff(3))
	assert.Equal(t, time.Hour, backoff(12))
	assert.Equal(t, time.Hour, backoff(40))
}

func TestService_EnqueueEmail(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db)

	mock.ExpectQuery(`INSERT INTO "jobs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))

	err := svc.EnqueueEmail(context.Background(), uuid.New(), email.Message{To: "pro@example.com", Subject: "s"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueue_DeleteOldJobs(t *testing.T) {
	db, mock := newMockDB(t)
	q := NewQueue(db)
	q.now = func() time.Time { return time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC) }

	mock.ExpectExec(`DELETE FROM "jobs" WHERE status IN .* AND COALESCE\(completed_at, failed_at\) <`).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := q.DeleteOldJobs(context.Background(), 14*24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

type cancellingHandler struct {
	cancel context.CancelFunc
}

func (h *cancellingHandler) GetType() string { return TypeSendEmail }

func (h *cancellingHandler) Handle(ctx context.Context, job *Job) error {
	h.cancel()
	return nil
}

func TestWorker_StoresOutcomeAfterShutdown(t *testing.T) {
	db, mock := newMockDB(t)
	w := NewWorker(NewQueue(db), WorkerConfig{Queue: QueueEmails, Concurrency: 1, PollInterval: time.Second, Timeout: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.RegisterHandler(&cancellingHandler{cancel: cancel})

	jobID := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "jobs" WHERE .* FOR UPDATE SKIP LOCKED`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "queue", "type", "payload", "status", "attempts", "max_attempts"}).
			AddRow(jobID.String(), QueueEmails, TypeSendEmail, []byte(`{}`), string(StatusPending), 0, 5))
	mock.ExpectExec(`UPDATE "jobs" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec(`UPDATE "jobs" SET .*"completed_at"`).WillReturnResult(sqlmock.NewResult(0, 1))

	found, err := w.runOne(ctx, 1)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Error(t, ctx.Err())
	require.NoError(t, mock.ExpectationsWereMet())
}
