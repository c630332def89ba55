package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/presupuestalo/marketplace-be/internal/core/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type queuedEmail struct {
	accountID uuid.UUID
	msg       email.Message
}

type fakeQueue struct {
	queued []queuedEmail
}

func (q *fakeQueue) EnqueueEmail(ctx context.Context, accountID uuid.UUID, msg email.Message) error {
	q.queued = append(q.queued, queuedEmail{accountID, msg})
	return nil
}

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

func TestNotify_StoresAndQueuesEmail(t *testing.T) {
	db, mock := newMockDB(t)
	queue := &fakeQueue{}
	svc := NewService(db, queue)
	accountID := uuid.New()

	mock.ExpectQuery(`INSERT INTO "notifications"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
	mock.ExpectQuery(`SELECT email FROM "profiles" WHERE id = `).
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("referrer@example.com"))

	svc.Notify(context.Background(), accountID, Notification{
		Kind:    KindReferralReward,
		Title:   "Has ganado 150 créditos",
		Message: "Tu referido se ha suscrito al plan pro.",
		Data:    map[string]string{"credits": "150"},
	})

	require.NoError(t, mock.ExpectationsWereMet())
	require.Len(t, queue.queued, 1)
	assert.Equal(t, accountID, queue.queued[0].accountID)
	assert.Equal(t, "referrer@example.com", queue.queued[0].msg.To)
	assert.Equal(t, "Has ganado 150 créditos", queue.queued[0].msg.Subject)
}

func TestNotify_SwallowsFailures(t *testing.T) {
	db, mock := newMockDB(t)
	queue := &fakeQueue{}
	svc := NewService(db, queue)

	mock.ExpectQuery(`INSERT INTO "notifications"`).WillReturnError(errors.New("db down"))
	mock.ExpectQuery(`SELECT email FROM "profiles"`).WillReturnError(errors.New("db down"))

	assert.NotPanics(t, func() {
		svc.Notify(context.Background(), uuid.New(), Notification{Kind: KindClaimApproved, Title: "t"})
	})
	assert.Empty(t, queue.queued)
}
