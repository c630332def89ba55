package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockStore(t *testing.T) (Store, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewStore(db), mock
}

var balanceColumns = []string{
	"account_id", "credits_balance", "credits_purchased_total", "credits_spent_total", "created_at", "updated_at",
}

func TestCreditRepo_DeductIsConditional(t *testing.T) {
	store, mock := newMockStore(t)
	accountID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`UPDATE "credit_balances" SET .*credits_balance - .*WHERE account_id = .* AND credits_balance >= .*RETURNING`).
		WillReturnRows(sqlmock.NewRows(balanceColumns).AddRow(accountID.String(), 420, 500, 80, now, now))

	balance, err := store.Credits().Deduct(context.Background(), accountID, 80)
	require.NoError(t, err)
	assert.Equal(t, 420, balance.CreditsBalance)
	assert.Equal(t, 80, balance.CreditsSpentTotal)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditRepo_DeductInsufficient(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`UPDATE "credit_balances" SET`).
		WillReturnRows(sqlmock.NewRows(balanceColumns))

	balance, err := store.Credits().Deduct(context.Background(), uuid.New(), 80)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Nil(t, balance)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditRepo_AddUpserts(t *testing.T) {
	store, mock := newMockStore(t)
	accountID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO "credit_balances" .*ON CONFLICT \("account_id"\) DO UPDATE SET .*credit_balances.credits_balance \+`).
		WillReturnRows(sqlmock.NewRows(balanceColumns).AddRow(accountID.String(), 250, 250, 0, now, now))

	balance, err := store.Credits().Add(context.Background(), accountID, 150)
	require.NoError(t, err)
	assert.Equal(t, 250, balance.CreditsBalance)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInteractionRepo_CreateDuplicate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO "lead_interactions" .*ON CONFLICT .*DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := store.Interactions().Create(context.Background(), &models.LeadInteraction{
		ProfessionalID: uuid.New(),
		LeadID:         uuid.New(),
		CreditsSpent:   80,
		AccessedAt:     time.Now(),
		Status:         models.InteractionAccessed,
	})
	assert.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimRepo_ResolveOnlyPending(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE "lead_claims" SET .*WHERE id = .* AND status = `).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := store.Claims().Resolve(context.Background(), uuid.New(), ClaimResolution{
		Status: models.ClaimApproved,
		At:     time.Now(),
	})
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReferralRepo_TransitionCompareAndSet(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE "referrals" SET .*WHERE id = .* AND status IN`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := store.Referrals().Transition(context.Background(), uuid.New(), ReferralTransition{
		From: []models.ReferralStatus{models.ReferralPending, models.ReferralPhoneVerified},
		To:   models.ReferralConverted,
		Plan: models.PlanPro,
		At:   time.Now(),
	})
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}
