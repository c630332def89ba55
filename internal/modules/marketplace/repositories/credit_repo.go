package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreditRepo mutates balances with single atomic statements so concurrent
// movements on the same account never lose updates.
type CreditRepo interface {
	Get(ctx context.Context, accountID uuid.UUID) (*models.CreditBalance, error)
	// Add increments balance and purchased total, creating the row if absent
	Add(ctx context.Context, accountID uuid.UUID, amount int) (*models.CreditBalance, error)
	// Deduct decrements only when the balance covers amount, otherwise
	// ErrInsufficientBalance and nothing changes
	Deduct(ctx context.Context, accountID uuid.UUID, amount int) (*models.CreditBalance, error)
	// RaiseTo lifts the balance to floor if it is lower and reports how many
	// credits were added (0 when already at or above floor)
	RaiseTo(ctx context.Context, accountID uuid.UUID, floor int) (*models.CreditBalance, int, error)
	RecordTransaction(ctx context.Context, entry *models.CreditTransaction) error
	ListTransactions(ctx context.Context, accountID uuid.UUID, limit int) ([]models.CreditTransaction, error)
}

type creditRepo struct {
	db *gorm.DB
}

func (r *creditRepo) Get(ctx context.Context, accountID uuid.UUID) (*models.CreditBalance, error) {
	var balance models.CreditBalance
	if err := r.db.WithContext(ctx).First(&balance, "account_id = ?", accountID).Error; err != nil {
		return nil, translate(err)
	}
	return &balance, nil
}

func (r *creditRepo) Add(ctx context.Context, accountID uuid.UUID, amount int) (*models.CreditBalance, error) {
	balance := models.CreditBalance{
		AccountID:             accountID,
		CreditsBalance:        amount,
		CreditsPurchasedTotal: amount,
	}

	err := r.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "account_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"credits_balance":         gorm.Expr("credit_balances.credits_balance + ?", amount),
				"credits_purchased_total": gorm.Expr("credit_balances.credits_purchased_total + ?", amount),
				"updated_at":              gorm.Expr("NOW()"),
			}),
		},
		clause.Returning{},
	).Create(&balance).Error
	if err != nil {
		return nil, translate(err)
	}
	return &balance, nil
}

func (r *creditRepo) Deduct(ctx context.Context, accountID uuid.UUID, amount int) (*models.CreditBalance, error) {
	var balance models.CreditBalance
	res := r.db.WithContext(ctx).Model(&balance).
		Clauses(clause.Returning{}).
		Where("account_id = ? AND credits_balance >= ?", accountID, amount).
		Updates(map[string]interface{}{
			"credits_balance":     gorm.Expr("credits_balance - ?", amount),
			"credits_spent_total": gorm.Expr("credits_spent_total + ?", amount),
		})
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrInsufficientBalance
	}
	return &balance, nil
}

func (r *creditRepo) RaiseTo(ctx context.Context, accountID uuid.UUID, floor int) (*models.CreditBalance, int, error) {
	db := r.db.WithContext(ctx)

	seed := models.CreditBalance{AccountID: accountID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return nil, 0, translate(err)
	}

	var balance models.CreditBalance
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&balance, "account_id = ?", accountID).Error; err != nil {
		return nil, 0, translate(err)
	}
	if balance.CreditsBalance >= floor {
		return &balance, 0, nil
	}

	raised := floor - balance.CreditsBalance
	err := db.Model(&balance).
		Clauses(clause.Returning{}).
		Update("credits_balance", gorm.Expr("GREATEST(credits_balance, ?)", floor)).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return &balance, raised, nil
}

func (r *creditRepo) RecordTransaction(ctx context.Context, entry *models.CreditTransaction) error {
	return translate(r.db.WithContext(ctx).Create(entry).Error)
}

func (r *creditRepo) ListTransactions(ctx context.Context, accountID uuid.UUID, limit int) ([]models.CreditTransaction, error) {
	var entries []models.CreditTransaction
	query := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
