package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubscriptionRepo interface {
	GetByAccount(ctx context.Context, accountID uuid.UUID) (*models.Subscription, error)
	GetByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error)
	// Upsert writes the assignment keyed by account; an existing row is overwritten
	Upsert(ctx context.Context, sub *models.Subscription) error
	Update(ctx context.Context, sub *models.Subscription) error
}

type subscriptionRepo struct {
	db *gorm.DB
}

func (r *subscriptionRepo) GetByAccount(ctx context.Context, accountID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).First(&sub, "account_id = ?", accountID).Error; err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

func (r *subscriptionRepo) GetByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).Where("stripe_subscription_id = ?", stripeSubscriptionID).First(&sub).Error; err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

func (r *subscriptionRepo) Upsert(ctx context.Context, sub *models.Subscription) error {
	err := r.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "account_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"plan", "billing_interval", "stripe_subscription_id", "stripe_customer_id",
				"stripe_price_id", "status", "current_period_start", "current_period_end",
				"cancel_at_period_end", "canceled_at", "updated_at",
			}),
		},
		clause.Returning{},
	).Create(sub).Error
	return translate(err)
}

func (r *subscriptionRepo) Update(ctx context.Context, sub *models.Subscription) error {
	return translate(r.db.WithContext(ctx).Save(sub).Error)
}
