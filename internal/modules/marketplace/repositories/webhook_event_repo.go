package repositories

import (
	"context"

	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/models"
	"gorm.io/gorm"
)

type WebhookEventRepo interface {
	Exists(ctx context.Context, provider, eventID string) (bool, error)
	// Record marks the event processed; ErrDuplicate if it already was
	Record(ctx context.Context, event *models.WebhookEvent) error
}

type webhookEventRepo struct {
	db *gorm.DB
}

func (r *webhookEventRepo) Exists(ctx context.Context, provider, eventID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.WebhookEvent{}).
		Where("provider = ? AND event_id = ?", provider, eventID).
		Count(&count).Error
	return count > 0, err
}

func (r *webhookEventRepo) Record(ctx context.Context, event *models.WebhookEvent) error {
	return translate(r.db.WithContext(ctx).Create(event).Error)
}
