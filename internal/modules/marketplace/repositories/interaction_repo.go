package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InteractionRepo interface {
	// Create returns ErrDuplicate when the professional already unlocked the
	// lead; the transaction stays usable in that case
	Create(ctx context.Context, interaction *models.LeadInteraction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.LeadInteraction, error)
	GetByProfessionalAndLead(ctx context.Context, professionalID, leadID uuid.UUID) (*models.LeadInteraction, error)
	CountByLead(ctx context.Context, leadID uuid.UUID) (int64, error)
	ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]models.LeadInteraction, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.InteractionStatus) error
}

type interactionRepo struct {
	db *gorm.DB
}

func (r *interactionRepo) Create(ctx context.Context, interaction *models.LeadInteraction) error {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "professional_id"}, {Name: "lead_id"}},
			DoNothing: true,
		}).
		Create(interaction)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrDuplicate
	}
	return nil
}

func (r *interactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.LeadInteraction, error) {
	var interaction models.LeadInteraction
	if err := r.db.WithContext(ctx).First(&interaction, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &interaction, nil
}

func (r *interactionRepo) GetByProfessionalAndLead(ctx context.Context, professionalID, leadID uuid.UUID) (*models.LeadInteraction, error) {
	var interaction models.LeadInteraction
	err := r.db.WithContext(ctx).
		Where("professional_id = ? AND lead_id = ?", professionalID, leadID).
		First(&interaction).Error
	if err != nil {
		return nil, translate(err)
	}
	return &interaction, nil
}

func (r *interactionRepo) CountByLead(ctx context.Context, leadID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.LeadInteraction{}).
		Where("lead_id = ?", leadID).
		Count(&count).Error
	return count, err
}

func (r *interactionRepo) ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]models.LeadInteraction, error) {
	var interactions []models.LeadInteraction
	err := r.db.WithContext(ctx).
		Where("professional_id = ?", professionalID).
		Order("accessed_at DESC").
		Find(&interactions).Error
	return interactions, err
}

func (r *interactionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.InteractionStatus) error {
	return affected(r.db.WithContext(ctx).Model(&models.LeadInteraction{}).
		Where("id = ?", id).
		Update("status", status))
}
