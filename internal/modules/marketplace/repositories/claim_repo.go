package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/models"
	"gorm.io/gorm"
)

// ClaimResolution closes a pending claim
type ClaimResolution struct {
	Status     string
	ReviewerID *uuid.UUID
	Notes      string
	At         time.Time
}

type ClaimRepo interface {
	// Create returns ErrDuplicate when the interaction already has a claim
	Create(ctx context.Context, claim *models.Claim) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Claim, error)
	List(ctx context.Context, status string, limit int) ([]models.Claim, error)
	ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]models.Claim, error)
	// Resolve moves a pending claim to its final status; false if it was not pending
	Resolve(ctx context.Context, id uuid.UUID, res ClaimResolution) (bool, error)
}

type claimRepo struct {
	db *gorm.DB
}

func (r *claimRepo) Create(ctx context.Context, claim *models.Claim) error {
	return translate(r.db.WithContext(ctx).Create(claim).Error)
}

func (r *claimRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Claim, error) {
	var claim models.Claim
	if err := r.db.WithContext(ctx).First(&claim, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &claim, nil
}

func (r *claimRepo) List(ctx context.Context, status string, limit int) ([]models.Claim, error) {
	var claims []models.Claim
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&claims).Error
	return claims, err
}

func (r *claimRepo) ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]models.Claim, error) {
	var claims []models.Claim
	err := r.db.WithContext(ctx).
		Where("professional_id = ?", professionalID).
		Order("created_at DESC").
		Find(&claims).Error
	return claims, err
}

func (r *claimRepo) Resolve(ctx context.Context, id uuid.UUID, res ClaimResolution) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Claim{}).
		Where("id = ? AND status = ?", id, models.ClaimPending).
		Updates(map[string]interface{}{
			"status":       res.Status,
			"reviewed_by":  res.ReviewerID,
			"review_notes": res.Notes,
			"resolved_at":  res.At,
		})
	if result.Error != nil {
		return false, translate(result.Error)
	}
	return result.RowsAffected == 1, nil
}
