package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LeadFilter narrows the open lead listing
type LeadFilter struct {
	Province   string
	ReformType string
	Limit      int
	Offset     int
}

// LeadListing is an open lead with the number of professionals that unlocked it
type LeadListing struct {
	models.Lead
	AccessCount int `json:"access_count"`
}

type LeadRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error)
	// GetForUpdate locks the lead row for the rest of the transaction
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Lead, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Lead, error)
	// ListOpen returns open leads still below their accessor cap
	ListOpen(ctx context.Context, filter LeadFilter) ([]LeadListing, error)
}

type leadRepo struct {
	db *gorm.DB
}

func (r *leadRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	var lead models.Lead
	if err := r.db.WithContext(ctx).First(&lead, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &lead, nil
}

func (r *leadRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	var lead models.Lead
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&lead, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &lead, nil
}

func (r *leadRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Lead, error) {
	var leads []models.Lead
	if len(ids) == 0 {
		return leads, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&leads).Error
	return leads, err
}

const accessCountSQL = "(SELECT COUNT(*) FROM lead_interactions li WHERE li.lead_id = leads.id)"

func (r *leadRepo) ListOpen(ctx context.Context, filter LeadFilter) ([]LeadListing, error) {
	query := r.db.WithContext(ctx).Model(&models.Lead{}).
		Select("leads.*, "+accessCountSQL+" AS access_count").
		Where("leads.status = ?", models.LeadOpen).
		Where(accessCountSQL + " < leads.max_accessors")

	if filter.Province != "" {
		query = query.Where("leads.province = ?", filter.Province)
	}
	if filter.ReformType != "" {
		query = query.Where("leads.reform_type = ?", filter.ReformType)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var listings []LeadListing
	err := query.Order("leads.created_at DESC").Scan(&listings).Error
	return listings, err
}
