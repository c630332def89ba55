package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Record stores e once the business operation has committed. A failed write
// is logged and swallowed.
func (s *Service) Record(ctx context.Context, e Entry) {
	row := AuditLog{
		ActorID:     e.ActorID,
		AccountID:   e.AccountID,
		Action:      e.Action,
		Entity:      e.Entity,
		EntityID:    e.EntityID,
		Description: e.Description,
	}
	if len(e.Metadata) > 0 {
		if raw, err := json.Marshal(e.Metadata); err == nil {
			row.Metadata = datatypes.JSON(raw)
		} else {
			log.Warn().Err(err).Str("action", e.Action).Msg("⚠️ Audit metadata dropped")
		}
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		log.Error().Err(err).Str("action", e.Action).Str("entity_id", e.EntityID).Msg("❌ Audit write failed")
	}
}

// GetLogs returns one page of entries matching f, newest first
func (s *Service) GetLogs(ctx context.Context, f AuditFilter) (*AuditLogResponse, error) {
	page, size := f.Page, f.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 || size > maxPageSize {
		size = defaultPageSize
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&AuditLog{}).Scopes(f.scope).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count audit logs: %w", err)
	}

	logs := []AuditLog{}
	err := s.db.WithContext(ctx).Scopes(f.scope).
		Order("created_at DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}

	return &AuditLogResponse{
		Logs:       logs,
		TotalCount: total,
		Page:       page,
		PageSize:   size,
		TotalPages: int((total + int64(size) - 1) / int64(size)),
	}, nil
}

func (f AuditFilter) scope(db *gorm.DB) *gorm.DB {
	if f.AccountID != nil {
		db = db.Where("account_id = ?", *f.AccountID)
	}
	if f.Action != "" {
		db = db.Where("action = ?", f.Action)
	}
	if f.Entity != "" {
		db = db.Where("entity = ?", f.Entity)
	}
	if f.EntityID != "" {
		db = db.Where("entity_id = ?", f.EntityID)
	}
	if f.StartDate != nil {
		db = db.Where("created_at >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		db = db.Where("created_at <= ?", *f.EndDate)
	}
	return db
}
