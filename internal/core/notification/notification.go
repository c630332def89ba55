package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/presupuestalo/marketplace-be/internal/core/email"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Kinds of notification produced by the marketplace
const (
	KindReferralReward = "referral_reward"
	KindClaimFiled     = "claim_filed"
	KindClaimApproved  = "claim_approved"
	KindClaimRejected  = "claim_rejected"
)

// Notification represents a notification message
type Notification struct {
	Kind    string
	Title   string
	Message string
	Data    map[string]string
}

// Record is the in-app copy shown in the dashboard
type Record struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	AccountID uuid.UUID      `gorm:"type:uuid;not null;index" json:"account_id"`
	Kind      string         `gorm:"type:varchar(50);not null" json:"kind"`
	Title     string         `gorm:"type:varchar(255);not null" json:"title"`
	Body      string         `gorm:"type:text" json:"body"`
	Data      datatypes.JSON `gorm:"type:jsonb" json:"data,omitempty"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name
func (Record) TableName() string {
	return "notifications"
}

// EmailQueue hands emails to the background job queue
type EmailQueue interface {
	EnqueueEmail(ctx context.Context, accountID uuid.UUID, msg email.Message) error
}

// Service stores in-app notifications and queues the email copy.
// Delivery is best effort: failures are logged, never returned to the caller.
type Service struct {
	db     *gorm.DB
	emails EmailQueue
}

// NewService creates a new notification service
func NewService(db *gorm.DB, emails EmailQueue) *Service {
	return &Service{db: db, emails: emails}
}

// Notify records the notification for accountID and queues an email when
// the account has an address on file
func (s *Service) Notify(ctx context.Context, accountID uuid.UUID, n Notification) {
	logger := log.With().Str("account_id", accountID.String()).Str("kind", n.Kind).Logger()

	var data datatypes.JSON
	if len(n.Data) > 0 {
		if raw, err := json.Marshal(n.Data); err == nil {
			data = raw
		}
	}

	record := &Record{
		AccountID: accountID,
		Kind:      n.Kind,
		Title:     n.Title,
		Body:      n.Message,
		Data:      data,
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		logger.Warn().Err(err).Msg("⚠️ Failed to store notification")
	}

	if s.emails == nil {
		return
	}

	var address string
	err := s.db.WithContext(ctx).
		Table("profiles").
		Select("email").
		Where("id = ?", accountID).
		Scan(&address).Error
	if err != nil {
		logger.Warn().Err(err).Msg("⚠️ Failed to look up notification email")
		return
	}
	if address == "" {
		return
	}

	msg := email.Message{
		To:      address,
		Subject: n.Title,
		HTML:    email.Render(n.Title, n.Message, n.Data),
	}
	if err := s.emails.EnqueueEmail(ctx, accountID, msg); err != nil {
		logger.Warn().Err(err).Msg("⚠️ Failed to queue notification email")
	}
}

// List returns the most recent notifications of an account
func (s *Service) List(ctx context.Context, accountID uuid.UUID, limit int) ([]Record, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}

	var records []Record
	err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return records, nil
}

// MarkRead flags one notification of the account as read
func (s *Service) MarkRead(ctx context.Context, accountID, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&Record{}).
		Where("id = ? AND account_id = ? AND read_at IS NULL", id, accountID).
		Update("read_at", time.Now())
	if res.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", res.Error)
	}
	return nil
}
