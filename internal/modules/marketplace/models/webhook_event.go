package models

import (
	"time"

	"gorm.io/datatypes"
)

// WebhookEvent marks a provider event as processed. The (provider, event_id)
// pair is unique so a redelivered event is detected inside the same
// transaction that applies it.
type WebhookEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Provider    string         `gorm:"type:varchar(20);not null;uniqueIndex:ux_webhook_events_provider_event,priority:1" json:"provider"`
	EventID     string         `gorm:"type:varchar(191);not null;uniqueIndex:ux_webhook_events_provider_event,priority:2" json:"event_id"`
	EventType   string         `gorm:"type:varchar(100);not null;index" json:"event_type"`
	Payload     datatypes.JSON `gorm:"type:jsonb" json:"payload,omitempty"`
	ProcessedAt time.Time      `gorm:"not null" json:"processed_at"`
}

// TableName specifies the table name
func (WebhookEvent) TableName() string {
	return "webhook_events"
}
