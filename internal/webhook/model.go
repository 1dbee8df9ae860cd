package webhook

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Event records a verified provider callback. The (provider, event id) pair
// is unique so redelivered webhooks are absorbed idempotently.
type Event struct {
	ID         snowflake.ID   `gorm:"primaryKey"`
	Provider   string         `gorm:"type:text;not null;uniqueIndex:idx_webhook_events_provider_event"`
	EventID    string         `gorm:"type:text;not null;uniqueIndex:idx_webhook_events_provider_event"`
	EventType  string         `gorm:"type:text"`
	Payload    datatypes.JSON `gorm:"type:jsonb"`
	ReceivedAt time.Time      `gorm:"not null"`
}

// TableName sets the database table name.
func (Event) TableName() string { return "webhook_events" }
