package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shamseergtct/gtct-analytics/config"
	"github.com/shamseergtct/gtct-analytics/utils"
	"gorm.io/gorm"
)

// LedgerEventRecord is the transactional outbox row written next to every
// transaction change. The dispatcher publishes it after commit.
type LedgerEventRecord struct {
	ID            int                 `gorm:"primary_key;index:idx_outbox_dispatch,priority:3" json:"id"`
	ClientId      string              `gorm:"size:64;not null;index" json:"client_id"`
	DateKey       string              `gorm:"size:10;not null;index" json:"date_key"`
	ReferenceId   int                 `json:"reference_id"`
	ReferenceType LedgerReferenceType `gorm:"size:10;not null" json:"reference_type"`
	Action        LedgerEventAction   `gorm:"size:1;not null" json:"action"`
	Payload       []byte              `gorm:"type:blob" json:"payload"`
	// publish side
	PublishStatus    string     `gorm:"size:20;index;not null;default:'PENDING';index:idx_outbox_dispatch,priority:1" json:"publish_status"`
	PublishedAt      *time.Time `json:"published_at"`
	PubSubMessageId  *string    `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time `gorm:"index;index:idx_outbox_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time `json:"locked_at"`
	LockedBy         *string    `gorm:"size:100" json:"locked_by"`
	LastPublishError *string    `gorm:"type:text" json:"last_publish_error"`
	// worker side
	ProcessingStatus     string     `gorm:"size:20;index;not null;default:'PENDING'" json:"processing_status"`
	ProcessAttempts      int        `gorm:"not null;default:0" json:"process_attempts"`
	NextProcessAttemptAt *time.Time `gorm:"index" json:"next_process_attempt_at"`
	LastProcessError     *string    `gorm:"type:text" json:"last_process_error"`
	ProcessedAt          *time.Time `json:"processed_at"`
	CorrelationId        string     `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt            time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r LedgerEventRecord) ToMessage() config.LedgerEventMessage {
	return config.LedgerEventMessage{
		ID:            r.ID,
		ClientId:      r.ClientId,
		DateKey:       r.DateKey,
		ReferenceId:   r.ReferenceId,
		ReferenceType: string(r.ReferenceType),
		Action:        string(r.Action),
		CorrelationId: r.CorrelationId,
	}
}

// PublishLedgerEvent writes an outbox row inside tx. Call it in the same
// database transaction as the change it describes.
func PublishLedgerEvent(ctx context.Context, tx *gorm.DB, clientId string, dateKey string, refId int, refType LedgerReferenceType, action LedgerEventAction, payload []byte) (*LedgerEventRecord, error) {
	record := LedgerEventRecord{
		ClientId:         clientId,
		DateKey:          dateKey,
		ReferenceId:      refId,
		ReferenceType:    refType,
		Action:           action,
		Payload:          payload,
		PublishStatus:    OutboxPublishStatusPending,
		ProcessingStatus: OutboxProcessStatusPending,
		CorrelationId:    correlationIdFromContextOrNew(ctx),
	}
	if err := tx.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}
